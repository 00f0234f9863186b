package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"provider-marketplace-be/internal/bootstrap"
	"provider-marketplace-be/internal/config"
	"provider-marketplace-be/internal/server"
	"provider-marketplace-be/internal/tracer"
	"provider-marketplace-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer("provider-marketplace-backend")
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Auth.JwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	bgCtx, stopBackground := context.WithCancel(context.Background())
	if err := container.EventRelay.Start(bgCtx); err != nil {
		log.Printf("Background: event relay failed to start: %v", err)
	}

	if cfg.Scheduler.Enabled {
		if cfg.Scheduler.ExpirySweepOnRun {
			container.ExpiryScheduler.RunOnce()
		}
		if err := container.ExpiryScheduler.Start(); err != nil {
			log.Fatalf("Background: expiry scheduler failed to start: %v", err)
		}
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// 6. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if err := srv.Shutdown(10 * time.Second); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}

	if cfg.Scheduler.Enabled {
		select {
		case <-container.ExpiryScheduler.Stop().Done():
		case <-time.After(30 * time.Second):
			log.Println("Expiry sweep still running, giving up")
		}
	}

	stopBackground()
	container.Close()
}
