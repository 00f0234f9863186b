package bootstrap

import (
	"context"
	"log"
	"time"

	"provider-marketplace-be/internal/config"
	"provider-marketplace-be/internal/controller"
	"provider-marketplace-be/internal/pkg/dedup"
	"provider-marketplace-be/internal/pkg/logger"
	"provider-marketplace-be/internal/pkg/serverutils"
	"provider-marketplace-be/internal/repository/unitofwork"
	"provider-marketplace-be/internal/service"
	"provider-marketplace-be/pkg/billing"

	pktNats "provider-marketplace-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	HealthController        controller.IHealthController
	AdminController         controller.IAdminController
	ProviderController      controller.IProviderController
	DirectoryController     controller.IDirectoryController
	StripeWebhookController controller.IStripeWebhookController

	// Background Services (Exposed for main.go to run)
	ExpiryService   service.IExpiryService
	ExpiryScheduler service.IExpiryScheduler
	EventRelay      service.IEventRelayService

	Logger logger.ILogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	rdb     *redis.Client
	audit   logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	eventPublisher := service.NewEventPublisher(pubSub, cfg.App.EventTopic, sysLogger)

	// 3. Infrastructure
	// NATS
	var forwarder service.EventForwarder
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	} else {
		forwarder = natsPub
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	cancel()

	webhookDedup := dedup.NewFallbackDeduplicator(
		dedup.NewRedisDeduplicator(rdb, "stripe:event:", cfg.Subscription.DedupTTL),
		dedup.NewMemoryDeduplicator(cfg.Subscription.DedupTTL),
		sysLogger,
	)

	// Payment processor
	gateway := billing.NewStripeGateway(billing.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		PriceId:       cfg.Stripe.PriceId,
		Amount:        cfg.Subscription.Amount,
		Currency:      cfg.Subscription.Currency,
		ProductName:   cfg.Stripe.ProductName,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
		HTTPTimeout:   cfg.Stripe.HTTPTimeout,
		APIURL:        cfg.Stripe.APIURL,
	})

	// 4. Services
	expiryService := service.NewExpiryService(uowFactory, eventPublisher, sysLogger, nil)
	verificationService := service.NewVerificationService(uowFactory, expiryService, eventPublisher, sysLogger, nil)
	subscriptionService := service.NewSubscriptionService(
		uowFactory,
		gateway,
		expiryService,
		webhookDedup,
		eventPublisher,
		sysLogger,
		service.SubscriptionSettings{
			Amount:        cfg.Subscription.Amount,
			Currency:      cfg.Subscription.Currency,
			Duration:      cfg.Subscription.Duration,
			CheckoutLease: cfg.Subscription.CheckoutLease,
		},
		nil,
	)
	directoryService := service.NewDirectoryService(uowFactory, expiryService, sysLogger, nil)

	expiryScheduler := service.NewExpiryScheduler(expiryService, sysLogger, cfg.Scheduler.ExpirySweepSpec)
	eventRelay := service.NewEventRelayService(pubSub, cfg.App.EventTopic, forwarder, auditLogger, sysLogger)

	// 5. Controllers
	authMiddleware := serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)

	return &Container{
		HealthController:        controller.NewHealthController(),
		AdminController:         controller.NewAdminController(verificationService, authMiddleware),
		ProviderController:      controller.NewProviderController(subscriptionService, verificationService, authMiddleware),
		DirectoryController:     controller.NewDirectoryController(directoryService),
		StripeWebhookController: controller.NewStripeWebhookController(subscriptionService),

		ExpiryService:   expiryService,
		ExpiryScheduler: expiryScheduler,
		EventRelay:      eventRelay,

		Logger: sysLogger,

		pubSub:  pubSub,
		natsPub: natsPub,
		rdb:     rdb,
		audit:   auditLogger,
	}
}

// Close releases the event bus and broker connections. Call after the HTTP
// server and scheduler have stopped.
func (c *Container) Close() {
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if err := c.rdb.Close(); err != nil {
		log.Printf("[WARN] Failed to close Redis client: %v", err)
	}
	_ = c.audit.Sync()
	_ = c.Logger.Sync()
}
