package service

import (
	"context"
	"time"

	"provider-marketplace-be/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

type IExpiryScheduler interface {
	Start() error
	Stop() context.Context
	// RunOnce sweeps synchronously, outside the schedule.
	RunOnce()
}

type expiryScheduler struct {
	cron    *cron.Cron
	expiry  IExpiryService
	log     logger.ILogger
	spec    string
	timeout time.Duration
}

// NewExpiryScheduler runs the bulk sweep on spec (e.g. "@every 6h").
func NewExpiryScheduler(expiry IExpiryService, log logger.ILogger, spec string) IExpiryScheduler {
	cl := cronLogger{log: log}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	return &expiryScheduler{
		cron:    c,
		expiry:  expiry,
		log:     log,
		spec:    spec,
		timeout: 5 * time.Minute,
	}
}

func (s *expiryScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		s.log.Error("SCHEDULER", "Failed to schedule expiry sweep", map[string]interface{}{
			"spec":  s.spec,
			"error": err.Error(),
		})
		return err
	}
	s.log.Info("SCHEDULER", "Scheduled expiry sweep", map[string]interface{}{"spec": s.spec})

	s.cron.Start()
	return nil
}

// Stop returns a context that is done once a running sweep finishes.
func (s *expiryScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *expiryScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.expiry.SweepAll(ctx)
	if err != nil {
		s.log.Error("SCHEDULER", "Expiry sweep failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.log.Info("SCHEDULER", "Expiry sweep finished", map[string]interface{}{
		"demoted":     n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// cronLogger adapts ILogger to cron.Logger.
type cronLogger struct {
	log logger.ILogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("CRON", msg, kvToDetails(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	details := kvToDetails(keysAndValues)
	details["error"] = err.Error()
	l.log.Error("CRON", msg, details)
}

func kvToDetails(kv []interface{}) map[string]interface{} {
	details := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			details[k] = kv[i+1]
		}
	}
	return details
}
