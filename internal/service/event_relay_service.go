package service

import (
	"context"
	"time"

	"provider-marketplace-be/internal/pkg/logger"
	"provider-marketplace-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventForwarder is the outbound broker, satisfied by *nats.Publisher.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IEventRelayService interface {
	// Start subscribes and returns; messages are handled until ctx is done.
	Start(ctx context.Context) error
}

type eventRelayService struct {
	subscriber message.Subscriber
	topic      string
	forwarder  EventForwarder
	audit      logger.ILogger
	log        logger.ILogger
	timeout    time.Duration
}

// NewEventRelayService writes every domain event to the audit log and forwards
// it to forwarder when one is configured.
func NewEventRelayService(
	subscriber message.Subscriber,
	topic string,
	forwarder EventForwarder,
	audit logger.ILogger,
	log logger.ILogger,
) IEventRelayService {
	return &eventRelayService{
		subscriber: subscriber,
		topic:      topic,
		forwarder:  forwarder,
		audit:      audit,
		log:        log,
		timeout:    5 * time.Second,
	}
}

func (s *eventRelayService) Start(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.handle(ctx, msg)
		}
	}()

	return nil
}

func (s *eventRelayService) handle(ctx context.Context, msg *message.Message) {
	// Undecodable or undeliverable events are acked; redelivery on an
	// in-process channel would spin forever.
	defer msg.Ack()

	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		s.log.Error("EVENT_RELAY", "Dropping undecodable event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	s.audit.Info("AUDIT", event.EventType(), map[string]interface{}{
		"occurred_at": event.Timestamp(),
		"data":        event.Payload(),
	})

	if s.forwarder == nil {
		return
	}

	fwdCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.forwarder.Publish(fwdCtx, event); err != nil {
		s.log.Warn("EVENT_RELAY", "Failed to forward event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
