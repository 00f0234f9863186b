package service

import (
	"context"

	"provider-marketplace-be/internal/pkg/logger"
	"provider-marketplace-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IEventPublisher hands domain events to the in-process bus. Publishing never
// fails the calling operation; the state change is already committed.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

type eventPublisher struct {
	publisher message.Publisher
	topic     string
	log       logger.ILogger
}

func NewEventPublisher(publisher message.Publisher, topic string, log logger.ILogger) IEventPublisher {
	return &eventPublisher{
		publisher: publisher,
		topic:     topic,
		log:       log,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, event events.Event) {
	payload, err := events.Marshal(event)
	if err != nil {
		p.log.Error("EVENT", "Failed to marshal domain event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", event.EventType())

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.log.Warn("EVENT", "Failed to publish domain event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

type nopEventPublisher struct{}

// NewNopEventPublisher drops every event.
func NewNopEventPublisher() IEventPublisher {
	return nopEventPublisher{}
}

func (nopEventPublisher) Publish(ctx context.Context, event events.Event) {}
