// Package billing talks to the payment processor. Callers depend on Gateway so
// the processor can be swapped for a fake in tests.
package billing

import (
	"context"
	"errors"
)

var (
	ErrInvalidSignature   = errors.New("billing: invalid webhook signature")
	ErrMalformedEvent     = errors.New("billing: malformed webhook event")
	ErrGatewayUnavailable = errors.New("billing: gateway request failed")
)

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"

	// MetadataProviderId is the session metadata key carrying the provider id.
	MetadataProviderId = "providerId"
)

type Gateway interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook verifies signature over the exact payload bytes before decoding.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type CustomerRequest struct {
	ProviderId string
	Email      string
	Name       string
}

type CheckoutRequest struct {
	ProviderId string
	CustomerId string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is the processor event reduced to what the subscription flow reads.
// Session fields are only populated for checkout session events.
type WebhookEvent struct {
	ID   string
	Type string

	SessionId      string
	ProviderId     string
	CustomerId     string
	SubscriptionId string
	AmountTotal    int64
	Currency       string

	// Raw is the event's data object as sent by the processor.
	Raw []byte
}

func (e *WebhookEvent) IsCheckoutCompleted() bool {
	return e.Type == EventCheckoutSessionCompleted
}
