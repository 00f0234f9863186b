package contract

import (
	"context"
	"time"

	"provider-marketplace-be/internal/entity"

	"github.com/google/uuid"
)

// PaymentSettlement is written to a payment record when its checkout completes.
type PaymentSettlement struct {
	PaidAt               time.Time
	ExpiresAt            time.Time
	StripeCustomerId     *string
	StripeSubscriptionId *string
	StripeEventId        *string
	GatewayPayload       []byte
}

type SubscriptionPaymentRepository interface {
	Create(ctx context.Context, payment *entity.SubscriptionPayment) error
	FindBySessionID(ctx context.Context, sessionId string) (*entity.SubscriptionPayment, error)
	FindAllByProvider(ctx context.Context, providerId uuid.UUID) ([]*entity.SubscriptionPayment, error)

	// MarkPaid flips a pending record to paid. False when no pending record matched.
	MarkPaid(ctx context.Context, sessionId string, settlement PaymentSettlement) (bool, error)

	// CreateIfAbsent inserts unless a record with the same session id exists.
	CreateIfAbsent(ctx context.Context, payment *entity.SubscriptionPayment) (bool, error)
}
