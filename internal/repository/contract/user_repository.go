package contract

import (
	"context"
	"time"

	"provider-marketplace-be/internal/entity"

	"github.com/google/uuid"
)

// ProviderFilter narrows provider queries. Zero values mean "no constraint".
type ProviderFilter struct {
	VerificationStatus entity.VerificationStatus
	ListableAt         *time.Time
	Search             string
	Limit              int
	Offset             int
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindProviders(ctx context.Context, filter ProviderFilter) ([]*entity.User, error)
	CountProviders(ctx context.Context, filter ProviderFilter) (int64, error)

	// Expiry: conditional ACTIVE -> EXPIRED updates for end dates <= now.
	ExpireStaleSubscriptions(ctx context.Context, now time.Time) (int64, error)
	ExpireStaleSubscription(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// Checkout: ClaimCheckout takes the lease only when the provider may subscribe at now.
	ClaimCheckout(ctx context.Context, id uuid.UUID, now, lockedUntil time.Time) (bool, error)
	ReleaseCheckout(ctx context.Context, id uuid.UUID) error
	MarkCheckoutStarted(ctx context.Context, id uuid.UUID, now time.Time) error
	SetStripeCustomerId(ctx context.Context, id uuid.UUID, customerId string) error

	// ActivateSubscription applies only to an approved, verified provider.
	ActivateSubscription(ctx context.Context, activation entity.SubscriptionActivation) (bool, error)
}
