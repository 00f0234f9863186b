// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id       uuid.UUID
	Email    string
	FullName string
	Role     UserRole

	// Administrative kill switch, independent of verification and subscription.
	IsBlocked bool

	VerificationStatus VerificationStatus
	IsVerified         bool
	VerificationReason *string

	SubscriptionStatus    SubscriptionStatus
	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time

	StripeCustomerId     *string
	StripeSubscriptionId *string

	// Lease held while a checkout session is being created for this provider.
	CheckoutLockedUntil *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProvider builds a provider with signup defaults.
func NewProvider(email, fullName string) *User {
	now := time.Now()
	return &User{
		Id:                 uuid.New(),
		Email:              email,
		FullName:           fullName,
		Role:               UserRoleServiceProvider,
		VerificationStatus: VerificationStatusPending,
		SubscriptionStatus: SubscriptionStatusPendingApproval,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (u *User) IsProvider() bool {
	return u.Role == UserRoleServiceProvider
}

func (u *User) IsApproved() bool {
	return u.VerificationStatus == VerificationStatusApproved && u.IsVerified
}

// HasLiveSubscription reports ACTIVE with an end date strictly after now.
func (u *User) HasLiveSubscription(now time.Time) bool {
	return u.SubscriptionStatus == SubscriptionStatusActive &&
		u.SubscriptionEndDate != nil &&
		u.SubscriptionEndDate.After(now)
}

// IsListable is the public visibility rule. It must be evaluated at read time.
func (u *User) IsListable(now time.Time) bool {
	return u.IsProvider() && !u.IsBlocked && u.IsApproved() && u.HasLiveSubscription(now)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserId uuid.UUID
	Role   UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}
