// FILE: internal/entity/subscription_entity.go
package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEnumValue  = errors.New("invalid enum value")
	ErrInvalidTransition = errors.New("invalid subscription transition")
)

// SubscriptionEvent drives the subscription state machine.
type SubscriptionEvent string

const (
	SubscriptionEventApproved          SubscriptionEvent = "approved"
	SubscriptionEventCheckoutStarted   SubscriptionEvent = "checkout_started"
	SubscriptionEventCheckoutCompleted SubscriptionEvent = "checkout_completed"
	SubscriptionEventPeriodElapsed     SubscriptionEvent = "period_elapsed"
)

// NextSubscriptionStatus returns the status reached from `from` on `event`.
func NextSubscriptionStatus(from SubscriptionStatus, event SubscriptionEvent) (SubscriptionStatus, error) {
	if !from.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, from)
	}

	switch event {
	case SubscriptionEventApproved:
		// An approval always re-opens the funnel, whatever the previous standing.
		return SubscriptionStatusApprovedButUnsubscribed, nil

	case SubscriptionEventCheckoutStarted:
		switch from {
		case SubscriptionStatusApprovedButUnsubscribed, SubscriptionStatusExpired:
			return SubscriptionStatusApprovedButUnsubscribed, nil
		case SubscriptionStatusPendingApproval, SubscriptionStatusActive:
		}

	case SubscriptionEventCheckoutCompleted:
		switch from {
		case SubscriptionStatusApprovedButUnsubscribed, SubscriptionStatusExpired, SubscriptionStatusActive:
			return SubscriptionStatusActive, nil
		case SubscriptionStatusPendingApproval:
		}

	case SubscriptionEventPeriodElapsed:
		switch from {
		case SubscriptionStatusActive:
			return SubscriptionStatusExpired, nil
		case SubscriptionStatusPendingApproval, SubscriptionStatusApprovedButUnsubscribed, SubscriptionStatusExpired:
		}
	}

	return "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
}

// IsSubscriptionStale reports an ACTIVE subscription whose end date has passed.
// A missing end date on an ACTIVE record is treated as stale.
func (u *User) IsSubscriptionStale(now time.Time) bool {
	if u.SubscriptionStatus != SubscriptionStatusActive {
		return false
	}
	return u.SubscriptionEndDate == nil || !u.SubscriptionEndDate.After(now)
}

// DemoteIfExpired moves a stale ACTIVE subscription to EXPIRED. Dates are kept.
func (u *User) DemoteIfExpired(now time.Time) bool {
	if !u.IsSubscriptionStale(now) {
		return false
	}
	next, err := NextSubscriptionStatus(u.SubscriptionStatus, SubscriptionEventPeriodElapsed)
	if err != nil {
		return false
	}
	u.SubscriptionStatus = next
	u.UpdatedAt = now
	return true
}

// DemoteExpired applies DemoteIfExpired to every user and returns the ones it changed.
func DemoteExpired(users []*User, now time.Time) []*User {
	var demoted []*User
	for _, u := range users {
		if u != nil && u.DemoteIfExpired(now) {
			demoted = append(demoted, u)
		}
	}
	return demoted
}

type SubscriptionPayment struct {
	Id                   uuid.UUID
	ProviderId           uuid.UUID
	Amount               int64
	Currency             string
	PaymentStatus        PaymentStatus
	StripeSessionId      string
	StripeCustomerId     *string
	StripeSubscriptionId *string
	StripeEventId        *string
	GatewayPayload       []byte
	PaidAt               *time.Time
	ExpiresAt            *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SubscriptionActivation carries what a completed checkout writes to the provider.
type SubscriptionActivation struct {
	ProviderId           uuid.UUID
	StartDate            time.Time
	EndDate              time.Time
	StripeCustomerId     *string
	StripeSubscriptionId *string
}
