package specification

import (
	"time"

	"provider-marketplace-be/internal/entity"

	"gorm.io/gorm"
)

type ByRole struct {
	Role entity.UserRole
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

type ProvidersOnly struct{}

func (s ProvidersOnly) Apply(db *gorm.DB) *gorm.DB {
	return ByRole{Role: entity.UserRoleServiceProvider}.Apply(db)
}

type ByVerificationStatus struct {
	Status entity.VerificationStatus
}

func (s ByVerificationStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("verification_status = ?", s.Status)
}

// ListableAt mirrors entity.User.IsListable.
type ListableAt struct {
	Now time.Time
}

func (s ListableAt) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Where("role = ?", entity.UserRoleServiceProvider).
		Where("is_blocked = ?", false).
		Where("verification_status = ? AND is_verified = ?", entity.VerificationStatusApproved, true).
		Where("subscription_status = ?", entity.SubscriptionStatusActive).
		Where("subscription_end_date > ?", s.Now)
}

// StaleSubscription mirrors entity.User.IsSubscriptionStale.
type StaleSubscription struct {
	Now time.Time
}

func (s StaleSubscription) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Where("subscription_status = ?", entity.SubscriptionStatusActive).
		Where("(subscription_end_date IS NULL OR subscription_end_date <= ?)", s.Now)
}

// CheckoutClaimable selects a provider allowed to open a new checkout at Now.
type CheckoutClaimable struct {
	Now time.Time
}

func (s CheckoutClaimable) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Where("role = ?", entity.UserRoleServiceProvider).
		Where("is_blocked = ?", false).
		Where("verification_status = ? AND is_verified = ?", entity.VerificationStatusApproved, true).
		Scopes(NotLiveSubscription{Now: s.Now}.Apply).
		Where("(checkout_locked_until IS NULL OR checkout_locked_until <= ?)", s.Now)
}

// NotLiveSubscription excludes ACTIVE subscriptions ending after Now.
type NotLiveSubscription struct {
	Now time.Time
}

func (s NotLiveSubscription) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"NOT (subscription_status = ? AND subscription_end_date IS NOT NULL AND subscription_end_date > ?)",
		entity.SubscriptionStatusActive, s.Now,
	)
}

// ActivatableProvider guards the ACTIVE transition.
type ActivatableProvider struct{}

func (s ActivatableProvider) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Where("role = ?", entity.UserRoleServiceProvider).
		Where("verification_status = ? AND is_verified = ?", entity.VerificationStatusApproved, true)
}
