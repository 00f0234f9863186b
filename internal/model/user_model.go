package model

import (
	"time"

	"provider-marketplace-be/internal/entity"

	"github.com/google/uuid"
)

type User struct {
	Id       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email    string          `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName string          `gorm:"type:varchar(255);not null"`
	Role     entity.UserRole `gorm:"type:varchar(50);not null;default:'user';index"`

	IsBlocked bool `gorm:"not null;default:false"`

	VerificationStatus entity.VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	IsVerified         bool                      `gorm:"not null;default:false"`
	VerificationReason *string                   `gorm:"type:text"`

	SubscriptionStatus    entity.SubscriptionStatus `gorm:"type:varchar(40);not null;default:'PENDING_APPROVAL';index:idx_users_subscription_expiry,priority:1"`
	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time `gorm:"index:idx_users_subscription_expiry,priority:2"`

	StripeCustomerId     *string `gorm:"type:varchar(255)"`
	StripeSubscriptionId *string `gorm:"type:varchar(255)"`

	CheckoutLockedUntil *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
