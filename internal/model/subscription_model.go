package model

import (
	"time"

	"provider-marketplace-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubscriptionPayment struct {
	Id                   uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProviderId           uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount               int64                `gorm:"not null"`
	Currency             string               `gorm:"type:varchar(3);not null;default:'usd'"`
	PaymentStatus        entity.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	StripeSessionId      string               `gorm:"type:varchar(255);uniqueIndex;not null"`
	StripeCustomerId     *string              `gorm:"type:varchar(255)"`
	StripeSubscriptionId *string              `gorm:"type:varchar(255)"`
	StripeEventId        *string              `gorm:"type:varchar(255)"`
	GatewayPayload       datatypes.JSON
	PaidAt               *time.Time
	ExpiresAt            *time.Time
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`

	Provider *User `gorm:"foreignKey:ProviderId;constraint:OnDelete:RESTRICT"`
}

func (SubscriptionPayment) TableName() string {
	return "subscription_payments"
}
