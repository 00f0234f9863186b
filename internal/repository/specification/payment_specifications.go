package specification

import (
	"provider-marketplace-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stripe_session_id = ?", s.SessionID)
}

type ByProviderID struct {
	ProviderID uuid.UUID
}

func (s ByProviderID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("provider_id = ?", s.ProviderID)
}

type ByPaymentStatus struct {
	Status entity.PaymentStatus
}

func (s ByPaymentStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("payment_status = ?", s.Status)
}
