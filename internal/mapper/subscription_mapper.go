package mapper

import (
	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/model"

	"gorm.io/datatypes"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) PaymentToEntity(p *model.SubscriptionPayment) *entity.SubscriptionPayment {
	if p == nil {
		return nil
	}
	return &entity.SubscriptionPayment{
		Id:                   p.Id,
		ProviderId:           p.ProviderId,
		Amount:               p.Amount,
		Currency:             p.Currency,
		PaymentStatus:        p.PaymentStatus,
		StripeSessionId:      p.StripeSessionId,
		StripeCustomerId:     p.StripeCustomerId,
		StripeSubscriptionId: p.StripeSubscriptionId,
		StripeEventId:        p.StripeEventId,
		GatewayPayload:       []byte(p.GatewayPayload),
		PaidAt:               p.PaidAt,
		ExpiresAt:            p.ExpiresAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) PaymentToModel(p *entity.SubscriptionPayment) *model.SubscriptionPayment {
	if p == nil {
		return nil
	}
	var payload datatypes.JSON
	if len(p.GatewayPayload) > 0 {
		payload = datatypes.JSON(p.GatewayPayload)
	}
	return &model.SubscriptionPayment{
		Id:                   p.Id,
		ProviderId:           p.ProviderId,
		Amount:               p.Amount,
		Currency:             p.Currency,
		PaymentStatus:        p.PaymentStatus,
		StripeSessionId:      p.StripeSessionId,
		StripeCustomerId:     p.StripeCustomerId,
		StripeSubscriptionId: p.StripeSubscriptionId,
		StripeEventId:        p.StripeEventId,
		GatewayPayload:       payload,
		PaidAt:               p.PaidAt,
		ExpiresAt:            p.ExpiresAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
