package mapper

import (
	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:                    u.Id,
		Email:                 u.Email,
		FullName:              u.FullName,
		Role:                  u.Role,
		IsBlocked:             u.IsBlocked,
		VerificationStatus:    u.VerificationStatus,
		IsVerified:            u.IsVerified,
		VerificationReason:    u.VerificationReason,
		SubscriptionStatus:    u.SubscriptionStatus,
		SubscriptionStartDate: u.SubscriptionStartDate,
		SubscriptionEndDate:   u.SubscriptionEndDate,
		StripeCustomerId:      u.StripeCustomerId,
		StripeSubscriptionId:  u.StripeSubscriptionId,
		CheckoutLockedUntil:   u.CheckoutLockedUntil,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:                    u.Id,
		Email:                 u.Email,
		FullName:              u.FullName,
		Role:                  u.Role,
		IsBlocked:             u.IsBlocked,
		VerificationStatus:    u.VerificationStatus,
		IsVerified:            u.IsVerified,
		VerificationReason:    u.VerificationReason,
		SubscriptionStatus:    u.SubscriptionStatus,
		SubscriptionStartDate: u.SubscriptionStartDate,
		SubscriptionEndDate:   u.SubscriptionEndDate,
		StripeCustomerId:      u.StripeCustomerId,
		StripeSubscriptionId:  u.StripeSubscriptionId,
		CheckoutLockedUntil:   u.CheckoutLockedUntil,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func (m *UserMapper) ToEntities(models []*model.User) []*entity.User {
	entities := make([]*entity.User, 0, len(models))
	for _, u := range models {
		entities = append(entities, m.ToEntity(u))
	}
	return entities
}
