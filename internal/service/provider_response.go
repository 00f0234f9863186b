package service

import (
	"provider-marketplace-be/internal/dto"
	"provider-marketplace-be/internal/entity"
)

func toProviderResponse(u *entity.User) *dto.ProviderResponse {
	return &dto.ProviderResponse{
		Id:                    u.Id,
		Email:                 u.Email,
		FullName:              u.FullName,
		Role:                  string(u.Role),
		IsBlocked:             u.IsBlocked,
		VerificationStatus:    string(u.VerificationStatus),
		IsVerified:            u.IsVerified,
		VerificationReason:    u.VerificationReason,
		SubscriptionStatus:    string(u.SubscriptionStatus),
		SubscriptionStartDate: u.SubscriptionStartDate,
		SubscriptionEndDate:   u.SubscriptionEndDate,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func toProviderResponses(users []*entity.User) []*dto.ProviderResponse {
	res := make([]*dto.ProviderResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toProviderResponse(u))
	}
	return res
}

func toPublicProviderResponse(u *entity.User) *dto.PublicProviderResponse {
	return &dto.PublicProviderResponse{
		Id:                  u.Id,
		FullName:            u.FullName,
		SubscriptionEndDate: u.SubscriptionEndDate,
	}
}
