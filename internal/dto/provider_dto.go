package dto

import (
	"time"

	"github.com/google/uuid"
)

type ProviderResponse struct {
	Id                    uuid.UUID  `json:"id"`
	Email                 string     `json:"email"`
	FullName              string     `json:"fullName"`
	Role                  string     `json:"role"`
	IsBlocked             bool       `json:"isBlocked"`
	VerificationStatus    string     `json:"verificationStatus"`
	IsVerified            bool       `json:"isVerified"`
	VerificationReason    *string    `json:"verificationReason,omitempty"`
	SubscriptionStatus    string     `json:"subscriptionStatus"`
	SubscriptionStartDate *time.Time `json:"subscriptionStartDate"`
	SubscriptionEndDate   *time.Time `json:"subscriptionEndDate"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// PublicProviderResponse is what anonymous visitors of the directory see.
type PublicProviderResponse struct {
	Id                  uuid.UUID  `json:"id"`
	FullName            string     `json:"fullName"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate"`
}

type UserBlockResponse struct {
	Id        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsBlocked bool      `json:"isBlocked"`
}

type RejectProviderRequest struct {
	// Emptiness is checked by the service after trimming.
	Reason string `json:"reason" validate:"max=1000"`
}

type SetBlockedRequest struct {
	IsBlocked *bool `json:"isBlocked" validate:"required"`
}

type ProviderListRequest struct {
	VerificationStatus string `query:"verificationStatus" validate:"omitempty,oneof=pending approved rejected"`
	Search             string `query:"search" validate:"max=100"`
	Page               int    `query:"page" validate:"min=0"`
	Limit              int    `query:"limit" validate:"min=0,max=100"`
}

// Offset converts 1-based page numbers; page 0 is treated as 1.
func (r ProviderListRequest) Offset() int {
	if r.Page <= 1 || r.Limit <= 0 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

type ProviderListResponse struct {
	Items []*ProviderResponse `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

type PublicProviderListResponse struct {
	Items []*PublicProviderResponse `json:"items"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}
