package dto

import "time"

type CheckoutSessionResponse struct {
	CheckoutUrl string `json:"checkoutUrl"`
	SessionId   string `json:"sessionId"`
}

type SubscriptionStatusResponse struct {
	Status    string     `json:"status"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Message   string     `json:"message,omitempty"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}
