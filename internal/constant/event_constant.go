package constant

// Domain event codes published on every verification or subscription change.
const (
	EventProviderApproved      = "PROVIDER_APPROVED"
	EventProviderRejected      = "PROVIDER_REJECTED"
	EventProviderBlocked       = "PROVIDER_BLOCKED"
	EventProviderUnblocked     = "PROVIDER_UNBLOCKED"
	EventUserBlocked           = "USER_BLOCKED"
	EventUserUnblocked         = "USER_UNBLOCKED"
	EventVerificationReapplied = "VERIFICATION_REAPPLIED"

	EventSubscriptionCheckoutCreated = "SUBSCRIPTION_CHECKOUT_CREATED"
	EventSubscriptionActivated       = "SUBSCRIPTION_ACTIVATED"
	EventSubscriptionExpired         = "SUBSCRIPTION_EXPIRED"
)
