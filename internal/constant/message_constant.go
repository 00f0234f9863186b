package constant

// Messages surfaced to API callers.
const (
	MsgProviderNotFound          = "Provider not found"
	MsgUserNotFound              = "User not found"
	MsgAdminOnly                 = "Access denied: Admins only"
	MsgRejectionReasonRequired   = "Rejection reason is required"
	MsgCannotBlockSelf           = "Admins cannot block their own account"
	MsgAccountBlocked            = "Account is blocked"
	MsgNotOwnProvider            = "Only the provider can perform this action"
	MsgMustBeApproved            = "Provider must be approved by admin before subscribing"
	MsgSubscriptionAlreadyActive = "Subscription already active"
	MsgCheckoutInProgress        = "Checkout already in progress"
	MsgCheckoutFailed            = "Failed to create checkout session"
	MsgSubscriptionExpired       = "Subscription expired"

	MsgMissingSignature  = "Missing Stripe-Signature header"
	MsgInvalidSignature  = "Invalid webhook signature"
	MsgMissingProviderId = "Missing providerId in session metadata"
	MsgInvalidProviderId = "Invalid providerId in session metadata"
	MsgMalformedEvent    = "Malformed webhook event"
)
