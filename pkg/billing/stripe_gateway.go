package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string

	// PriceId wins over the inline Amount/Currency plan when set.
	PriceId     string
	Amount      int64
	Currency    string
	ProductName string

	SuccessURL string
	CancelURL  string

	HTTPTimeout time.Duration
	// APIURL overrides the Stripe API base URL. Empty means api.stripe.com.
	APIURL string
}

type StripeGateway struct {
	sc  *client.API
	cfg StripeConfig
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.HTTPTimeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
	}

	return &StripeGateway{
		sc:  client.New(cfg.SecretKey, backends),
		cfg: cfg,
	}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.Name),
	}
	params.Context = ctx
	params.AddMetadata(MetadataProviderId, req.ProviderId)

	c, err := g.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", ErrGatewayUnavailable, err)
	}
	return c.ID, nil
}

func (g *StripeGateway) lineItem() *stripe.CheckoutSessionLineItemParams {
	if g.cfg.PriceId != "" {
		return &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(g.cfg.PriceId),
			Quantity: stripe.Int64(1),
		}
	}

	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(strings.ToLower(g.cfg.Currency)),
			UnitAmount: stripe.Int64(g.cfg.Amount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(g.cfg.ProductName),
			},
			Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
			},
		},
		Quantity: stripe.Int64(1),
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(req.CustomerId),
		ClientReferenceID: stripe.String(req.ProviderId),
		LineItems:         []*stripe.CheckoutSessionLineItemParams{g.lineItem()},
		SuccessURL:        stripe.String(g.cfg.SuccessURL),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataProviderId: req.ProviderId},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataProviderId, req.ProviderId)

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrGatewayUnavailable, err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, event.ID)
	}

	res := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Raw:  event.Data.Raw,
	}
	if !res.IsCheckoutCompleted() {
		return res, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	res.SessionId = session.ID
	res.ProviderId = session.Metadata[MetadataProviderId]
	res.AmountTotal = session.AmountTotal
	res.Currency = string(session.Currency)
	if session.Customer != nil {
		res.CustomerId = session.Customer.ID
	}
	if session.Subscription != nil {
		res.SubscriptionId = session.Subscription.ID
	}
	return res, nil
}
