package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"provider-marketplace-be/internal/constant"
	"provider-marketplace-be/internal/dto"
	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/pkg/apperror"
	"provider-marketplace-be/internal/pkg/dedup"
	"provider-marketplace-be/internal/pkg/logger"
	"provider-marketplace-be/internal/repository/contract"
	"provider-marketplace-be/internal/repository/unitofwork"
	"provider-marketplace-be/pkg/billing"
	"provider-marketplace-be/pkg/events"

	"github.com/google/uuid"
)

type ISubscriptionService interface {
	CreateCheckoutSession(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.CheckoutSessionResponse, error)
	GetSubscriptionStatus(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.SubscriptionStatusResponse, error)
	HandleWebhookEvent(ctx context.Context, signature string, payload []byte) error
}

type SubscriptionSettings struct {
	// Amount is the monthly price in the currency's minor unit.
	Amount        int64
	Currency      string
	Duration      time.Duration
	CheckoutLease time.Duration
}

type subscriptionService struct {
	uowFactory unitofwork.RepositoryFactory
	gateway    billing.Gateway
	expiry     IExpiryService
	dedup      dedup.Deduplicator
	events     IEventPublisher
	log        logger.ILogger
	settings   SubscriptionSettings
	now        Clock
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	gateway billing.Gateway,
	expiry IExpiryService,
	deduplicator dedup.Deduplicator,
	eventPublisher IEventPublisher,
	log logger.ILogger,
	settings SubscriptionSettings,
	clock Clock,
) ISubscriptionService {
	if settings.Duration <= 0 {
		settings.Duration = 30 * 24 * time.Hour
	}
	if settings.CheckoutLease <= 0 {
		settings.CheckoutLease = time.Minute
	}
	return &subscriptionService{
		uowFactory: uowFactory,
		gateway:    gateway,
		expiry:     expiry,
		dedup:      deduplicator,
		events:     eventPublisher,
		log:        log,
		settings:   settings,
		now:        clockOrDefault(clock),
	}
}

// checkoutRejection reports why provider may not open a checkout at now, or nil.
func checkoutRejection(provider *entity.User, now time.Time) error {
	if provider.IsBlocked {
		return apperror.Forbidden(constant.MsgAccountBlocked)
	}
	if !provider.IsApproved() {
		return apperror.Validation(constant.MsgMustBeApproved)
	}
	if provider.HasLiveSubscription(now) {
		return apperror.Validation(constant.MsgSubscriptionAlreadyActive)
	}
	return nil
}

func (s *subscriptionService) loadProvider(ctx context.Context, repo contract.UserRepository, providerId uuid.UUID) (*entity.User, error) {
	provider, err := repo.FindByID(ctx, providerId)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if provider == nil || !provider.IsProvider() {
		return nil, apperror.NotFound(constant.MsgProviderNotFound)
	}
	return provider, nil
}

func (s *subscriptionService) CreateCheckoutSession(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.CheckoutSessionResponse, error) {
	if actor.Role != entity.UserRoleServiceProvider || actor.UserId != providerId {
		return nil, apperror.Forbidden(constant.MsgNotOwnProvider)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	users := uow.UserRepository()

	provider, err := s.loadProvider(ctx, users, providerId)
	if err != nil {
		return nil, err
	}
	if _, err := s.expiry.EnsureFresh(ctx, provider); err != nil {
		return nil, apperror.Internal(err)
	}

	now := s.now()
	if err := checkoutRejection(provider, now); err != nil {
		return nil, err
	}
	if _, err := entity.NextSubscriptionStatus(provider.SubscriptionStatus, entity.SubscriptionEventCheckoutStarted); err != nil {
		return nil, apperror.Internal(err)
	}

	// The claim re-checks every precondition in the store, so two concurrent
	// calls cannot both reach the gateway.
	claimed, err := users.ClaimCheckout(ctx, providerId, now, now.Add(s.settings.CheckoutLease))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !claimed {
		return nil, s.explainFailedClaim(ctx, users, providerId, now)
	}

	res, err := s.openCheckout(ctx, provider, now)
	if err != nil {
		if relErr := users.ReleaseCheckout(context.WithoutCancel(ctx), providerId); relErr != nil {
			s.log.Error("SUBSCRIPTION", "Failed to release checkout lease", map[string]interface{}{
				"provider_id": providerId,
				"error":       relErr.Error(),
			})
		}
		return nil, err
	}

	s.log.Info("SUBSCRIPTION", "Checkout session created", map[string]interface{}{
		"provider_id": providerId,
		"session_id":  res.SessionId,
	})
	s.events.Publish(ctx, events.NewEvent(constant.EventSubscriptionCheckoutCreated, map[string]interface{}{
		"provider_id": providerId.String(),
		"session_id":  res.SessionId,
	}))

	return res, nil
}

func (s *subscriptionService) explainFailedClaim(ctx context.Context, users contract.UserRepository, providerId uuid.UUID, now time.Time) error {
	current, err := s.loadProvider(ctx, users, providerId)
	if err != nil {
		return err
	}
	if rejection := checkoutRejection(current, now); rejection != nil {
		return rejection
	}
	return apperror.Conflict(constant.MsgCheckoutInProgress)
}

// openCheckout runs the gateway calls and records the pending payment. The
// payment row is only written after the gateway returned a session.
func (s *subscriptionService) openCheckout(ctx context.Context, provider *entity.User, now time.Time) (*dto.CheckoutSessionResponse, error) {
	users := s.uowFactory.NewUnitOfWork(ctx).UserRepository()

	customerId := ""
	if provider.StripeCustomerId != nil {
		customerId = *provider.StripeCustomerId
	} else {
		id, err := s.gateway.CreateCustomer(ctx, billing.CustomerRequest{
			ProviderId: provider.Id.String(),
			Email:      provider.Email,
			Name:       provider.FullName,
		})
		if err != nil {
			s.log.Error("SUBSCRIPTION", "Failed to create billing customer", map[string]interface{}{
				"provider_id": provider.Id,
				"error":       err.Error(),
			})
			return nil, apperror.BadGateway(constant.MsgCheckoutFailed).Wrap(err)
		}
		if err := users.SetStripeCustomerId(ctx, provider.Id, id); err != nil {
			return nil, apperror.Internal(err)
		}
		customerId = id
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		ProviderId: provider.Id.String(),
		CustomerId: customerId,
	})
	if err != nil {
		s.log.Error("SUBSCRIPTION", "Failed to create checkout session", map[string]interface{}{
			"provider_id": provider.Id,
			"error":       err.Error(),
		})
		return nil, apperror.BadGateway(constant.MsgCheckoutFailed).Wrap(err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	payment := &entity.SubscriptionPayment{
		Id:               uuid.New(),
		ProviderId:       provider.Id,
		Amount:           s.settings.Amount,
		Currency:         s.settings.Currency,
		PaymentStatus:    entity.PaymentStatusPending,
		StripeSessionId:  session.ID,
		StripeCustomerId: &customerId,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uow.SubscriptionPaymentRepository().Create(ctx, payment); err != nil {
		return nil, apperror.Internal(fmt.Errorf("record pending payment: %w", err))
	}
	if err := uow.UserRepository().MarkCheckoutStarted(ctx, provider.Id, now); err != nil {
		return nil, apperror.Internal(fmt.Errorf("mark checkout started: %w", err))
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err)
	}

	return &dto.CheckoutSessionResponse{
		CheckoutUrl: session.URL,
		SessionId:   session.ID,
	}, nil
}

func (s *subscriptionService) GetSubscriptionStatus(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	if !actor.IsAdmin() && actor.UserId != providerId {
		return nil, apperror.Forbidden(constant.MsgNotOwnProvider)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	provider, err := s.loadProvider(ctx, uow.UserRepository(), providerId)
	if err != nil {
		return nil, err
	}
	if _, err := s.expiry.EnsureFresh(ctx, provider); err != nil {
		return nil, apperror.Internal(err)
	}

	res := &dto.SubscriptionStatusResponse{
		Status:    string(provider.SubscriptionStatus),
		StartDate: provider.SubscriptionStartDate,
		EndDate:   provider.SubscriptionEndDate,
	}
	if provider.SubscriptionStatus == entity.SubscriptionStatusExpired {
		res.Message = constant.MsgSubscriptionExpired
	}
	return res, nil
}

func (s *subscriptionService) HandleWebhookEvent(ctx context.Context, signature string, payload []byte) error {
	if signature == "" {
		return apperror.BadRequest(constant.MsgMissingSignature)
	}

	ev, err := s.gateway.ParseWebhook(ctx, payload, signature)
	if err != nil {
		s.log.Warn("WEBHOOK", "Rejected webhook", map[string]interface{}{
			"error": err.Error(),
		})
		return apperror.BadRequest(constant.MsgInvalidSignature).Wrap(err)
	}

	if !ev.IsCheckoutCompleted() {
		s.log.Debug("WEBHOOK", "Ignoring event type", map[string]interface{}{
			"event_id": ev.ID,
			"type":     ev.Type,
		})
		return nil
	}

	if ev.ProviderId == "" {
		return apperror.BadRequest(constant.MsgMissingProviderId)
	}
	providerId, err := uuid.Parse(ev.ProviderId)
	if err != nil {
		return apperror.BadRequest(constant.MsgInvalidProviderId)
	}
	if ev.SessionId == "" {
		return apperror.BadRequest(constant.MsgMalformedEvent).Wrap(billing.ErrMalformedEvent)
	}

	if s.alreadyProcessed(ctx, ev.ID) {
		s.log.Info("WEBHOOK", "Duplicate event delivery skipped", map[string]interface{}{
			"event_id":   ev.ID,
			"session_id": ev.SessionId,
		})
		return nil
	}

	if err := s.settleCheckout(ctx, ev, providerId); err != nil {
		s.log.Error("WEBHOOK", "Failed to apply checkout completion", map[string]interface{}{
			"event_id":   ev.ID,
			"session_id": ev.SessionId,
			"error":      err.Error(),
		})
		return apperror.Internal(err)
	}

	s.rememberEvent(ctx, ev.ID)
	return nil
}

// alreadyProcessed is best effort; a broken deduplicator lets the event through.
func (s *subscriptionService) alreadyProcessed(ctx context.Context, eventId string) bool {
	if s.dedup == nil || eventId == "" {
		return false
	}
	seen, err := s.dedup.Seen(ctx, eventId)
	if err != nil {
		s.log.Warn("WEBHOOK", "Event deduplication unavailable", map[string]interface{}{
			"event_id": eventId,
			"error":    err.Error(),
		})
		return false
	}
	return seen
}

func (s *subscriptionService) rememberEvent(ctx context.Context, eventId string) {
	if s.dedup == nil || eventId == "" {
		return
	}
	if err := s.dedup.Remember(context.WithoutCancel(ctx), eventId); err != nil {
		s.log.Warn("WEBHOOK", "Failed to remember processed event", map[string]interface{}{
			"event_id": eventId,
			"error":    err.Error(),
		})
	}
}

var errNoSettlement = errors.New("payment already settled")

// settleCheckout marks the session's payment paid and activates the provider.
// Only the call that moves the payment out of pending activates.
func (s *subscriptionService) settleCheckout(ctx context.Context, ev *billing.WebhookEvent, providerId uuid.UUID) error {
	now := s.now()
	expiresAt := now.Add(s.settings.Duration)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	payments := uow.SubscriptionPaymentRepository()

	won, providerId, err := s.markSessionPaid(ctx, payments, ev, providerId, now, expiresAt)
	if errors.Is(err, errNoSettlement) {
		s.log.Info("WEBHOOK", "Checkout session already settled", map[string]interface{}{
			"event_id":   ev.ID,
			"session_id": ev.SessionId,
		})
		return uow.Commit()
	}
	if err != nil {
		return err
	}
	if !won {
		return uow.Commit()
	}

	activated, err := uow.UserRepository().ActivateSubscription(ctx, entity.SubscriptionActivation{
		ProviderId:           providerId,
		StartDate:            now,
		EndDate:              expiresAt,
		StripeCustomerId:     nonEmpty(ev.CustomerId),
		StripeSubscriptionId: nonEmpty(ev.SubscriptionId),
	})
	if err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if !activated {
		s.log.Warn("WEBHOOK", "Payment recorded but provider is not eligible for activation", map[string]interface{}{
			"provider_id": providerId,
			"session_id":  ev.SessionId,
		})
		return nil
	}

	s.log.Info("WEBHOOK", "Subscription activated", map[string]interface{}{
		"provider_id": providerId,
		"session_id":  ev.SessionId,
		"end_date":    expiresAt,
	})
	s.events.Publish(ctx, events.NewEvent(constant.EventSubscriptionActivated, map[string]interface{}{
		"provider_id": providerId.String(),
		"session_id":  ev.SessionId,
		"start_date":  now,
		"end_date":    expiresAt,
	}))
	return nil
}

// markSessionPaid returns true when this call moved the session's payment to
// paid, along with the provider the payment belongs to.
func (s *subscriptionService) markSessionPaid(
	ctx context.Context,
	payments contract.SubscriptionPaymentRepository,
	ev *billing.WebhookEvent,
	providerId uuid.UUID,
	now, expiresAt time.Time,
) (bool, uuid.UUID, error) {
	settlement := contract.PaymentSettlement{
		PaidAt:               now,
		ExpiresAt:            expiresAt,
		StripeCustomerId:     nonEmpty(ev.CustomerId),
		StripeSubscriptionId: nonEmpty(ev.SubscriptionId),
		StripeEventId:        nonEmpty(ev.ID),
		GatewayPayload:       ev.Raw,
	}

	existing, err := payments.FindBySessionID(ctx, ev.SessionId)
	if err != nil {
		return false, providerId, fmt.Errorf("find payment: %w", err)
	}

	if existing != nil {
		if existing.ProviderId != providerId {
			s.log.Warn("WEBHOOK", "Session metadata disagrees with payment record", map[string]interface{}{
				"session_id":       ev.SessionId,
				"metadata_id":      providerId,
				"payment_provider": existing.ProviderId,
			})
			providerId = existing.ProviderId
		}
		if existing.PaymentStatus != entity.PaymentStatusPending {
			return false, providerId, errNoSettlement
		}
		won, err := payments.MarkPaid(ctx, ev.SessionId, settlement)
		if err != nil {
			return false, providerId, fmt.Errorf("mark payment paid: %w", err)
		}
		return won, providerId, nil
	}

	// No pending row: the checkout write was lost after the gateway created
	// the session. Record the payment from the event itself.
	amount := ev.AmountTotal
	if amount == 0 {
		amount = s.settings.Amount
	}
	currency := ev.Currency
	if currency == "" {
		currency = s.settings.Currency
	}
	paidAt, exp := now, expiresAt
	inserted, err := payments.CreateIfAbsent(ctx, &entity.SubscriptionPayment{
		Id:                   uuid.New(),
		ProviderId:           providerId,
		Amount:               amount,
		Currency:             currency,
		PaymentStatus:        entity.PaymentStatusPaid,
		StripeSessionId:      ev.SessionId,
		StripeCustomerId:     settlement.StripeCustomerId,
		StripeSubscriptionId: settlement.StripeSubscriptionId,
		StripeEventId:        settlement.StripeEventId,
		GatewayPayload:       ev.Raw,
		PaidAt:               &paidAt,
		ExpiresAt:            &exp,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		return false, providerId, fmt.Errorf("record payment from event: %w", err)
	}
	if inserted {
		s.log.Warn("WEBHOOK", "No pending payment for session, recorded from event", map[string]interface{}{
			"session_id":  ev.SessionId,
			"provider_id": providerId,
		})
		return true, providerId, nil
	}

	// A pending row appeared concurrently.
	won, err := payments.MarkPaid(ctx, ev.SessionId, settlement)
	if err != nil {
		return false, providerId, fmt.Errorf("mark payment paid: %w", err)
	}
	return won, providerId, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
