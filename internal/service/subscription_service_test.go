package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"provider-marketplace-be/internal/constant"
	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/pkg/dedup"
	"provider-marketplace-be/internal/pkg/logger"
	"provider-marketplace-be/internal/repository/memory"
	"provider-marketplace-be/pkg/billing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) expectCheckout(providerId uuid.UUID, customerId, sessionId string) {
	e.gateway.On("CreateCheckoutSession", mock.Anything, billing.CheckoutRequest{
		ProviderId: providerId.String(),
		CustomerId: customerId,
	}).Return(&billing.CheckoutSession{
		ID:  sessionId,
		URL: "https://checkout.stripe.test/" + sessionId,
	}, nil).Once()
}

func (e *testEnv) expectWebhook(signature string, ev *billing.WebhookEvent) {
	e.gateway.On("ParseWebhook", mock.Anything, mock.Anything, signature).Return(ev, nil)
}

func completedEvent(eventId, sessionId string, providerId uuid.UUID) *billing.WebhookEvent {
	return &billing.WebhookEvent{
		ID:             eventId,
		Type:           billing.EventCheckoutSessionCompleted,
		SessionId:      sessionId,
		ProviderId:     providerId.String(),
		CustomerId:     "cus_" + providerId.String()[:8],
		SubscriptionId: "sub_" + sessionId,
		AmountTotal:    2900,
		Currency:       "usd",
		Raw:            []byte(`{"id":"` + sessionId + `"}`),
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	ctx := context.Background()

	t.Run("approved provider gets a session and a pending payment", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addApprovedProvider(t)

		env.gateway.On("CreateCustomer", mock.Anything, billing.CustomerRequest{
			ProviderId: p.Id.String(),
			Email:      p.Email,
			Name:       p.FullName,
		}).Return("cus_new", nil).Once()
		env.expectCheckout(p.Id, "cus_new", "cs_1")

		res, err := env.subscription.CreateCheckoutSession(ctx, providerActor(p), p.Id)
		require.NoError(t, err)
		assert.Equal(t, "cs_1", res.SessionId)
		assert.Equal(t, "https://checkout.stripe.test/cs_1", res.CheckoutUrl)

		payment := env.payment(t, "cs_1")
		require.NotNil(t, payment)
		assert.Equal(t, entity.PaymentStatusPending, payment.PaymentStatus)
		assert.Equal(t, p.Id, payment.ProviderId)
		assert.Equal(t, int64(2900), payment.Amount)
		assert.Equal(t, "usd", payment.Currency)
		assert.Nil(t, payment.PaidAt)

		stored := env.reload(t, p.Id)
		require.NotNil(t, stored.StripeCustomerId)
		assert.Equal(t, "cus_new", *stored.StripeCustomerId)
		assert.Nil(t, stored.CheckoutLockedUntil)
		assert.Equal(t, entity.SubscriptionStatusApprovedButUnsubscribed, stored.SubscriptionStatus)
		assert.Equal(t, []string{constant.EventSubscriptionCheckoutCreated}, env.events.types())
	})

	t.Run("cached customer is reused", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addProvider(t, func(u *entity.User) {
			approved(u)
			cus := "cus_cached"
			u.StripeCustomerId = &cus
		})
		env.expectCheckout(p.Id, "cus_cached", "cs_2")

		_, err := env.subscription.CreateCheckoutSession(ctx, providerActor(p), p.Id)
		require.NoError(t, err)
		env.gateway.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("expired provider may renew", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addActiveProvider(t, env.now.Add(-time.Hour))
		env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return("cus_x", nil).Once()
		env.expectCheckout(p.Id, "cus_x", "cs_renew")

		_, err := env.subscription.CreateCheckoutSession(ctx, providerActor(p), p.Id)
		require.NoError(t, err)
		assert.Equal(t, entity.SubscriptionStatusApprovedButUnsubscribed, env.reload(t, p.Id).SubscriptionStatus)
		assert.Equal(t, 1, env.events.count(constant.EventSubscriptionExpired))
	})

	t.Run("gate order: blocked, then approval, then live subscription", func(t *testing.T) {
		env := newTestEnv(t)

		blockedPending := env.addProvider(t, func(u *entity.User) { u.IsBlocked = true })
		_, err := env.subscription.CreateCheckoutSession(ctx, providerActor(blockedPending), blockedPending.Id)
		requireAppError(t, err, http.StatusForbidden, constant.MsgAccountBlocked)

		pending := env.addProvider(t, nil)
		_, err = env.subscription.CreateCheckoutSession(ctx, providerActor(pending), pending.Id)
		requireAppError(t, err, http.StatusBadRequest, constant.MsgMustBeApproved)

		active := env.addActiveProvider(t, env.now.Add(24*time.Hour))
		_, err = env.subscription.CreateCheckoutSession(ctx, providerActor(active), active.Id)
		requireAppError(t, err, http.StatusBadRequest, constant.MsgSubscriptionAlreadyActive)

		payments, err := memory.NewSubscriptionPaymentRepository(env.store).FindAllByProvider(ctx, active.Id)
		require.NoError(t, err)
		assert.Empty(t, payments)
		env.gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("someone else's provider id is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addApprovedProvider(t)
		other := env.addApprovedProvider(t)

		_, err := env.subscription.CreateCheckoutSession(ctx, providerActor(other), p.Id)
		requireAppError(t, err, http.StatusForbidden, constant.MsgNotOwnProvider)
	})

	t.Run("live lease is a conflict until it lapses", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addProvider(t, func(u *entity.User) {
			approved(u)
			lock := env.now.Add(30 * time.Second)
			cus := "cus_lease"
			u.CheckoutLockedUntil = &lock
			u.StripeCustomerId = &cus
		})

		_, err := env.subscription.CreateCheckoutSession(ctx, providerActor(p), p.Id)
		requireAppError(t, err, http.StatusConflict, constant.MsgCheckoutInProgress)

		env.advance(31 * time.Second)
		env.expectCheckout(p.Id, "cus_lease", "cs_after_lease")
		_, err = env.subscription.CreateCheckoutSession(ctx, providerActor(p), p.Id)
		require.NoError(t, err)
	})

	t.Run("gateway failure releases the lease and writes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addProvider(t, func(u *entity.User) {
			approved(u)
			cus := "cus_down"
			u.StripeCustomerId = &cus
		})
		env.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(nil, billing.ErrGatewayUnavailable).Once()

		_, err := env.subscription.CreateCheckoutSession(ctx, providerActor(p), p.Id)
		requireAppError(t, err, http.StatusBadGateway, constant.MsgCheckoutFailed)
		assert.ErrorIs(t, err, billing.ErrGatewayUnavailable)

		stored := env.reload(t, p.Id)
		assert.Nil(t, stored.CheckoutLockedUntil)
		payments, err := memory.NewSubscriptionPaymentRepository(env.store).FindAllByProvider(ctx, p.Id)
		require.NoError(t, err)
		assert.Empty(t, payments)
		assert.Empty(t, env.events.types())
	})

	t.Run("concurrent requests open one session", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addProvider(t, func(u *entity.User) {
			approved(u)
			cus := "cus_race"
			u.StripeCustomerId = &cus
		})

		release := make(chan time.Time)
		env.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			WaitUntil(release).
			Return(&billing.CheckoutSession{ID: "cs_race", URL: "https://checkout.stripe.test/cs_race"}, nil).
			Once()

		const callers = 5
		results := make(chan error, callers)
		for i := 0; i < callers; i++ {
			go func() {
				_, err := env.subscription.CreateCheckoutSession(ctx, providerActor(p), p.Id)
				results <- err
			}()
		}

		for i := 0; i < callers-1; i++ {
			err := <-results
			requireAppError(t, err, http.StatusConflict, constant.MsgCheckoutInProgress)
		}
		close(release)
		require.NoError(t, <-results)
		env.gateway.AssertNumberOfCalls(t, "CreateCheckoutSession", 1)
	})
}

func TestHandleWebhookEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("checkout completion activates the provider", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addProvider(t, func(u *entity.User) {
			approved(u)
			cus := "cus_a"
			u.StripeCustomerId = &cus
		})
		env.expectCheckout(p.Id, "cus_a", "cs_a")
		_, err := env.subscription.CreateCheckoutSession(ctx, providerActor(p), p.Id)
		require.NoError(t, err)

		env.advance(5 * time.Minute)
		ev := completedEvent("evt_a", "cs_a", p.Id)
		env.expectWebhook("sig", ev)

		require.NoError(t, env.subscription.HandleWebhookEvent(ctx, "sig", []byte("{}")))

		stored := env.reload(t, p.Id)
		assert.Equal(t, entity.SubscriptionStatusActive, stored.SubscriptionStatus)
		require.NotNil(t, stored.SubscriptionStartDate)
		require.NotNil(t, stored.SubscriptionEndDate)
		assert.True(t, env.now.Equal(*stored.SubscriptionStartDate))
		assert.True(t, env.now.Add(30*24*time.Hour).Equal(*stored.SubscriptionEndDate))
		require.NotNil(t, stored.StripeSubscriptionId)
		assert.Equal(t, "sub_cs_a", *stored.StripeSubscriptionId)
		assert.True(t, stored.IsListable(env.now))

		payment := env.payment(t, "cs_a")
		assert.Equal(t, entity.PaymentStatusPaid, payment.PaymentStatus)
		require.NotNil(t, payment.PaidAt)
		assert.True(t, env.now.Equal(*payment.PaidAt))
		require.NotNil(t, payment.StripeEventId)
		assert.Equal(t, "evt_a", *payment.StripeEventId)
		assert.JSONEq(t, `{"id":"cs_a"}`, string(payment.GatewayPayload))

		assert.Equal(t, 1, env.events.count(constant.EventSubscriptionActivated))
	})

	t.Run("redelivery does not re-activate or extend", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addApprovedProvider(t)
		env.expectWebhook("sig", completedEvent("evt_dup", "cs_dup", p.Id))

		require.NoError(t, env.subscription.HandleWebhookEvent(ctx, "sig", []byte("{}")))
		first := env.reload(t, p.Id)

		env.advance(time.Hour)
		require.NoError(t, env.subscription.HandleWebhookEvent(ctx, "sig", []byte("{}")))

		// Same session under a new event id still settles only once.
		env.expectWebhook("sig2", completedEvent("evt_dup_2", "cs_dup", p.Id))
		require.NoError(t, env.subscription.HandleWebhookEvent(ctx, "sig2", []byte("{}")))

		again := env.reload(t, p.Id)
		assert.Equal(t, *first.SubscriptionEndDate, *again.SubscriptionEndDate)
		assert.Equal(t, 1, env.events.count(constant.EventSubscriptionActivated))
	})

	t.Run("missing payment row is recorded from the event", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addApprovedProvider(t)
		env.expectWebhook("sig", completedEvent("evt_orphan", "cs_orphan", p.Id))

		require.NoError(t, env.subscription.HandleWebhookEvent(ctx, "sig", []byte("{}")))

		payment := env.payment(t, "cs_orphan")
		require.NotNil(t, payment)
		assert.Equal(t, entity.PaymentStatusPaid, payment.PaymentStatus)
		assert.Equal(t, p.Id, payment.ProviderId)
		assert.Equal(t, int64(2900), payment.Amount)
		assert.Equal(t, entity.SubscriptionStatusActive, env.reload(t, p.Id).SubscriptionStatus)
	})

	t.Run("unapproved provider keeps the payment but is not activated", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addProvider(t, nil)
		env.expectWebhook("sig", completedEvent("evt_unapproved", "cs_unapproved", p.Id))

		require.NoError(t, env.subscription.HandleWebhookEvent(ctx, "sig", []byte("{}")))

		assert.Equal(t, entity.PaymentStatusPaid, env.payment(t, "cs_unapproved").PaymentStatus)
		stored := env.reload(t, p.Id)
		assert.Equal(t, entity.SubscriptionStatusPendingApproval, stored.SubscriptionStatus)
		assert.Nil(t, stored.SubscriptionEndDate)
		assert.Zero(t, env.events.count(constant.EventSubscriptionActivated))
	})

	t.Run("payment row owner wins over metadata", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.addApprovedProvider(t)
		stranger := env.addApprovedProvider(t)
		require.NoError(t, memory.NewSubscriptionPaymentRepository(env.store).Create(ctx, &entity.SubscriptionPayment{
			ProviderId:      owner.Id,
			Amount:          2900,
			Currency:        "usd",
			PaymentStatus:   entity.PaymentStatusPending,
			StripeSessionId: "cs_owned",
		}))
		env.expectWebhook("sig", completedEvent("evt_owned", "cs_owned", stranger.Id))

		require.NoError(t, env.subscription.HandleWebhookEvent(ctx, "sig", []byte("{}")))

		assert.Equal(t, entity.SubscriptionStatusActive, env.reload(t, owner.Id).SubscriptionStatus)
		assert.Equal(t, entity.SubscriptionStatusApprovedButUnsubscribed, env.reload(t, stranger.Id).SubscriptionStatus)
	})

	t.Run("concurrent deliveries activate once", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addApprovedProvider(t)
		for i := 0; i < 8; i++ {
			sig := "sig_" + string(rune('a'+i))
			env.expectWebhook(sig, completedEvent("evt_"+sig, "cs_race", p.Id))
		}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(sig string) {
				defer wg.Done()
				assert.NoError(t, env.subscription.HandleWebhookEvent(ctx, sig, []byte("{}")))
			}("sig_" + string(rune('a'+i)))
		}
		wg.Wait()

		assert.Equal(t, 1, env.events.count(constant.EventSubscriptionActivated))
		assert.Equal(t, entity.SubscriptionStatusActive, env.reload(t, p.Id).SubscriptionStatus)
	})

	t.Run("other event types are acknowledged without effect", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectWebhook("sig", &billing.WebhookEvent{ID: "evt_other", Type: "invoice.paid"})

		require.NoError(t, env.subscription.HandleWebhookEvent(ctx, "sig", []byte("{}")))
		assert.Empty(t, env.events.types())
	})

	t.Run("rejections", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.subscription.HandleWebhookEvent(ctx, "", []byte("{}"))
		requireAppError(t, err, http.StatusBadRequest, constant.MsgMissingSignature)

		env.gateway.On("ParseWebhook", mock.Anything, mock.Anything, "forged").
			Return(nil, billing.ErrInvalidSignature).Once()
		err = env.subscription.HandleWebhookEvent(ctx, "forged", []byte("{}"))
		requireAppError(t, err, http.StatusBadRequest, constant.MsgInvalidSignature)
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)

		noMeta := completedEvent("evt_nometa", "cs_nometa", uuid.New())
		noMeta.ProviderId = ""
		env.expectWebhook("nometa", noMeta)
		err = env.subscription.HandleWebhookEvent(ctx, "nometa", []byte("{}"))
		requireAppError(t, err, http.StatusBadRequest, constant.MsgMissingProviderId)

		badMeta := completedEvent("evt_badmeta", "cs_badmeta", uuid.New())
		badMeta.ProviderId = "not-a-uuid"
		env.expectWebhook("badmeta", badMeta)
		err = env.subscription.HandleWebhookEvent(ctx, "badmeta", []byte("{}"))
		requireAppError(t, err, http.StatusBadRequest, constant.MsgInvalidProviderId)

		noSession := completedEvent("evt_nosession", "", uuid.New())
		env.expectWebhook("nosession", noSession)
		err = env.subscription.HandleWebhookEvent(ctx, "nosession", []byte("{}"))
		requireAppError(t, err, http.StatusBadRequest, constant.MsgMalformedEvent)
		assert.ErrorIs(t, err, billing.ErrMalformedEvent)

		assert.Nil(t, env.payment(t, "cs_nometa"))
	})

	t.Run("store failure leaves the event open for redelivery", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addApprovedProvider(t)
		env.expectWebhook("sig", completedEvent("evt_retry", "cs_retry", p.Id))

		failing := &failingFactory{RepositoryFactory: env.uow, fail: true}
		svc := NewSubscriptionService(failing, env.gateway, env.expiry, dedup.NewMemoryDeduplicator(time.Hour),
			env.events, logger.NewNopLogger(), testSettings, func() time.Time { return env.now })

		err := svc.HandleWebhookEvent(ctx, "sig", []byte("{}"))
		requireAppError(t, err, http.StatusInternalServerError, "")

		failing.fail = false
		require.NoError(t, svc.HandleWebhookEvent(ctx, "sig", []byte("{}")))
		assert.Equal(t, entity.SubscriptionStatusActive, env.reload(t, p.Id).SubscriptionStatus)
	})

	t.Run("redelivery during a failing first attempt still settles", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addApprovedProvider(t)
		env.expectWebhook("sig", completedEvent("evt_inflight", "cs_inflight", p.Id))

		stalled := newStallingFactory(env.uow)
		svc := NewSubscriptionService(stalled, env.gateway, env.expiry, dedup.NewMemoryDeduplicator(time.Hour),
			env.events, logger.NewNopLogger(), testSettings, func() time.Time { return env.now })

		firstErr := make(chan error, 1)
		go func() {
			firstErr <- svc.HandleWebhookEvent(ctx, "sig", []byte("{}"))
		}()
		<-stalled.entered

		require.NoError(t, svc.HandleWebhookEvent(ctx, "sig", []byte("{}")))

		close(stalled.release)
		requireAppError(t, <-firstErr, http.StatusInternalServerError, "")

		assert.Equal(t, entity.SubscriptionStatusActive, env.reload(t, p.Id).SubscriptionStatus)
		payment := env.payment(t, "cs_inflight")
		require.NotNil(t, payment)
		assert.Equal(t, entity.PaymentStatusPaid, payment.PaymentStatus)
		assert.Equal(t, 1, env.events.count(constant.EventSubscriptionActivated))
	})

	t.Run("failed attempt is not remembered as processed", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addApprovedProvider(t)
		env.expectWebhook("sig", completedEvent("evt_forget", "cs_forget", p.Id))

		seen := dedup.NewMemoryDeduplicator(time.Hour)
		failing := &failingFactory{RepositoryFactory: env.uow, fail: true}
		svc := NewSubscriptionService(failing, env.gateway, env.expiry, seen,
			env.events, logger.NewNopLogger(), testSettings, func() time.Time { return env.now })

		require.Error(t, svc.HandleWebhookEvent(ctx, "sig", []byte("{}")))
		ok, err := seen.Seen(ctx, "evt_forget")
		require.NoError(t, err)
		assert.False(t, ok)

		failing.fail = false
		require.NoError(t, svc.HandleWebhookEvent(ctx, "sig", []byte("{}")))
		ok, err = seen.Seen(ctx, "evt_forget")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestGetSubscriptionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("active then expired", func(t *testing.T) {
		env := newTestEnv(t)
		end := env.now.Add(48 * time.Hour)
		p := env.addActiveProvider(t, end)

		res, err := env.subscription.GetSubscriptionStatus(ctx, providerActor(p), p.Id)
		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", res.Status)
		assert.Empty(t, res.Message)

		env.advance(49 * time.Hour)
		res, err = env.subscription.GetSubscriptionStatus(ctx, providerActor(p), p.Id)
		require.NoError(t, err)
		assert.Equal(t, "EXPIRED", res.Status)
		assert.Equal(t, constant.MsgSubscriptionExpired, res.Message)
		require.NotNil(t, res.EndDate)
		assert.True(t, end.Equal(*res.EndDate))

		assert.Equal(t, entity.SubscriptionStatusExpired, env.reload(t, p.Id).SubscriptionStatus)
		assert.Equal(t, 1, env.events.count(constant.EventSubscriptionExpired))
	})

	t.Run("access", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.addApprovedProvider(t)
		other := env.addApprovedProvider(t)

		_, err := env.subscription.GetSubscriptionStatus(ctx, providerActor(other), p.Id)
		requireAppError(t, err, http.StatusForbidden, constant.MsgNotOwnProvider)

		res, err := env.subscription.GetSubscriptionStatus(ctx, adminActor(), p.Id)
		require.NoError(t, err)
		assert.Equal(t, "APPROVED_BUT_UNSUBSCRIBED", res.Status)

		_, err = env.subscription.GetSubscriptionStatus(ctx, adminActor(), uuid.New())
		requireAppError(t, err, http.StatusNotFound, constant.MsgProviderNotFound)
	})
}

func TestLazyExpiryEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.addApprovedProvider(t)
	env.expectWebhook("sig", completedEvent("evt_e2e", "cs_e2e", p.Id))
	require.NoError(t, env.subscription.HandleWebhookEvent(ctx, "sig", []byte("{}")))

	_, err := env.directory.GetProvider(ctx, p.Id)
	require.NoError(t, err)

	env.advance(30*24*time.Hour + time.Second)

	_, err = env.directory.GetProvider(ctx, p.Id)
	requireAppError(t, err, http.StatusNotFound, constant.MsgProviderNotFound)
	assert.Equal(t, entity.SubscriptionStatusExpired, env.reload(t, p.Id).SubscriptionStatus)
}
