package memory

import (
	"context"
	"sort"
	"time"

	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/repository/contract"

	"github.com/google/uuid"
)

type SubscriptionPaymentRepository struct {
	store *Store
	tx    *journal
}

func NewSubscriptionPaymentRepository(store *Store) contract.SubscriptionPaymentRepository {
	return &SubscriptionPaymentRepository{store: store}
}

func (r *SubscriptionPaymentRepository) insert(payment *entity.SubscriptionPayment) {
	if payment.Id == uuid.Nil {
		payment.Id = uuid.New()
	}
	now := time.Now()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	if payment.UpdatedAt.IsZero() {
		payment.UpdatedAt = now
	}
	r.tx.touchPayment(r.store, payment.StripeSessionId)
	r.store.payments[payment.StripeSessionId] = clonePayment(payment)
}

func (r *SubscriptionPaymentRepository) Create(ctx context.Context, payment *entity.SubscriptionPayment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.payments[payment.StripeSessionId]; ok {
		return ErrDuplicateKey
	}
	r.insert(payment)
	return nil
}

func (r *SubscriptionPaymentRepository) FindBySessionID(ctx context.Context, sessionId string) (*entity.SubscriptionPayment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.payments[sessionId]
	if !ok {
		return nil, nil
	}
	return clonePayment(p), nil
}

func (r *SubscriptionPaymentRepository) FindAllByProvider(ctx context.Context, providerId uuid.UUID) ([]*entity.SubscriptionPayment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var res []*entity.SubscriptionPayment
	for _, p := range r.store.payments {
		if p.ProviderId == providerId {
			res = append(res, clonePayment(p))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (r *SubscriptionPaymentRepository) MarkPaid(ctx context.Context, sessionId string, settlement contract.PaymentSettlement) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.payments[sessionId]
	if !ok || p.PaymentStatus != entity.PaymentStatusPending {
		return false, nil
	}

	r.tx.touchPayment(r.store, sessionId)
	paidAt, expiresAt := settlement.PaidAt, settlement.ExpiresAt
	p.PaymentStatus = entity.PaymentStatusPaid
	p.PaidAt = &paidAt
	p.ExpiresAt = &expiresAt
	p.UpdatedAt = paidAt
	if settlement.StripeCustomerId != nil {
		p.StripeCustomerId = cloneString(settlement.StripeCustomerId)
	}
	if settlement.StripeSubscriptionId != nil {
		p.StripeSubscriptionId = cloneString(settlement.StripeSubscriptionId)
	}
	if settlement.StripeEventId != nil {
		p.StripeEventId = cloneString(settlement.StripeEventId)
	}
	if len(settlement.GatewayPayload) > 0 {
		p.GatewayPayload = append([]byte(nil), settlement.GatewayPayload...)
	}
	return true, nil
}

func (r *SubscriptionPaymentRepository) CreateIfAbsent(ctx context.Context, payment *entity.SubscriptionPayment) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.payments[payment.StripeSessionId]; ok {
		return false, nil
	}
	r.insert(payment)
	return true, nil
}
