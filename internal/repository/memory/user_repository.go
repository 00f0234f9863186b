package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/repository/contract"

	"github.com/google/uuid"
)

var (
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrRecordNotFound = errors.New("record not found")
)

type UserRepository struct {
	store *Store
	tx    *journal
}

func NewUserRepository(store *Store) contract.UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	if _, ok := r.store.users[user.Id]; ok {
		return ErrDuplicateKey
	}
	for _, u := range r.store.users {
		if u.Email == user.Email {
			return ErrDuplicateKey
		}
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	r.tx.touchUser(r.store, user.Id)
	r.store.users[user.Id] = cloneUser(user)
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[user.Id]; !ok {
		return ErrRecordNotFound
	}
	r.tx.touchUser(r.store, user.Id)
	r.store.users[user.Id] = cloneUser(user)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range r.store.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

// FindByIDForUpdate relies on the unit of work lock for exclusion.
func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.FindByID(ctx, id)
}

func (r *UserRepository) matching(filter contract.ProviderFilter) []*entity.User {
	search := strings.ToLower(filter.Search)

	var res []*entity.User
	for _, u := range r.store.users {
		if !u.IsProvider() {
			continue
		}
		if filter.VerificationStatus != "" && u.VerificationStatus != filter.VerificationStatus {
			continue
		}
		if filter.ListableAt != nil && !u.IsListable(*filter.ListableAt) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FullName), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		res = append(res, u)
	}
	return res
}

func (r *UserRepository) FindProviders(ctx context.Context, filter contract.ProviderFilter) ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := r.matching(filter)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	res := make([]*entity.User, 0, len(matched))
	for _, u := range matched {
		res = append(res, cloneUser(u))
	}
	return res, nil
}

func (r *UserRepository) CountProviders(ctx context.Context, filter contract.ProviderFilter) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *UserRepository) ExpireStaleSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	providers := make([]*entity.User, 0, len(r.store.users))
	for id, u := range r.store.users {
		if u.IsProvider() && u.IsSubscriptionStale(now) {
			r.tx.touchUser(r.store, id)
			providers = append(providers, u)
		}
	}
	return int64(len(entity.DemoteExpired(providers, now))), nil
}

func (r *UserRepository) ExpireStaleSubscription(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok || !u.IsSubscriptionStale(now) {
		return false, nil
	}
	r.tx.touchUser(r.store, id)
	return u.DemoteIfExpired(now), nil
}

func (r *UserRepository) ClaimCheckout(ctx context.Context, id uuid.UUID, now, lockedUntil time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return false, nil
	}
	if !u.IsProvider() || u.IsBlocked || !u.IsApproved() || u.HasLiveSubscription(now) {
		return false, nil
	}
	if u.CheckoutLockedUntil != nil && u.CheckoutLockedUntil.After(now) {
		return false, nil
	}
	r.tx.touchUser(r.store, id)
	u.CheckoutLockedUntil = &lockedUntil
	u.UpdatedAt = now
	return true, nil
}

func (r *UserRepository) ReleaseCheckout(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if u, ok := r.store.users[id]; ok {
		r.tx.touchUser(r.store, id)
		u.CheckoutLockedUntil = nil
	}
	return nil
}

func (r *UserRepository) MarkCheckoutStarted(ctx context.Context, id uuid.UUID, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok || u.HasLiveSubscription(now) {
		return nil
	}
	r.tx.touchUser(r.store, id)
	u.SubscriptionStatus = entity.SubscriptionStatusApprovedButUnsubscribed
	u.CheckoutLockedUntil = nil
	u.UpdatedAt = now
	return nil
}

func (r *UserRepository) SetStripeCustomerId(ctx context.Context, id uuid.UUID, customerId string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if u, ok := r.store.users[id]; ok && u.StripeCustomerId == nil {
		r.tx.touchUser(r.store, id)
		u.StripeCustomerId = &customerId
	}
	return nil
}

func (r *UserRepository) ActivateSubscription(ctx context.Context, activation entity.SubscriptionActivation) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[activation.ProviderId]
	if !ok || !u.IsProvider() || !u.IsApproved() {
		return false, nil
	}

	r.tx.touchUser(r.store, activation.ProviderId)
	start, end := activation.StartDate, activation.EndDate
	u.SubscriptionStatus = entity.SubscriptionStatusActive
	u.SubscriptionStartDate = &start
	u.SubscriptionEndDate = &end
	u.CheckoutLockedUntil = nil
	u.UpdatedAt = start
	if activation.StripeCustomerId != nil {
		u.StripeCustomerId = cloneString(activation.StripeCustomerId)
	}
	if activation.StripeSubscriptionId != nil {
		u.StripeSubscriptionId = cloneString(activation.StripeSubscriptionId)
	}
	return true, nil
}
