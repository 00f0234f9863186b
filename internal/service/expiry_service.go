package service

import (
	"context"
	"fmt"

	"provider-marketplace-be/internal/constant"
	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/pkg/logger"
	"provider-marketplace-be/internal/repository/unitofwork"
	"provider-marketplace-be/pkg/events"
)

// IExpiryService demotes ACTIVE subscriptions whose end date has passed.
// Every read boundary calls it; none of them trusts the periodic sweep alone.
type IExpiryService interface {
	// SweepAll demotes every stale provider and returns how many changed.
	SweepAll(ctx context.Context) (int64, error)
	// EnsureFresh demotes user in the store and in memory if it is stale.
	EnsureFresh(ctx context.Context, user *entity.User) (bool, error)
}

type expiryService struct {
	uowFactory unitofwork.RepositoryFactory
	events     IEventPublisher
	log        logger.ILogger
	now        Clock
}

func NewExpiryService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher IEventPublisher,
	log logger.ILogger,
	clock Clock,
) IExpiryService {
	return &expiryService{
		uowFactory: uowFactory,
		events:     eventPublisher,
		log:        log,
		now:        clockOrDefault(clock),
	}
}

func (s *expiryService) SweepAll(ctx context.Context) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	n, err := uow.UserRepository().ExpireStaleSubscriptions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire stale subscriptions: %w", err)
	}
	if n > 0 {
		s.log.Info("EXPIRY", "Demoted stale subscriptions", map[string]interface{}{
			"count": n,
		})
	}
	return n, nil
}

func (s *expiryService) EnsureFresh(ctx context.Context, user *entity.User) (bool, error) {
	now := s.now()
	if user == nil || !user.IsSubscriptionStale(now) {
		return false, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	changed, err := uow.UserRepository().ExpireStaleSubscription(ctx, user.Id, now)
	if err != nil {
		return false, fmt.Errorf("expire subscription %s: %w", user.Id, err)
	}

	user.DemoteIfExpired(now)

	if changed {
		s.log.Info("EXPIRY", "Subscription expired", map[string]interface{}{
			"provider_id": user.Id,
			"end_date":    user.SubscriptionEndDate,
		})
		s.events.Publish(ctx, events.NewEvent(constant.EventSubscriptionExpired, map[string]interface{}{
			"provider_id": user.Id.String(),
			"end_date":    user.SubscriptionEndDate,
		}))
	}
	return true, nil
}
