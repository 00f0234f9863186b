package implementation

import (
	"context"
	"errors"
	"time"

	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/mapper"
	"provider-marketplace-be/internal/model"
	"provider-marketplace-be/internal/repository/contract"
	"provider-marketplace-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) providerSpecs(filter contract.ProviderFilter) []specification.Specification {
	specs := []specification.Specification{specification.ProvidersOnly{}}
	if filter.VerificationStatus != "" {
		specs = append(specs, specification.ByVerificationStatus{Status: filter.VerificationStatus})
	}
	if filter.ListableAt != nil {
		specs = append(specs, specification.ListableAt{Now: *filter.ListableAt})
	}
	if filter.Search != "" {
		specs = append(specs, specification.ProviderSearchQuery{Query: filter.Search})
	}
	return specs
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Save(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var modelUser model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id})

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var modelUser model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByEmail{Email: email})

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var modelUser model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id}).
		Clauses(clause.Locking{Strength: "UPDATE"})

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) FindProviders(ctx context.Context, filter contract.ProviderFilter) ([]*entity.User, error) {
	var modelUsers []*model.User
	specs := append(r.providerSpecs(filter),
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: filter.Limit, Offset: filter.Offset},
	)
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&modelUsers).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(modelUsers), nil
}

func (r *UserRepositoryImpl) CountProviders(ctx context.Context, filter contract.ProviderFilter) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), r.providerSpecs(filter)...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepositoryImpl) ExpireStaleSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}),
		specification.ProvidersOnly{},
		specification.StaleSubscription{Now: now},
	)
	res := query.Updates(map[string]interface{}{
		"subscription_status": entity.SubscriptionStatusExpired,
		"updated_at":          now,
	})
	return res.RowsAffected, res.Error
}

func (r *UserRepositoryImpl) ExpireStaleSubscription(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}),
		specification.ByID{ID: id},
		specification.StaleSubscription{Now: now},
	)
	res := query.Updates(map[string]interface{}{
		"subscription_status": entity.SubscriptionStatusExpired,
		"updated_at":          now,
	})
	return res.RowsAffected == 1, res.Error
}

func (r *UserRepositoryImpl) ClaimCheckout(ctx context.Context, id uuid.UUID, now, lockedUntil time.Time) (bool, error) {
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}),
		specification.ByID{ID: id},
		specification.CheckoutClaimable{Now: now},
	)
	res := query.Updates(map[string]interface{}{
		"checkout_locked_until": lockedUntil,
		"updated_at":            now,
	})
	return res.RowsAffected == 1, res.Error
}

func (r *UserRepositoryImpl) ReleaseCheckout(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"checkout_locked_until": nil,
		}).Error
}

func (r *UserRepositoryImpl) MarkCheckoutStarted(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}),
		specification.ByID{ID: id},
		specification.NotLiveSubscription{Now: now},
	)
	return query.Updates(map[string]interface{}{
		"subscription_status":   entity.SubscriptionStatusApprovedButUnsubscribed,
		"checkout_locked_until": nil,
		"updated_at":            now,
	}).Error
}

func (r *UserRepositoryImpl) SetStripeCustomerId(ctx context.Context, id uuid.UUID, customerId string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND stripe_customer_id IS NULL", id).
		Update("stripe_customer_id", customerId).Error
}

func (r *UserRepositoryImpl) ActivateSubscription(ctx context.Context, activation entity.SubscriptionActivation) (bool, error) {
	updates := map[string]interface{}{
		"subscription_status":     entity.SubscriptionStatusActive,
		"subscription_start_date": activation.StartDate,
		"subscription_end_date":   activation.EndDate,
		"checkout_locked_until":   nil,
		"updated_at":              activation.StartDate,
	}
	if activation.StripeCustomerId != nil {
		updates["stripe_customer_id"] = *activation.StripeCustomerId
	}
	if activation.StripeSubscriptionId != nil {
		updates["stripe_subscription_id"] = *activation.StripeSubscriptionId
	}

	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}),
		specification.ByID{ID: activation.ProviderId},
		specification.ActivatableProvider{},
	)
	res := query.Updates(updates)
	return res.RowsAffected == 1, res.Error
}
