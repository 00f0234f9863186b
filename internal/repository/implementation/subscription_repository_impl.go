package implementation

import (
	"context"
	"errors"

	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/mapper"
	"provider-marketplace-be/internal/model"
	"provider-marketplace-be/internal/repository/contract"
	"provider-marketplace-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionPaymentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionPaymentRepository(db *gorm.DB) contract.SubscriptionPaymentRepository {
	return &SubscriptionPaymentRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionPaymentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SubscriptionPaymentRepositoryImpl) Create(ctx context.Context, payment *entity.SubscriptionPayment) error {
	m := r.mapper.PaymentToModel(payment)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*payment = *r.mapper.PaymentToEntity(m)
	return nil
}

func (r *SubscriptionPaymentRepositoryImpl) FindBySessionID(ctx context.Context, sessionId string) (*entity.SubscriptionPayment, error) {
	var m model.SubscriptionPayment
	query := r.applySpecifications(r.db.WithContext(ctx), specification.BySessionID{SessionID: sessionId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PaymentToEntity(&m), nil
}

func (r *SubscriptionPaymentRepositoryImpl) FindAllByProvider(ctx context.Context, providerId uuid.UUID) ([]*entity.SubscriptionPayment, error) {
	var models []*model.SubscriptionPayment
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByProviderID{ProviderID: providerId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	res := make([]*entity.SubscriptionPayment, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.PaymentToEntity(m))
	}
	return res, nil
}

func (r *SubscriptionPaymentRepositoryImpl) MarkPaid(ctx context.Context, sessionId string, settlement contract.PaymentSettlement) (bool, error) {
	updates := map[string]interface{}{
		"payment_status": entity.PaymentStatusPaid,
		"paid_at":        settlement.PaidAt,
		"expires_at":     settlement.ExpiresAt,
		"updated_at":     settlement.PaidAt,
	}
	if settlement.StripeCustomerId != nil {
		updates["stripe_customer_id"] = *settlement.StripeCustomerId
	}
	if settlement.StripeSubscriptionId != nil {
		updates["stripe_subscription_id"] = *settlement.StripeSubscriptionId
	}
	if settlement.StripeEventId != nil {
		updates["stripe_event_id"] = *settlement.StripeEventId
	}
	if len(settlement.GatewayPayload) > 0 {
		updates["gateway_payload"] = datatypes.JSON(settlement.GatewayPayload)
	}

	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.SubscriptionPayment{}),
		specification.BySessionID{SessionID: sessionId},
		specification.ByPaymentStatus{Status: entity.PaymentStatusPending},
	)
	res := query.Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *SubscriptionPaymentRepositoryImpl) CreateIfAbsent(ctx context.Context, payment *entity.SubscriptionPayment) (bool, error) {
	m := r.mapper.PaymentToModel(payment)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_session_id"}},
			DoNothing: true,
		}).
		Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	*payment = *r.mapper.PaymentToEntity(m)
	return true, nil
}
