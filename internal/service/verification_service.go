package service

import (
	"context"
	"strings"

	"provider-marketplace-be/internal/constant"
	"provider-marketplace-be/internal/dto"
	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/pkg/apperror"
	"provider-marketplace-be/internal/pkg/logger"
	"provider-marketplace-be/internal/repository/contract"
	"provider-marketplace-be/internal/repository/unitofwork"
	"provider-marketplace-be/pkg/events"

	"github.com/google/uuid"
)

type IVerificationService interface {
	Approve(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.ProviderResponse, error)
	Reject(ctx context.Context, actor entity.Actor, providerId uuid.UUID, reason string) (*dto.ProviderResponse, error)
	SetProviderBlocked(ctx context.Context, actor entity.Actor, providerId uuid.UUID, blocked bool) (*dto.ProviderResponse, error)
	SetUserBlocked(ctx context.Context, actor entity.Actor, userId uuid.UUID, blocked bool) (*dto.UserBlockResponse, error)
	ReapplyVerification(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.ProviderResponse, error)

	// Admin review queue
	GetProvider(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.ProviderResponse, error)
	ListProviders(ctx context.Context, actor entity.Actor, req dto.ProviderListRequest) (*dto.ProviderListResponse, error)
}

type verificationService struct {
	uowFactory unitofwork.RepositoryFactory
	expiry     IExpiryService
	events     IEventPublisher
	log        logger.ILogger
	now        Clock
}

func NewVerificationService(
	uowFactory unitofwork.RepositoryFactory,
	expiry IExpiryService,
	eventPublisher IEventPublisher,
	log logger.ILogger,
	clock Clock,
) IVerificationService {
	return &verificationService{
		uowFactory: uowFactory,
		expiry:     expiry,
		events:     eventPublisher,
		log:        log,
		now:        clockOrDefault(clock),
	}
}

func requireAdmin(actor entity.Actor) error {
	if !actor.IsAdmin() {
		return apperror.Forbidden(constant.MsgAdminOnly)
	}
	return nil
}

// mutateProvider loads a provider under a row lock, applies fn and saves the result.
func (s *verificationService) mutateProvider(
	ctx context.Context,
	providerId uuid.UUID,
	fn func(u *entity.User) error,
) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	repo := uow.UserRepository()
	provider, err := repo.FindByIDForUpdate(ctx, providerId)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if provider == nil || !provider.IsProvider() {
		return nil, apperror.NotFound(constant.MsgProviderNotFound)
	}

	if err := fn(provider); err != nil {
		return nil, err
	}
	provider.UpdatedAt = s.now()

	if err := repo.Update(ctx, provider); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err)
	}
	return provider, nil
}

func (s *verificationService) Approve(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.ProviderResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	provider, err := s.mutateProvider(ctx, providerId, func(u *entity.User) error {
		next, err := entity.NextSubscriptionStatus(u.SubscriptionStatus, entity.SubscriptionEventApproved)
		if err != nil {
			return apperror.Internal(err)
		}
		u.IsVerified = true
		u.VerificationStatus = entity.VerificationStatusApproved
		u.VerificationReason = nil
		u.SubscriptionStatus = next
		u.SubscriptionStartDate = nil
		u.SubscriptionEndDate = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("VERIFICATION", "Provider approved", map[string]interface{}{
		"provider_id": provider.Id,
		"admin_id":    actor.UserId,
	})
	s.events.Publish(ctx, events.NewEvent(constant.EventProviderApproved, map[string]interface{}{
		"provider_id": provider.Id.String(),
		"admin_id":    actor.UserId.String(),
	}))

	return toProviderResponse(provider), nil
}

func (s *verificationService) Reject(ctx context.Context, actor entity.Actor, providerId uuid.UUID, reason string) (*dto.ProviderResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation(constant.MsgRejectionReasonRequired)
	}

	provider, err := s.mutateProvider(ctx, providerId, func(u *entity.User) error {
		u.IsVerified = false
		u.VerificationStatus = entity.VerificationStatusRejected
		u.VerificationReason = &reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("VERIFICATION", "Provider rejected", map[string]interface{}{
		"provider_id": provider.Id,
		"admin_id":    actor.UserId,
		"reason":      reason,
	})
	s.events.Publish(ctx, events.NewEvent(constant.EventProviderRejected, map[string]interface{}{
		"provider_id": provider.Id.String(),
		"admin_id":    actor.UserId.String(),
		"reason":      reason,
	}))

	return toProviderResponse(provider), nil
}

func (s *verificationService) SetProviderBlocked(ctx context.Context, actor entity.Actor, providerId uuid.UUID, blocked bool) (*dto.ProviderResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	provider, err := s.mutateProvider(ctx, providerId, func(u *entity.User) error {
		u.IsBlocked = blocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := constant.EventProviderUnblocked
	if blocked {
		eventType = constant.EventProviderBlocked
	}
	s.log.Info("VERIFICATION", "Provider block flag changed", map[string]interface{}{
		"provider_id": provider.Id,
		"admin_id":    actor.UserId,
		"is_blocked":  blocked,
	})
	s.events.Publish(ctx, events.NewEvent(eventType, map[string]interface{}{
		"provider_id": provider.Id.String(),
		"admin_id":    actor.UserId.String(),
	}))

	return toProviderResponse(provider), nil
}

func (s *verificationService) SetUserBlocked(ctx context.Context, actor entity.Actor, userId uuid.UUID, blocked bool) (*dto.UserBlockResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if blocked && actor.UserId == userId {
		return nil, apperror.Validation(constant.MsgCannotBlockSelf)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	repo := uow.UserRepository()
	user, err := repo.FindByIDForUpdate(ctx, userId)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.NotFound(constant.MsgUserNotFound)
	}

	user.IsBlocked = blocked
	user.UpdatedAt = s.now()
	if err := repo.Update(ctx, user); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err)
	}

	eventType := constant.EventUserUnblocked
	if blocked {
		eventType = constant.EventUserBlocked
	}
	s.log.Info("VERIFICATION", "User block flag changed", map[string]interface{}{
		"user_id":    user.Id,
		"admin_id":   actor.UserId,
		"is_blocked": blocked,
	})
	s.events.Publish(ctx, events.NewEvent(eventType, map[string]interface{}{
		"user_id":  user.Id.String(),
		"role":     string(user.Role),
		"admin_id": actor.UserId.String(),
	}))

	return &dto.UserBlockResponse{
		Id:        user.Id,
		Email:     user.Email,
		Role:      string(user.Role),
		IsBlocked: user.IsBlocked,
	}, nil
}

func (s *verificationService) ReapplyVerification(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.ProviderResponse, error) {
	if actor.Role != entity.UserRoleServiceProvider || actor.UserId != providerId {
		return nil, apperror.Forbidden(constant.MsgNotOwnProvider)
	}

	provider, err := s.mutateProvider(ctx, providerId, func(u *entity.User) error {
		if u.IsBlocked {
			return apperror.Forbidden(constant.MsgAccountBlocked)
		}
		u.IsVerified = false
		u.VerificationStatus = entity.VerificationStatusPending
		u.VerificationReason = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("VERIFICATION", "Provider re-applied for verification", map[string]interface{}{
		"provider_id": provider.Id,
	})
	s.events.Publish(ctx, events.NewEvent(constant.EventVerificationReapplied, map[string]interface{}{
		"provider_id": provider.Id.String(),
	}))

	return toProviderResponse(provider), nil
}

func (s *verificationService) GetProvider(ctx context.Context, actor entity.Actor, providerId uuid.UUID) (*dto.ProviderResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	provider, err := uow.UserRepository().FindByID(ctx, providerId)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if provider == nil || !provider.IsProvider() {
		return nil, apperror.NotFound(constant.MsgProviderNotFound)
	}

	if _, err := s.expiry.EnsureFresh(ctx, provider); err != nil {
		return nil, apperror.Internal(err)
	}

	return toProviderResponse(provider), nil
}

func (s *verificationService) ListProviders(ctx context.Context, actor entity.Actor, req dto.ProviderListRequest) (*dto.ProviderListResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	filter := contract.ProviderFilter{
		Search: strings.TrimSpace(req.Search),
		Limit:  req.Limit,
		Offset: req.Offset(),
	}
	if req.VerificationStatus != "" {
		status, err := entity.ParseVerificationStatus(req.VerificationStatus)
		if err != nil {
			return nil, apperror.Validation("verificationStatus must be one of [pending, approved, rejected]")
		}
		filter.VerificationStatus = status
	}

	if _, err := s.expiry.SweepAll(ctx); err != nil {
		return nil, apperror.Internal(err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.UserRepository()

	providers, err := repo.FindProviders(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	total, err := repo.CountProviders(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &dto.ProviderListResponse{
		Items: toProviderResponses(providers),
		Total: total,
		Page:  max(req.Page, 1),
		Limit: req.Limit,
	}, nil
}
