package service

import (
	"context"
	"strings"

	"provider-marketplace-be/internal/constant"
	"provider-marketplace-be/internal/dto"
	"provider-marketplace-be/internal/pkg/apperror"
	"provider-marketplace-be/internal/pkg/logger"
	"provider-marketplace-be/internal/repository/contract"
	"provider-marketplace-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IDirectoryService serves the public provider directory. Only listable
// providers are returned and listability is evaluated at read time.
type IDirectoryService interface {
	ListProviders(ctx context.Context, req dto.ProviderListRequest) (*dto.PublicProviderListResponse, error)
	GetProvider(ctx context.Context, providerId uuid.UUID) (*dto.PublicProviderResponse, error)
}

type directoryService struct {
	uowFactory unitofwork.RepositoryFactory
	expiry     IExpiryService
	log        logger.ILogger
	now        Clock
}

func NewDirectoryService(
	uowFactory unitofwork.RepositoryFactory,
	expiry IExpiryService,
	log logger.ILogger,
	clock Clock,
) IDirectoryService {
	return &directoryService{
		uowFactory: uowFactory,
		expiry:     expiry,
		log:        log,
		now:        clockOrDefault(clock),
	}
}

func (s *directoryService) ListProviders(ctx context.Context, req dto.ProviderListRequest) (*dto.PublicProviderListResponse, error) {
	if _, err := s.expiry.SweepAll(ctx); err != nil {
		// The listable filter below still checks end dates.
		s.log.Warn("DIRECTORY", "Expiry sweep failed before listing", map[string]interface{}{
			"error": err.Error(),
		})
	}

	now := s.now()
	filter := contract.ProviderFilter{
		ListableAt: &now,
		Search:     strings.TrimSpace(req.Search),
		Limit:      req.Limit,
		Offset:     req.Offset(),
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).UserRepository()
	providers, err := repo.FindProviders(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	total, err := repo.CountProviders(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	items := make([]*dto.PublicProviderResponse, 0, len(providers))
	for _, p := range providers {
		items = append(items, toPublicProviderResponse(p))
	}

	return &dto.PublicProviderListResponse{
		Items: items,
		Total: total,
		Page:  max(req.Page, 1),
		Limit: req.Limit,
	}, nil
}

func (s *directoryService) GetProvider(ctx context.Context, providerId uuid.UUID) (*dto.PublicProviderResponse, error) {
	if _, err := s.expiry.SweepAll(ctx); err != nil {
		s.log.Warn("DIRECTORY", "Expiry sweep failed before lookup", map[string]interface{}{
			"error": err.Error(),
		})
	}

	provider, err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().FindByID(ctx, providerId)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if provider == nil || !provider.IsProvider() {
		return nil, apperror.NotFound(constant.MsgProviderNotFound)
	}
	if _, err := s.expiry.EnsureFresh(ctx, provider); err != nil {
		return nil, apperror.Internal(err)
	}
	if !provider.IsListable(s.now()) {
		return nil, apperror.NotFound(constant.MsgProviderNotFound)
	}

	return toPublicProviderResponse(provider), nil
}
