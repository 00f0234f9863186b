package unitofwork

import (
	"context"

	"provider-marketplace-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SubscriptionPaymentRepository() contract.SubscriptionPaymentRepository
}
