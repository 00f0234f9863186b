package memory

import (
	"context"

	"provider-marketplace-be/internal/repository/contract"
	"provider-marketplace-be/internal/repository/unitofwork"
)

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork holds the store's transaction lock between Begin and Commit or
// Rollback. Rollback restores the rows written through its repositories.
type UnitOfWork struct {
	store  *Store
	active bool
	tx     *journal
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return unitofwork.ErrTxAlreadyStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.store.txMu.Lock()
	u.tx = newJournal()
	u.active = true
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.active {
		return unitofwork.ErrNoTransaction
	}
	u.active = false
	u.tx = nil
	u.store.txMu.Unlock()
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.active {
		return unitofwork.ErrNoTransaction
	}
	u.store.undo(u.tx)
	u.active = false
	u.tx = nil
	u.store.txMu.Unlock()
	return nil
}

func (u *UnitOfWork) UserRepository() contract.UserRepository {
	return &UserRepository{store: u.store, tx: u.tx}
}

func (u *UnitOfWork) SubscriptionPaymentRepository() contract.SubscriptionPaymentRepository {
	return &SubscriptionPaymentRepository{store: u.store, tx: u.tx}
}
