// Package memory holds map-backed repositories with the same semantics as the
// gorm implementations. The service and controller tests run on it.
package memory

import (
	"sync"

	"provider-marketplace-be/internal/entity"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	payments map[string]*entity.SubscriptionPayment

	// txMu serializes units of work.
	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*entity.User),
		payments: make(map[string]*entity.SubscriptionPayment),
	}
}

// journal records the value each row had before a unit of work first wrote
// it. A nil entry means the row did not exist. Rollback restores only these
// rows, so writes made outside the unit of work to other rows survive it.
type journal struct {
	users    map[uuid.UUID]*entity.User
	payments map[string]*entity.SubscriptionPayment
}

func newJournal() *journal {
	return &journal{
		users:    make(map[uuid.UUID]*entity.User),
		payments: make(map[string]*entity.SubscriptionPayment),
	}
}

// touchUser must be called with the store mutex held, before the write.
func (j *journal) touchUser(s *Store, id uuid.UUID) {
	if j == nil {
		return
	}
	if _, seen := j.users[id]; !seen {
		j.users[id] = cloneUser(s.users[id])
	}
}

// touchPayment must be called with the store mutex held, before the write.
func (j *journal) touchPayment(s *Store, sessionId string) {
	if j == nil {
		return
	}
	if _, seen := j.payments[sessionId]; !seen {
		j.payments[sessionId] = clonePayment(s.payments[sessionId])
	}
}

func (s *Store) undo(j *journal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, prior := range j.users {
		if prior == nil {
			delete(s.users, id)
		} else {
			s.users[id] = prior
		}
	}
	for sessionId, prior := range j.payments {
		if prior == nil {
			delete(s.payments, sessionId)
		} else {
			s.payments[sessionId] = prior
		}
	}
}

func cloneUser(u *entity.User) *entity.User {
	if u == nil {
		return nil
	}
	c := *u
	c.VerificationReason = cloneString(u.VerificationReason)
	c.StripeCustomerId = cloneString(u.StripeCustomerId)
	c.StripeSubscriptionId = cloneString(u.StripeSubscriptionId)
	c.SubscriptionStartDate = cloneTime(u.SubscriptionStartDate)
	c.SubscriptionEndDate = cloneTime(u.SubscriptionEndDate)
	c.CheckoutLockedUntil = cloneTime(u.CheckoutLockedUntil)
	return &c
}

func clonePayment(p *entity.SubscriptionPayment) *entity.SubscriptionPayment {
	if p == nil {
		return nil
	}
	c := *p
	c.StripeCustomerId = cloneString(p.StripeCustomerId)
	c.StripeSubscriptionId = cloneString(p.StripeSubscriptionId)
	c.StripeEventId = cloneString(p.StripeEventId)
	c.PaidAt = cloneTime(p.PaidAt)
	c.ExpiresAt = cloneTime(p.ExpiresAt)
	if p.GatewayPayload != nil {
		c.GatewayPayload = append([]byte(nil), p.GatewayPayload...)
	}
	return &c
}
