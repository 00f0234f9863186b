package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/pkg/apperror"
	"provider-marketplace-be/internal/pkg/dedup"
	"provider-marketplace-be/internal/pkg/logger"
	"provider-marketplace-be/internal/repository/memory"
	"provider-marketplace-be/internal/repository/unitofwork"
	"provider-marketplace-be/pkg/billing"
	"provider-marketplace-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCustomer(ctx context.Context, req billing.CustomerRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *mockGateway) ParseWebhook(ctx context.Context, payload []byte, signature string) (*billing.WebhookEvent, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.WebhookEvent), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]string, 0, len(p.events))
	for _, e := range p.events {
		res = append(res, e.EventType())
	}
	return res
}

func (p *recordingPublisher) count(eventType string) int {
	n := 0
	for _, t := range p.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

type testEnv struct {
	store   *memory.Store
	uow     unitofwork.RepositoryFactory
	now     time.Time
	events  *recordingPublisher
	gateway *mockGateway

	expiry       IExpiryService
	verification IVerificationService
	subscription ISubscriptionService
	directory    IDirectoryService
}

var testSettings = SubscriptionSettings{
	Amount:        2900,
	Currency:      "usd",
	Duration:      30 * 24 * time.Hour,
	CheckoutLease: time.Minute,
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:   memory.NewStore(),
		now:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		events:  &recordingPublisher{},
		gateway: &mockGateway{},
	}
	env.uow = memory.NewRepositoryFactory(env.store)

	clock := func() time.Time { return env.now }
	log := logger.NewNopLogger()

	env.expiry = NewExpiryService(env.uow, env.events, log, clock)
	env.verification = NewVerificationService(env.uow, env.expiry, env.events, log, clock)
	env.subscription = NewSubscriptionService(
		env.uow, env.gateway, env.expiry, dedup.NewMemoryDeduplicator(time.Hour),
		env.events, log, testSettings, clock,
	)
	env.directory = NewDirectoryService(env.uow, env.expiry, log, clock)

	t.Cleanup(func() { env.gateway.AssertExpectations(t) })
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

// addProvider stores a signup-default provider after applying mutate.
func (e *testEnv) addProvider(t *testing.T, mutate func(u *entity.User)) *entity.User {
	t.Helper()
	u := entity.NewProvider(uuid.NewString()+"@example.com", "Provider "+uuid.NewString()[:8])
	u.CreatedAt = e.now
	u.UpdatedAt = e.now
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, memory.NewUserRepository(e.store).Create(context.Background(), u))
	return u
}

func approved(u *entity.User) {
	u.VerificationStatus = entity.VerificationStatusApproved
	u.IsVerified = true
	u.SubscriptionStatus = entity.SubscriptionStatusApprovedButUnsubscribed
}

func (e *testEnv) addApprovedProvider(t *testing.T) *entity.User {
	return e.addProvider(t, approved)
}

func (e *testEnv) addActiveProvider(t *testing.T, end time.Time) *entity.User {
	return e.addProvider(t, func(u *entity.User) {
		approved(u)
		start := end.Add(-testSettings.Duration)
		u.SubscriptionStatus = entity.SubscriptionStatusActive
		u.SubscriptionStartDate = &start
		u.SubscriptionEndDate = &end
	})
}

func (e *testEnv) addUser(t *testing.T, role entity.UserRole) *entity.User {
	return e.addProvider(t, func(u *entity.User) {
		u.Role = role
	})
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *entity.User {
	t.Helper()
	u, err := memory.NewUserRepository(e.store).FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func (e *testEnv) payment(t *testing.T, sessionId string) *entity.SubscriptionPayment {
	t.Helper()
	p, err := memory.NewSubscriptionPaymentRepository(e.store).FindBySessionID(context.Background(), sessionId)
	require.NoError(t, err)
	return p
}

func adminActor() entity.Actor {
	return entity.Actor{UserId: uuid.New(), Role: entity.UserRoleAdmin}
}

func providerActor(u *entity.User) entity.Actor {
	return entity.Actor{UserId: u.Id, Role: entity.UserRoleServiceProvider}
}

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.AppError, got %T", err)
	require.Equal(t, status, appErr.Status)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}

var errStoreDown = errors.New("store unavailable")

// failingFactory makes every transaction fail to start while fail is set.
type failingFactory struct {
	unitofwork.RepositoryFactory
	fail bool
}

func (f *failingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &failingUnitOfWork{UnitOfWork: f.RepositoryFactory.NewUnitOfWork(ctx), fail: f.fail}
}

type failingUnitOfWork struct {
	unitofwork.UnitOfWork
	fail bool
}

func (u *failingUnitOfWork) Begin(ctx context.Context) error {
	if u.fail {
		return errStoreDown
	}
	return u.UnitOfWork.Begin(ctx)
}

// stallingFactory holds the first transaction in Begin until release is
// closed and then fails it. Later transactions run normally.
type stallingFactory struct {
	unitofwork.RepositoryFactory
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newStallingFactory(inner unitofwork.RepositoryFactory) *stallingFactory {
	return &stallingFactory{
		RepositoryFactory: inner,
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (f *stallingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	uow := f.RepositoryFactory.NewUnitOfWork(ctx)
	stall := false
	f.once.Do(func() { stall = true })
	if !stall {
		return uow
	}
	return &stallingUnitOfWork{UnitOfWork: uow, factory: f}
}

type stallingUnitOfWork struct {
	unitofwork.UnitOfWork
	factory *stallingFactory
}

func (u *stallingUnitOfWork) Begin(ctx context.Context) error {
	close(u.factory.entered)
	<-u.factory.release
	return errStoreDown
}
