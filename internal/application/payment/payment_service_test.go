package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/domain/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mocks
// =============================================================================

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByGatewayReference(ctx context.Context, ref string) (*payment.Payment, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*payment.Payment, int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]*payment.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByWallet(ctx context.Context, walletID uuid.UUID, filter shared.Filter) ([]*wallet.Transaction, int64, error) {
	args := m.Called(ctx, walletID, filter)
	return args.Get(0).([]*wallet.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *wallet.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *wallet.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// memoryIdempotencyStore is an in-process stand-in for the redis store
type memoryIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{seen: make(map[string]struct{})}
}

func (s *memoryIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func (s *memoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok, nil
}

type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockGateway settles synchronously when completed is true
type mockGateway struct {
	gateway   payment.Gateway
	completed bool
	reference string
}

func (g *mockGateway) Gateway() payment.Gateway {
	return g.gateway
}

func (g *mockGateway) CreateCharge(_ context.Context, _ *payment.Payment) (*payment.GatewayResult, error) {
	return &payment.GatewayResult{
		Reference: g.reference,
		Completed: g.completed,
	}, nil
}

type fixture struct {
	paymentRepo *MockPaymentRepository
	walletRepo  *MockWalletRepository
	txRepo      *MockTransactionRepository
	store       *memoryIdempotencyStore
	svc         *PaymentService
}

func newFixture(clients ...payment.GatewayClient) *fixture {
	f := &fixture{
		paymentRepo: new(MockPaymentRepository),
		walletRepo:  new(MockWalletRepository),
		txRepo:      new(MockTransactionRepository),
		store:       newMemoryIdempotencyStore(),
	}
	f.svc = NewPaymentService(f.paymentRepo, f.walletRepo, f.txRepo, f.store, passthroughUnitOfWork{}, clients...)
	return f
}

func fundedWallet(t *testing.T, userID uuid.UUID, balance float64) *wallet.Wallet {
	w, err := wallet.NewWallet(userID)
	require.NoError(t, err)
	_, err = w.Deposit(valueobject.NewMoneyEGPFromFloat(balance), "seed")
	require.NoError(t, err)
	return w
}

// =============================================================================
// Tests
// =============================================================================

func TestPaymentService_CreatePayment_MockGatewaySettlesImmediately(t *testing.T) {
	f := newFixture(&mockGateway{gateway: payment.GatewayMock, completed: true, reference: "MOCK-" + uuid.NewString()})
	userID := uuid.New()
	w := fundedWallet(t, userID, 500)

	f.walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)
	f.walletRepo.On("Save", mock.Anything, w).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*wallet.Transaction")).Return(nil)
	f.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)

	result, err := f.svc.CreatePayment(context.Background(), CreatePaymentRequest{
		UserID:      userID,
		Amount:      valueobject.NewMoneyEGPFromFloat(120),
		Gateway:     payment.GatewayMock,
		Description: "order checkout",
	})
	require.NoError(t, err)

	assert.Equal(t, payment.StatusCompleted, result.Status)
	assert.Contains(t, result.GatewayReference, "MOCK-")
	// Wallet debited and ledger entry written alongside the payment row
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(380)))
	f.walletRepo.AssertExpectations(t)
	f.txRepo.AssertExpectations(t)
	f.paymentRepo.AssertExpectations(t)
}

func TestPaymentService_CreatePayment_LockedWalletFailsWholeCall(t *testing.T) {
	f := newFixture(&mockGateway{gateway: payment.GatewayMock, completed: true, reference: "MOCK-ref"})
	userID := uuid.New()
	w := fundedWallet(t, userID, 500)
	require.NoError(t, w.Lock())

	f.walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)

	_, err := f.svc.CreatePayment(context.Background(), CreatePaymentRequest{
		UserID:  userID,
		Amount:  valueobject.NewMoneyEGPFromFloat(120),
		Gateway: payment.GatewayMock,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrWalletLocked)
	// No rows land when settlement is rejected
	f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_CreatePayment_AsyncGatewayStaysPending(t *testing.T) {
	f := newFixture(&mockGateway{gateway: payment.GatewayStripe, completed: false, reference: "pi_123"})
	userID := uuid.New()

	f.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)

	result, err := f.svc.CreatePayment(context.Background(), CreatePaymentRequest{
		UserID:  userID,
		Amount:  valueobject.NewMoneyEGPFromFloat(50),
		Gateway: payment.GatewayStripe,
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, result.Status)
	assert.Equal(t, "pi_123", result.GatewayReference)
	// No wallet interaction until the callback arrives
	f.walletRepo.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
}

func TestPaymentService_CreatePayment_UnknownGateway(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreatePayment(context.Background(), CreatePaymentRequest{
		UserID:  uuid.New(),
		Amount:  valueobject.NewMoneyEGPFromFloat(10),
		Gateway: payment.GatewayPayPal,
	})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_GATEWAY", derr.Code)
}

func TestPaymentService_HandleGatewayCallback_CompletesPendingPayment(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	w := fundedWallet(t, userID, 200)
	p, err := payment.NewPayment(userID, nil, valueobject.NewMoneyEGPFromFloat(80), payment.GatewayStripe, "checkout")
	require.NoError(t, err)
	p.AttachGatewayReference("pi_456")

	f.paymentRepo.On("FindByGatewayReference", mock.Anything, "pi_456").Return(p, nil)
	f.paymentRepo.On("Update", mock.Anything, p).Return(nil)
	f.walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)
	f.walletRepo.On("Save", mock.Anything, w).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*wallet.Transaction")).Return(nil)

	require.NoError(t, f.svc.HandleGatewayCallback(context.Background(), "pi_456", true))
	assert.Equal(t, payment.StatusCompleted, p.Status)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(120)))
}

func TestPaymentService_HandleGatewayCallback_Idempotent(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	w := fundedWallet(t, userID, 200)
	p, err := payment.NewPayment(userID, nil, valueobject.NewMoneyEGPFromFloat(80), payment.GatewayStripe, "checkout")
	require.NoError(t, err)
	p.AttachGatewayReference("pi_789")

	f.paymentRepo.On("FindByGatewayReference", mock.Anything, "pi_789").Return(p, nil)
	f.paymentRepo.On("Update", mock.Anything, p).Return(nil)
	f.walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)
	f.walletRepo.On("Save", mock.Anything, w).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*wallet.Transaction")).Return(nil)

	require.NoError(t, f.svc.HandleGatewayCallback(context.Background(), "pi_789", true))
	// Replayed webhook is a no-op: no second debit
	require.NoError(t, f.svc.HandleGatewayCallback(context.Background(), "pi_789", true))
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(120)))
	f.txRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestPaymentService_HandleGatewayCallback_RetryAfterTransientFailure(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	w := fundedWallet(t, userID, 200)

	// Each delivery reloads the payment row, as the real repository would
	first, err := payment.NewPayment(userID, nil, valueobject.NewMoneyEGPFromFloat(80), payment.GatewayStripe, "checkout")
	require.NoError(t, err)
	first.AttachGatewayReference("pi_900")
	retry, err := payment.NewPayment(userID, nil, valueobject.NewMoneyEGPFromFloat(80), payment.GatewayStripe, "checkout")
	require.NoError(t, err)
	retry.AttachGatewayReference("pi_900")

	f.paymentRepo.On("FindByGatewayReference", mock.Anything, "pi_900").Return(first, nil).Once()
	f.paymentRepo.On("FindByGatewayReference", mock.Anything, "pi_900").Return(retry, nil).Once()
	f.walletRepo.On("FindByUserID", mock.Anything, userID).Return(nil, errors.New("db connection lost")).Once()
	f.walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)
	f.walletRepo.On("Save", mock.Anything, w).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*wallet.Transaction")).Return(nil)
	f.paymentRepo.On("Update", mock.Anything, retry).Return(nil)

	require.Error(t, f.svc.HandleGatewayCallback(context.Background(), "pi_900", true))

	// The failed delivery left no dedup mark, so the gateway's retry settles
	require.NoError(t, f.svc.HandleGatewayCallback(context.Background(), "pi_900", true))
	assert.Equal(t, payment.StatusCompleted, retry.Status)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(120)))
	f.txRepo.AssertNumberOfCalls(t, "Create", 1)
	f.paymentRepo.AssertNumberOfCalls(t, "FindByGatewayReference", 2)
}

func TestPaymentService_HandleGatewayCallback_UnknownReference(t *testing.T) {
	f := newFixture()

	f.paymentRepo.On("FindByGatewayReference", mock.Anything, "pi_ghost").Return(nil, nil)

	err := f.svc.HandleGatewayCallback(context.Background(), "pi_ghost", true)
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "CALLBACK_UNRESOLVABLE", derr.Code)

	// An unresolvable callback leaves no mark; the reference can settle later
	seen, err := f.store.IsProcessed(context.Background(), "pi_ghost")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestPaymentService_HandleGatewayCallback_Failure(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	p, err := payment.NewPayment(userID, nil, valueobject.NewMoneyEGPFromFloat(80), payment.GatewayPayPal, "checkout")
	require.NoError(t, err)
	p.AttachGatewayReference("pp_1")

	f.paymentRepo.On("FindByGatewayReference", mock.Anything, "pp_1").Return(p, nil)
	f.paymentRepo.On("Update", mock.Anything, p).Return(nil)

	require.NoError(t, f.svc.HandleGatewayCallback(context.Background(), "pp_1", false))
	assert.Equal(t, payment.StatusFailed, p.Status)
	// Failed callbacks never touch the wallet
	f.walletRepo.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
}

func TestPaymentService_GetPayment_ForeignPayment(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	p, err := payment.NewPayment(owner, nil, valueobject.NewMoneyEGPFromFloat(80), payment.GatewayMock, "checkout")
	require.NoError(t, err)

	f.paymentRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)

	_, err = f.svc.GetPayment(context.Background(), uuid.New(), p.ID)
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "PAYMENT_NOT_FOUND", derr.Code)
}
