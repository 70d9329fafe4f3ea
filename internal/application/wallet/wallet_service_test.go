package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
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

// passthroughUnitOfWork runs the function without a real transaction
type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(walletRepo *MockWalletRepository, txRepo *MockTransactionRepository) *WalletService {
	return NewWalletService(walletRepo, txRepo, passthroughUnitOfWork{})
}

func testWallet(t *testing.T, userID uuid.UUID, balance float64) *wallet.Wallet {
	w, err := wallet.NewWallet(userID)
	require.NoError(t, err)
	if balance > 0 {
		_, err = w.Deposit(valueobject.NewMoneyEGPFromFloat(balance), "seed")
		require.NoError(t, err)
	}
	w.ClearDomainEvents()
	return w
}

// =============================================================================
// Tests
// =============================================================================

func TestWalletService_CreateWallet(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(nil, nil)
	walletRepo.On("Create", mock.Anything, mock.AnythingOfType("*wallet.Wallet")).Return(nil)

	w, err := svc.CreateWallet(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, w.UserID)
	assert.True(t, w.Balance.IsZero())
	walletRepo.AssertExpectations(t)
}

func TestWalletService_CreateWallet_Conflict(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(testWallet(t, userID, 0), nil)

	_, err := svc.CreateWallet(context.Background(), userID)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	walletRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWalletService_Deposit(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()
	w := testWallet(t, userID, 0)

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)
	walletRepo.On("Save", mock.Anything, w).Return(nil)
	txRepo.On("Create", mock.Anything, mock.AnythingOfType("*wallet.Transaction")).Return(nil)

	result, err := svc.Deposit(context.Background(), AmountRequest{
		UserID:      userID,
		Amount:      valueobject.NewMoneyEGPFromFloat(100),
		Description: "top up",
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", result.Balance)
	assert.Equal(t, "Deposit", result.Type)
	walletRepo.AssertExpectations(t)
	txRepo.AssertExpectations(t)
}

func TestWalletService_Deposit_WalletNotFound(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(nil, nil)

	_, err := svc.Deposit(context.Background(), AmountRequest{
		UserID: userID,
		Amount: valueobject.NewMoneyEGPFromFloat(100),
	})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "WALLET_NOT_FOUND", derr.Code)
}

func TestWalletService_Pay_LockedWallet(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()
	w := testWallet(t, userID, 500)
	require.NoError(t, w.Lock())

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)

	_, err := svc.Pay(context.Background(), AmountRequest{
		UserID: userID,
		Amount: valueobject.NewMoneyEGPFromFloat(50),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrWalletLocked)
	// Nothing persisted on rejection
	walletRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWalletService_Withdraw_InsufficientBalance(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(testWallet(t, userID, 10), nil)

	_, err := svc.Withdraw(context.Background(), AmountRequest{
		UserID: userID,
		Amount: valueobject.NewMoneyEGPFromFloat(20),
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
}

func TestWalletService_Mutation_RetriesOnVersionConflict(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()

	// Fresh wallet per attempt, as the service reloads after a conflict
	for i := 0; i < maxSaveAttempts; i++ {
		walletRepo.On("FindByUserID", mock.Anything, userID).Return(testWallet(t, userID, 100), nil).Once()
	}
	walletRepo.On("Save", mock.Anything, mock.AnythingOfType("*wallet.Wallet")).Return(shared.ErrConcurrencyConflict).Twice()
	walletRepo.On("Save", mock.Anything, mock.AnythingOfType("*wallet.Wallet")).Return(nil).Once()
	txRepo.On("Create", mock.Anything, mock.AnythingOfType("*wallet.Transaction")).Return(nil)

	result, err := svc.Withdraw(context.Background(), AmountRequest{
		UserID: userID,
		Amount: valueobject.NewMoneyEGPFromFloat(30),
	})
	require.NoError(t, err)
	assert.Equal(t, "70.00", result.Balance)
	walletRepo.AssertNumberOfCalls(t, "Save", 3)
}

func TestWalletService_Mutation_GivesUpAfterMaxAttempts(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()

	for i := 0; i < maxSaveAttempts; i++ {
		walletRepo.On("FindByUserID", mock.Anything, userID).Return(testWallet(t, userID, 100), nil).Once()
	}
	walletRepo.On("Save", mock.Anything, mock.AnythingOfType("*wallet.Wallet")).Return(shared.ErrConcurrencyConflict)

	_, err := svc.Deposit(context.Background(), AmountRequest{
		UserID: userID,
		Amount: valueobject.NewMoneyEGPFromFloat(10),
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	walletRepo.AssertNumberOfCalls(t, "Save", maxSaveAttempts)
}

func TestWalletService_Refund(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()
	w := testWallet(t, userID, 100)
	orderID := uuid.New()
	original, err := w.Pay(valueobject.NewMoneyEGPFromFloat(40), &orderID, nil, "order payment")
	require.NoError(t, err)

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)
	walletRepo.On("Save", mock.Anything, w).Return(nil)
	txRepo.On("FindByID", mock.Anything, original.ID).Return(original, nil)
	txRepo.On("Create", mock.Anything, mock.AnythingOfType("*wallet.Transaction")).Return(nil)

	result, err := svc.Refund(context.Background(), userID, original.ID, "order cancelled")
	require.NoError(t, err)
	assert.Equal(t, "Refund", result.Type)
	assert.Equal(t, "100.00", result.Balance)
	assert.NotEqual(t, original.ID, result.TransactionID)
}

func TestWalletService_Refund_ForeignTransaction(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()
	w := testWallet(t, userID, 100)

	other := testWallet(t, uuid.New(), 100)
	foreign, err := other.Pay(valueobject.NewMoneyEGPFromFloat(40), nil, nil, "other user's payment")
	require.NoError(t, err)

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)
	txRepo.On("FindByID", mock.Anything, foreign.ID).Return(foreign, nil)

	_, err = svc.Refund(context.Background(), userID, foreign.ID, "not mine")
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	// Reads as missing rather than revealing the entry exists
	assert.Equal(t, "TRANSACTION_NOT_FOUND", derr.Code)
	walletRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWalletService_Lock_AlreadyLocked(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()
	w := testWallet(t, userID, 0)
	require.NoError(t, w.Lock())
	w.ClearDomainEvents()

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)

	err := svc.Lock(context.Background(), userID)
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_STATE", derr.Code)
	walletRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestWalletService_ConfirmTransaction(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()
	w := testWallet(t, userID, 100)

	pending := &wallet.Transaction{
		BaseEntity: shared.NewBaseEntity(),
		WalletID:   w.ID,
		Amount:     decimal.NewFromInt(25),
		Type:       wallet.TransactionTypeDeposit,
		Status:     wallet.TransactionStatusPending,
	}

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)
	txRepo.On("FindByID", mock.Anything, pending.ID).Return(pending, nil)
	txRepo.On("Update", mock.Anything, pending).Return(nil)

	tx, err := svc.ConfirmTransaction(context.Background(), userID, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatusCompleted, tx.Status)
	// Balance untouched by confirmation
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)))

	// Second confirm fails and writes nothing new
	_, err = svc.ConfirmTransaction(context.Background(), userID, pending.ID)
	assert.Error(t, err)
	txRepo.AssertNumberOfCalls(t, "Update", 1)
}

func TestWalletService_ConfirmTransaction_ForeignTransaction(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	svc := newTestService(walletRepo, txRepo)
	userID := uuid.New()
	w := testWallet(t, userID, 100)

	foreign := &wallet.Transaction{
		BaseEntity: shared.NewBaseEntity(),
		WalletID:   uuid.New(),
		Amount:     decimal.NewFromInt(25),
		Type:       wallet.TransactionTypeDeposit,
		Status:     wallet.TransactionStatusPending,
	}

	walletRepo.On("FindByUserID", mock.Anything, userID).Return(w, nil)
	txRepo.On("FindByID", mock.Anything, foreign.ID).Return(foreign, nil)

	_, err := svc.ConfirmTransaction(context.Background(), userID, foreign.ID)
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "TRANSACTION_NOT_FOUND", derr.Code)
}
