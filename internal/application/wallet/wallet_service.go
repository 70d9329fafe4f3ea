package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/domain/wallet"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// maxSaveAttempts bounds the optimistic-lock retry loop on balance mutations
const maxSaveAttempts = 3

// WalletService handles the wallet ledger. Every balance mutation writes the
// wallet row (with a version check) and its ledger entry in one database
// transaction; on a version conflict the whole mutation is retried against a
// fresh load, up to maxSaveAttempts times.
type WalletService struct {
	walletRepo wallet.Repository
	txRepo     wallet.TransactionRepository
	uow        shared.UnitOfWork
	events     shared.EventPublisher
}

// NewWalletService creates a new WalletService
func NewWalletService(walletRepo wallet.Repository, txRepo wallet.TransactionRepository, uow shared.UnitOfWork) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		uow:        uow,
	}
}

// SetEventPublisher wires the bus that receives wallet domain events.
// Events are published after the mutation is committed.
func (s *WalletService) SetEventPublisher(pub shared.EventPublisher) {
	s.events = pub
}

// AmountRequest is the shape shared by deposit, withdraw and pay calls
type AmountRequest struct {
	UserID      uuid.UUID
	Amount      valueobject.Money
	OrderID     *uuid.UUID
	Description string
}

// MutationResult reports a balance mutation and its ledger entry
type MutationResult struct {
	WalletID      uuid.UUID           `json:"wallet_id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	Type          string              `json:"type"`
	Amount        string              `json:"amount"`
	Balance       string              `json:"balance"`
	Transaction   *wallet.Transaction `json:"-"`
}

// BalanceResult is the wallet summary view
type BalanceResult struct {
	WalletID            uuid.UUID `json:"wallet_id"`
	UserID              uuid.UUID `json:"user_id"`
	Balance             string    `json:"balance"`
	IsLocked            bool      `json:"is_locked"`
	LinkedPaymentMethod string    `json:"linked_payment_method,omitempty"`
}

// CreateWallet creates a wallet for the user; at most one wallet per user
func (s *WalletService) CreateWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", "create")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrUserID, userID.String())

	existing, err := s.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check wallet: %w", err)
	}
	if existing != nil {
		err := shared.NewDomainError("ALREADY_EXISTS", "User already has a wallet")
		telemetry.RecordError(span, err)
		return nil, err
	}

	w, err := wallet.NewWallet(userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.walletRepo.Create(ctx, w); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	s.publishEvents(ctx, w)
	return w, nil
}

// GetBalance returns the wallet summary for a user
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (*BalanceResult, error) {
	w, err := s.findWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{
		WalletID:            w.ID,
		UserID:              w.UserID,
		Balance:             w.Balance.StringFixed(2),
		IsLocked:            w.IsLocked,
		LinkedPaymentMethod: w.LinkedPaymentMethod,
	}, nil
}

// Deposit credits the user's wallet
func (s *WalletService) Deposit(ctx context.Context, req AmountRequest) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", "deposit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrAmount, req.Amount.Amount().String(),
	)

	return s.mutate(ctx, span, req.UserID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return w.Deposit(req.Amount, req.Description)
	})
}

// Withdraw debits the user's wallet. Withdrawals skip the lock check;
// locking blocks payments only.
func (s *WalletService) Withdraw(ctx context.Context, req AmountRequest) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", "withdraw")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrAmount, req.Amount.Amount().String(),
	)

	return s.mutate(ctx, span, req.UserID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return w.Withdraw(req.Amount, req.Description)
	})
}

// Pay debits the user's wallet for an order; a locked wallet cannot pay
func (s *WalletService) Pay(ctx context.Context, req AmountRequest) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", "pay")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrAmount, req.Amount.Amount().String(),
	)

	return s.mutate(ctx, span, req.UserID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return w.Pay(req.Amount, req.OrderID, nil, req.Description)
	})
}

// Refund credits the user's wallet back for one of their completed payment
// entries. The original entry is never amended.
func (s *WalletService) Refund(ctx context.Context, userID, transactionID uuid.UUID, description string) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", "refund")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, userID.String(),
		telemetry.SpanAttrTransactionID, transactionID.String(),
	)

	original, err := s.txRepo.FindByID(ctx, transactionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if original == nil {
		err := shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	return s.mutate(ctx, span, userID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return w.Refund(original, description)
	})
}

// Lock blocks payments from the user's wallet
func (s *WalletService) Lock(ctx context.Context, userID uuid.UUID) error {
	return s.saveFlags(ctx, userID, func(w *wallet.Wallet) error {
		return w.Lock()
	})
}

// Unlock re-enables payments
func (s *WalletService) Unlock(ctx context.Context, userID uuid.UUID) error {
	return s.saveFlags(ctx, userID, func(w *wallet.Wallet) error {
		return w.Unlock()
	})
}

// LinkPaymentMethod attaches an external payment method identifier
func (s *WalletService) LinkPaymentMethod(ctx context.Context, userID uuid.UUID, method string) error {
	return s.saveFlags(ctx, userID, func(w *wallet.Wallet) error {
		return w.LinkPaymentMethod(method)
	})
}

// ConfirmTransaction advances one of the user's pending ledger entries to
// Completed. The balance is untouched; it was adjusted when the entry was
// written, so confirming twice can never double-apply.
func (s *WalletService) ConfirmTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*wallet.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", "confirm_transaction")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, transactionID.String())

	tx, err := s.findOwnTransaction(ctx, userID, transactionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := tx.Confirm(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.txRepo.Update(ctx, tx); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return tx, nil
}

// GetTransactions returns the user's ledger entries, newest first
func (s *WalletService) GetTransactions(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*wallet.Transaction, int64, error) {
	w, err := s.findWallet(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.txRepo.FindByWallet(ctx, w.ID, filter)
}

// GetTransaction returns one of the user's ledger entries
func (s *WalletService) GetTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*wallet.Transaction, error) {
	return s.findOwnTransaction(ctx, userID, transactionID)
}

// mutate loads the wallet, applies fn and persists wallet plus ledger entry
// atomically, retrying the whole sequence on a version conflict.
func (s *WalletService) mutate(ctx context.Context, span trace.Span, userID uuid.UUID, fn func(*wallet.Wallet) (*wallet.Transaction, error)) (*MutationResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		w, err := s.findWallet(ctx, userID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		tx, err := fn(w)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		err = s.uow.Execute(ctx, func(txCtx context.Context) error {
			if err := s.walletRepo.Save(txCtx, w); err != nil {
				return err
			}
			return s.txRepo.Create(txCtx, tx)
		})
		if err == nil {
			s.publishEvents(ctx, w)
			return &MutationResult{
				WalletID:      w.ID,
				TransactionID: tx.ID,
				Type:          tx.Type.String(),
				Amount:        tx.Amount.StringFixed(2),
				Balance:       w.Balance.StringFixed(2),
				Transaction:   tx,
			}, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save wallet: %w", err)
		}
		lastErr = err
	}

	telemetry.RecordError(span, lastErr)
	return nil, shared.ErrConcurrencyConflict
}

// saveFlags mutates non-balance wallet state under the same retry discipline
func (s *WalletService) saveFlags(ctx context.Context, userID uuid.UUID, fn func(*wallet.Wallet) error) error {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		w, err := s.findWallet(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(w); err != nil {
			return err
		}

		err = s.walletRepo.Save(ctx, w)
		if err == nil {
			s.publishEvents(ctx, w)
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return fmt.Errorf("failed to save wallet: %w", err)
		}
		lastErr = err
	}
	return lastErr
}

// publishEvents drains the wallet's pending events into the bus, if wired
func (s *WalletService) publishEvents(ctx context.Context, w *wallet.Wallet) {
	if s.events == nil {
		return
	}
	pending := w.GetDomainEvents()
	if len(pending) == 0 {
		return
	}
	w.ClearDomainEvents()
	_ = s.events.Publish(ctx, pending...)
}

func (s *WalletService) findWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	w, err := s.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if w == nil {
		return nil, shared.NewDomainError("WALLET_NOT_FOUND", "Wallet not found")
	}
	return w, nil
}

func (s *WalletService) findOwnTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*wallet.Transaction, error) {
	w, err := s.findWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	tx, err := s.txRepo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil || tx.WalletID != w.ID {
		return nil, shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
	}
	return tx, nil
}
