package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Wallet is the per-user balance aggregate. Every balance mutation returns
// the ledger Transaction describing it; the service persists the wallet and
// the entry in one unit of work so the ledger always explains the balance.
//
// The balance is never negative and is only ever changed through the methods
// below. The Version field backs the optimistic write check in persistence.
type Wallet struct {
	shared.BaseAggregateRoot
	UserID              uuid.UUID
	Balance             decimal.Decimal
	IsLocked            bool
	LinkedPaymentMethod string
}

// NewWallet creates an empty, unlocked wallet for a user
func NewWallet(userID uuid.UUID) (*Wallet, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}

	w := &Wallet{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Balance:           decimal.Zero,
	}
	w.AddDomainEvent(NewWalletCreatedEvent(w))
	return w, nil
}

// GetBalanceMoney returns the balance as Money
func (w *Wallet) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyEGP(w.Balance)
}

// CanAfford reports whether the balance covers the given amount
func (w *Wallet) CanAfford(amount valueobject.Money) bool {
	return w.Balance.GreaterThanOrEqual(amount.Amount())
}

// Deposit credits the wallet. Deposits are accepted even while the wallet is
// locked so an account under review can still be topped up.
func (w *Wallet) Deposit(amount valueobject.Money, description string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Deposit amount must be positive")
	}

	w.Balance = w.Balance.Add(amount.Amount())
	w.UpdatedAt = time.Now().UTC()

	tx := newTransaction(w.ID, amount.Amount(), TransactionTypeDeposit, TransactionStatusCompleted, description)
	w.AddDomainEvent(NewWalletCreditedEvent(w, tx))
	return tx, nil
}

// Withdraw debits the wallet after a balance check. Withdrawals do not
// consult the lock flag; locking blocks payments only.
func (w *Wallet) Withdraw(amount valueobject.Money, description string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Withdrawal amount must be positive")
	}
	if !w.CanAfford(amount) {
		return nil, shared.ErrInsufficientBalance
	}

	w.Balance = w.Balance.Sub(amount.Amount())
	w.UpdatedAt = time.Now().UTC()

	tx := newTransaction(w.ID, amount.Amount(), TransactionTypeWithdraw, TransactionStatusCompleted, description)
	w.AddDomainEvent(NewWalletDebitedEvent(w, tx))
	return tx, nil
}

// Pay debits the wallet for an order or payment. Unlike Withdraw it honours
// the lock flag: a locked wallet cannot pay.
func (w *Wallet) Pay(amount valueobject.Money, orderID, paymentID *uuid.UUID, description string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if w.IsLocked {
		return nil, shared.ErrWalletLocked
	}
	if !w.CanAfford(amount) {
		return nil, shared.ErrInsufficientBalance
	}

	w.Balance = w.Balance.Sub(amount.Amount())
	w.UpdatedAt = time.Now().UTC()

	tx := newTransaction(w.ID, amount.Amount(), TransactionTypePayment, TransactionStatusCompleted, description)
	tx.RelatedOrderID = orderID
	tx.PaymentID = paymentID
	w.AddDomainEvent(NewWalletDebitedEvent(w, tx))
	return tx, nil
}

// Refund credits the wallet back for a completed payment entry. The original
// entry is never amended; a new Refund entry is appended to the ledger.
func (w *Wallet) Refund(original *Transaction, description string) (*Transaction, error) {
	if original == nil || original.WalletID != w.ID {
		// A foreign transaction id is indistinguishable from a missing one
		return nil, shared.NewDomainError("TRANSACTION_NOT_FOUND", "Original transaction not found")
	}
	if !original.IsRefundable() {
		return nil, shared.NewDomainError("INVALID_STATE",
			"Only completed payment transactions can be refunded")
	}

	w.Balance = w.Balance.Add(original.Amount)
	w.UpdatedAt = time.Now().UTC()

	tx := newTransaction(w.ID, original.Amount, TransactionTypeRefund, TransactionStatusCompleted, description)
	tx.RelatedOrderID = original.RelatedOrderID
	tx.PaymentID = original.PaymentID
	w.AddDomainEvent(NewWalletCreditedEvent(w, tx))
	return tx, nil
}

// Lock blocks payments from the wallet
func (w *Wallet) Lock() error {
	if w.IsLocked {
		return shared.NewDomainError("INVALID_STATE", "Wallet is already locked")
	}
	w.IsLocked = true
	w.UpdatedAt = time.Now().UTC()
	w.AddDomainEvent(NewWalletLockedEvent(w))
	return nil
}

// Unlock re-enables payments
func (w *Wallet) Unlock() error {
	if !w.IsLocked {
		return shared.NewDomainError("INVALID_STATE", "Wallet is not locked")
	}
	w.IsLocked = false
	w.UpdatedAt = time.Now().UTC()
	w.AddDomainEvent(NewWalletUnlockedEvent(w))
	return nil
}

// LinkPaymentMethod attaches an external payment method identifier
func (w *Wallet) LinkPaymentMethod(method string) error {
	if method == "" {
		return shared.NewDomainError("INVALID_INPUT", "Payment method cannot be empty")
	}
	w.LinkedPaymentMethod = method
	w.UpdatedAt = time.Now().UTC()
	return nil
}
