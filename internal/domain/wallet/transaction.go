package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "Deposit"
	TransactionTypeWithdraw TransactionType = "Withdraw"
	TransactionTypePayment  TransactionType = "Payment"
	TransactionTypeRefund   TransactionType = "Refund"
)

// IsValid checks if the type is a valid TransactionType
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypePayment, TransactionTypeRefund:
		return true
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// TransactionStatus represents the lifecycle of a ledger entry
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusCompleted TransactionStatus = "Completed"
	TransactionStatusCancelled TransactionStatus = "Cancelled"
	TransactionStatusFailed    TransactionStatus = "Failed"
)

// IsValid checks if the status is a valid TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusCancelled, TransactionStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// Transaction is a single ledger entry. The ledger is append-only: entries
// are never amended or deleted once written, only the status may advance.
// Amounts are stored positive; the type carries the direction.
type Transaction struct {
	shared.BaseEntity
	WalletID       uuid.UUID
	Amount         decimal.Decimal
	Type           TransactionType
	Status         TransactionStatus
	Description    string
	RelatedOrderID *uuid.UUID
	PaymentID      *uuid.UUID
}

func newTransaction(walletID uuid.UUID, amount decimal.Decimal, txType TransactionType, status TransactionStatus, description string) *Transaction {
	return &Transaction{
		BaseEntity:  shared.NewBaseEntity(),
		WalletID:    walletID,
		Amount:      amount,
		Type:        txType,
		Status:      status,
		Description: description,
	}
}

// Confirm advances a pending entry to Completed. The balance was already
// adjusted when the entry was written, so confirmation touches only the
// status and can never double-apply the amount.
func (t *Transaction) Confirm() error {
	if t.Status != TransactionStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			"Only pending transactions can be confirmed")
	}
	t.Status = TransactionStatusCompleted
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel marks a pending entry as Cancelled
func (t *Transaction) Cancel() error {
	if t.Status != TransactionStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			"Only pending transactions can be cancelled")
	}
	t.Status = TransactionStatusCancelled
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// IsRefundable reports whether a refund entry may be issued against this one
func (t *Transaction) IsRefundable() bool {
	return t.Type == TransactionTypePayment && t.Status == TransactionStatusCompleted
}
