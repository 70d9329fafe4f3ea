package wallet

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const AggregateTypeWallet = "Wallet"

const (
	EventTypeWalletCreated  = "WalletCreated"
	EventTypeWalletCredited = "WalletCredited"
	EventTypeWalletDebited  = "WalletDebited"
	EventTypeWalletLocked   = "WalletLocked"
	EventTypeWalletUnlocked = "WalletUnlocked"
)

// WalletCreatedEvent is raised when a wallet is created
type WalletCreatedEvent struct {
	shared.BaseDomainEvent
	WalletID uuid.UUID `json:"wallet_id"`
	UserID   uuid.UUID `json:"user_id"`
}

// NewWalletCreatedEvent creates a new WalletCreatedEvent
func NewWalletCreatedEvent(w *Wallet) *WalletCreatedEvent {
	return &WalletCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWalletCreated, AggregateTypeWallet, w.ID),
		WalletID:        w.ID,
		UserID:          w.UserID,
	}
}

// WalletCreditedEvent is raised when the balance increases
type WalletCreditedEvent struct {
	shared.BaseDomainEvent
	WalletID      uuid.UUID       `json:"wallet_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// NewWalletCreditedEvent creates a new WalletCreditedEvent
func NewWalletCreditedEvent(w *Wallet, tx *Transaction) *WalletCreditedEvent {
	return &WalletCreditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWalletCredited, AggregateTypeWallet, w.ID),
		WalletID:        w.ID,
		TransactionID:   tx.ID,
		Type:            tx.Type,
		Amount:          tx.Amount,
		NewBalance:      w.Balance,
	}
}

// WalletDebitedEvent is raised when the balance decreases
type WalletDebitedEvent struct {
	shared.BaseDomainEvent
	WalletID      uuid.UUID       `json:"wallet_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// NewWalletDebitedEvent creates a new WalletDebitedEvent
func NewWalletDebitedEvent(w *Wallet, tx *Transaction) *WalletDebitedEvent {
	return &WalletDebitedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWalletDebited, AggregateTypeWallet, w.ID),
		WalletID:        w.ID,
		TransactionID:   tx.ID,
		Type:            tx.Type,
		Amount:          tx.Amount,
		NewBalance:      w.Balance,
	}
}

// WalletLockedEvent is raised when payments are blocked
type WalletLockedEvent struct {
	shared.BaseDomainEvent
	WalletID uuid.UUID `json:"wallet_id"`
}

// NewWalletLockedEvent creates a new WalletLockedEvent
func NewWalletLockedEvent(w *Wallet) *WalletLockedEvent {
	return &WalletLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWalletLocked, AggregateTypeWallet, w.ID),
		WalletID:        w.ID,
	}
}

// WalletUnlockedEvent is raised when payments are re-enabled
type WalletUnlockedEvent struct {
	shared.BaseDomainEvent
	WalletID uuid.UUID `json:"wallet_id"`
}

// NewWalletUnlockedEvent creates a new WalletUnlockedEvent
func NewWalletUnlockedEvent(w *Wallet) *WalletUnlockedEvent {
	return &WalletUnlockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWalletUnlocked, AggregateTypeWallet, w.ID),
		WalletID:        w.ID,
	}
}
