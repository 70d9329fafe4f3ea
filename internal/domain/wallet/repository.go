package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Repository provides persistence for wallets.
// Save must reject the write with shared.ErrConcurrencyConflict when the
// stored version no longer matches the version the wallet was loaded at.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Wallet, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	Create(ctx context.Context, w *Wallet) error
	Save(ctx context.Context, w *Wallet) error
}

// TransactionRepository provides persistence for ledger entries
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByWallet(ctx context.Context, walletID uuid.UUID, filter shared.Filter) ([]*Transaction, int64, error)
	Create(ctx context.Context, tx *Transaction) error
	Update(ctx context.Context, tx *Transaction) error
}
