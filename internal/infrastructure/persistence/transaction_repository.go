package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/wallet"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransactionRepository implements wallet.TransactionRepository using GORM.
// The ledger is append-only: entries are inserted and their status advanced,
// never deleted.
type GormTransactionRepository struct {
	db *Database
}

// NewGormTransactionRepository creates a new GORM transaction repository
func NewGormTransactionRepository(db *Database) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID retrieves a ledger entry by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Transaction, error) {
	var model models.WalletTransactionModel
	err := r.db.session(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return model.ToDomain(), nil
}

// FindByWallet retrieves the ledger entries for a wallet, newest first by default
func (r *GormTransactionRepository) FindByWallet(ctx context.Context, walletID uuid.UUID, filter shared.Filter) ([]*wallet.Transaction, int64, error) {
	session := r.db.session(ctx)

	var total int64
	if err := session.Model(&models.WalletTransactionModel{}).
		Where("wallet_id = ?", walletID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var rows []models.WalletTransactionModel
	if err := applyFilter(session.Where("wallet_id = ?", walletID), filter).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	transactions := make([]*wallet.Transaction, len(rows))
	for i := range rows {
		transactions[i] = rows[i].ToDomain()
	}
	return transactions, total, nil
}

// Create appends a new ledger entry
func (r *GormTransactionRepository) Create(ctx context.Context, tx *wallet.Transaction) error {
	if err := r.db.session(ctx).Create(models.WalletTransactionModelFromDomain(tx)).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// Update persists a status change on an existing entry
func (r *GormTransactionRepository) Update(ctx context.Context, tx *wallet.Transaction) error {
	model := models.WalletTransactionModelFromDomain(tx)
	result := r.db.session(ctx).Model(&models.WalletTransactionModel{}).
		Where("id = ?", tx.ID).
		Select("status", "updated_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
