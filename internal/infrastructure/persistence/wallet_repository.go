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

// GormWalletRepository implements wallet.Repository using GORM
type GormWalletRepository struct {
	db *Database
}

// NewGormWalletRepository creates a new GORM wallet repository
func NewGormWalletRepository(db *Database) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// FindByID retrieves a wallet by its ID
func (r *GormWalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUserID retrieves a wallet by its owner
func (r *GormWalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

// Create persists a new wallet
func (r *GormWalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	if err := r.db.session(ctx).Create(models.WalletModelFromDomain(w)).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// Save persists wallet changes with an optimistic version check. A write
// against a stale version affects zero rows and is rejected with
// shared.ErrConcurrencyConflict; the caller reloads and retries.
func (r *GormWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	w.IncrementVersion()
	model := models.WalletModelFromDomain(w)

	result := r.db.session(ctx).Model(&models.WalletModel{}).
		Where("id = ? AND version = ?", w.ID, w.Version-1).
		Select("*").Omit("id", "user_id", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormWalletRepository) findOne(ctx context.Context, cond string, args ...interface{}) (*wallet.Wallet, error) {
	var model models.WalletModel
	err := r.db.session(ctx).Where(cond, args...).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return model.ToDomain(), nil
}
