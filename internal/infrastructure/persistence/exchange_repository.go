package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/exchange"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExchangeRepository implements exchange.Repository using GORM
type GormExchangeRepository struct {
	db *Database
}

// NewGormExchangeRepository creates a new GORM exchange repository
func NewGormExchangeRepository(db *Database) *GormExchangeRepository {
	return &GormExchangeRepository{db: db}
}

// FindByID retrieves an exchange request by its ID
func (r *GormExchangeRepository) FindByID(ctx context.Context, id uuid.UUID) (*exchange.ExchangeRequest, error) {
	var model models.ExchangeRequestModel
	err := r.db.session(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find exchange request: %w", err)
	}
	return model.ToDomain(), nil
}

// FindBySender retrieves exchange requests initiated by a user
func (r *GormExchangeRepository) FindBySender(ctx context.Context, senderID uuid.UUID, filter shared.Filter) ([]*exchange.ExchangeRequest, int64, error) {
	return r.findWhere(ctx, filter, "sender_id = ?", senderID)
}

// FindByReceiver retrieves exchange requests addressed to a user
func (r *GormExchangeRepository) FindByReceiver(ctx context.Context, receiverID uuid.UUID, filter shared.Filter) ([]*exchange.ExchangeRequest, int64, error) {
	return r.findWhere(ctx, filter, "receiver_id = ?", receiverID)
}

// FindAll retrieves all exchange requests
func (r *GormExchangeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*exchange.ExchangeRequest, int64, error) {
	return r.findWhere(ctx, filter, "1 = 1")
}

// CreateIfNoPendingPair inserts the request unless a pending request already
// links the same two products in either direction. The check and the insert
// run in one transaction so concurrent submissions cannot both pass.
func (r *GormExchangeRepository) CreateIfNoPendingPair(ctx context.Context, req *exchange.ExchangeRequest) error {
	return r.db.Execute(ctx, func(ctx context.Context) error {
		tx := r.db.session(ctx)

		var count int64
		err := tx.Model(&models.ExchangeRequestModel{}).
			Where("status = ?", exchange.StatusPending.String()).
			Where(
				"(offered_product_id = ? AND requested_product_id = ?) OR (offered_product_id = ? AND requested_product_id = ?)",
				req.OfferedProductID, req.RequestedProductID,
				req.RequestedProductID, req.OfferedProductID,
			).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check for pending pair: %w", err)
		}
		if count > 0 {
			return shared.ErrAlreadyExists
		}

		if err := tx.Create(models.ExchangeRequestModelFromDomain(req)).Error; err != nil {
			return fmt.Errorf("failed to create exchange request: %w", err)
		}
		return nil
	})
}

// Update persists changes to an existing exchange request
func (r *GormExchangeRepository) Update(ctx context.Context, req *exchange.ExchangeRequest) error {
	model := models.ExchangeRequestModelFromDomain(req)
	result := r.db.session(ctx).Model(&models.ExchangeRequestModel{}).
		Where("id = ?", req.ID).
		Select("status", "responded_at", "updated_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update exchange request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an exchange request. Only pending requests reach this point;
// the service enforces the rule before calling.
func (r *GormExchangeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.session(ctx).Where("id = ?", id).Delete(&models.ExchangeRequestModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete exchange request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormExchangeRepository) findWhere(ctx context.Context, filter shared.Filter, cond string, args ...interface{}) ([]*exchange.ExchangeRequest, int64, error) {
	session := r.db.session(ctx)

	var total int64
	if err := session.Model(&models.ExchangeRequestModel{}).Where(cond, args...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exchange requests: %w", err)
	}

	var rows []models.ExchangeRequestModel
	if err := applyFilter(session.Where(cond, args...), filter).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exchange requests: %w", err)
	}

	requests := make([]*exchange.ExchangeRequest, len(rows))
	for i := range rows {
		requests[i] = rows[i].ToDomain()
	}
	return requests, total, nil
}
