package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM.
// Missing rows are reported as (nil, nil); callers decide whether absence
// is an error.
type GormOrderRepository struct {
	db *Database
}

// NewGormOrderRepository creates a new GORM order repository
func NewGormOrderRepository(db *Database) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID retrieves an order with its shipping info
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	err := r.db.session(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	shipping, err := r.findShipping(ctx, []uuid.UUID{model.ID})
	if err != nil {
		return nil, err
	}
	return model.ToDomain(shipping[model.ID]), nil
}

// FindByBuyer retrieves orders placed by a buyer
func (r *GormOrderRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*trade.Order, int64, error) {
	return r.findWhere(ctx, filter, "buyer_id = ?", buyerID)
}

// FindBySeller retrieves orders received by a seller
func (r *GormOrderRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]*trade.Order, int64, error) {
	return r.findWhere(ctx, filter, "seller_id = ?", sellerID)
}

// FindByStatuses retrieves orders in any of the given statuses
func (r *GormOrderRepository) FindByStatuses(ctx context.Context, statuses []trade.OrderStatus, filter shared.Filter) ([]*trade.Order, int64, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = s.String()
	}
	return r.findWhere(ctx, filter, "status IN ?", values)
}

// Create persists a new order and its shipping info in one transaction
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	return r.db.Execute(ctx, func(ctx context.Context) error {
		tx := r.db.session(ctx)
		if err := tx.Create(models.OrderModelFromDomain(order)).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if order.ShippingInfo != nil {
			if err := tx.Create(models.ShippingInfoModelFromDomain(order.ShippingInfo)).Error; err != nil {
				return fmt.Errorf("failed to create shipping info: %w", err)
			}
		}
		return nil
	})
}

// Save persists order and shipping changes in one transaction. The write is
// version checked; a stale order is rejected with shared.ErrConcurrencyConflict.
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	order.IncrementVersion()
	model := models.OrderModelFromDomain(order)

	return r.db.Execute(ctx, func(ctx context.Context) error {
		tx := r.db.session(ctx)
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", order.ID, order.Version-1).
			Select("*").Omit("id", "created_at").
			Updates(model)
		if result.Error != nil {
			return fmt.Errorf("failed to save order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if order.ShippingInfo != nil {
			shipping := models.ShippingInfoModelFromDomain(order.ShippingInfo)
			if err := tx.Model(&models.ShippingInfoModel{}).
				Where("id = ?", shipping.ID).
				Select("*").Omit("id", "order_id", "created_at").
				Updates(shipping).Error; err != nil {
				return fmt.Errorf("failed to save shipping info: %w", err)
			}
		}
		return nil
	})
}

func (r *GormOrderRepository) findWhere(ctx context.Context, filter shared.Filter, cond string, args ...interface{}) ([]*trade.Order, int64, error) {
	session := r.db.session(ctx)

	var total int64
	if err := session.Model(&models.OrderModel{}).Where(cond, args...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var rows []models.OrderModel
	if err := applyFilter(session.Where(cond, args...), filter).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	shipping, err := r.findShipping(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	orders := make([]*trade.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain(shipping[rows[i].ID])
	}
	return orders, total, nil
}

func (r *GormOrderRepository) findShipping(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]*models.ShippingInfoModel, error) {
	result := make(map[uuid.UUID]*models.ShippingInfoModel, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	var rows []models.ShippingInfoModel
	if err := r.db.session(ctx).Where("order_id IN ?", orderIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load shipping info: %w", err)
	}
	for i := range rows {
		result[rows[i].OrderID] = &rows[i]
	}
	return result, nil
}
