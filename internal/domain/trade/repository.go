package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// OrderRepository provides persistence for orders and their shipping info.
// Save persists the order and its shipping info as one unit of work.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*Order, int64, error)
	FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]*Order, int64, error)
	FindByStatuses(ctx context.Context, statuses []OrderStatus, filter shared.Filter) ([]*Order, int64, error)
	Create(ctx context.Context, order *Order) error
	Save(ctx context.Context, order *Order) error
}
