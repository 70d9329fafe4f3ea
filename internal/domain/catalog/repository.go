package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides the product lookups needed by order creation and the
// exchange workflow
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
}
