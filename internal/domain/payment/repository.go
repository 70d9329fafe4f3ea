package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Repository provides persistence for payments
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByGatewayReference(ctx context.Context, ref string) (*Payment, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*Payment, int64, error)
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
}
