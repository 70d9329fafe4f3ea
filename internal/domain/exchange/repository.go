package exchange

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Repository provides persistence for exchange requests.
// CreateIfNoPendingPair must perform the duplicate check and the insert in
// the same database transaction, returning shared.ErrAlreadyExists when a
// pending request already links the two products.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ExchangeRequest, error)
	FindBySender(ctx context.Context, senderID uuid.UUID, filter shared.Filter) ([]*ExchangeRequest, int64, error)
	FindByReceiver(ctx context.Context, receiverID uuid.UUID, filter shared.Filter) ([]*ExchangeRequest, int64, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*ExchangeRequest, int64, error)
	CreateIfNoPendingPair(ctx context.Context, r *ExchangeRequest) error
	Update(ctx context.Context, r *ExchangeRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}
