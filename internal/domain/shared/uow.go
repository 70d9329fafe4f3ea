package shared

import "context"

// UnitOfWork runs fn atomically. Repository calls made with the context
// passed to fn join the same database transaction; an error from fn rolls
// everything back.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}
