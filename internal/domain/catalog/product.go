package catalog

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry referenced by orders and exchange requests.
// This context only needs the lookup surface; listing management lives in a
// separate system.
type Product struct {
	shared.BaseEntity
	OwnerID     uuid.UUID
	Title       string
	Price       decimal.Decimal
	IsAvailable bool
}

// GetPriceMoney returns the price as Money
func (p *Product) GetPriceMoney() valueobject.Money {
	return valueobject.NewMoneyEGP(p.Price)
}

// IsOwnedBy reports whether the user owns the product
func (p *Product) IsOwnedBy(userID uuid.UUID) bool {
	return p.OwnerID == userID
}
