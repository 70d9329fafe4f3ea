package models

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog products
type ProductModel struct {
	BaseModel
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title       string          `gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsAvailable bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for ProductModel
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:  m.ToBaseEntity(),
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Price:       m.Price,
		IsAvailable: m.IsAvailable,
	}
}

// ProductModelFromDomain converts a domain product to its persistence model
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Price:       p.Price,
		IsAvailable: p.IsAvailable,
	}
	m.FromBaseEntity(p.BaseEntity)
	return m
}
