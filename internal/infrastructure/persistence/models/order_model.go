package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for orders
type OrderModel struct {
	AggregateModel
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BuyerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PlatformFee  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	SellerAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status       string          `gorm:"type:varchar(20);not null;index"`
	PaidAt       *time.Time
	CompletedAt  *time.Time
}

// TableName returns the table name for OrderModel
func (OrderModel) TableName() string {
	return "orders"
}

// ShippingInfoModel is the persistence model for order shipments
type ShippingInfoModel struct {
	BaseModel
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	RecipientName string          `gorm:"type:varchar(255);not null"`
	Address       string          `gorm:"type:text;not null"`
	City          string          `gorm:"type:varchar(100)"`
	PostalCode    string          `gorm:"type:varchar(20)"`
	PhoneNumber   string          `gorm:"type:varchar(30)"`
	Method        string          `gorm:"type:varchar(50)"`
	Fee           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Status        string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for ShippingInfoModel
func (ShippingInfoModel) TableName() string {
	return "shipping_info"
}

// ToDomain converts the persistence models to a domain order
func (m *OrderModel) ToDomain(shipping *ShippingInfoModel) *trade.Order {
	order := &trade.Order{
		BaseAggregateRoot: m.ToBaseAggregateRoot(),
		ProductID:         m.ProductID,
		BuyerID:           m.BuyerID,
		SellerID:          m.SellerID,
		TotalAmount:       m.TotalAmount,
		PlatformFee:       m.PlatformFee,
		SellerAmount:      m.SellerAmount,
		Status:            trade.OrderStatus(m.Status),
		PaidAt:            m.PaidAt,
		CompletedAt:       m.CompletedAt,
	}
	if shipping != nil {
		order.ShippingInfo = shipping.ToDomain()
	}
	return order
}

// OrderModelFromDomain converts a domain order to its persistence model
func OrderModelFromDomain(order *trade.Order) *OrderModel {
	m := &OrderModel{
		ProductID:    order.ProductID,
		BuyerID:      order.BuyerID,
		SellerID:     order.SellerID,
		TotalAmount:  order.TotalAmount,
		PlatformFee:  order.PlatformFee,
		SellerAmount: order.SellerAmount,
		Status:       order.Status.String(),
		PaidAt:       order.PaidAt,
		CompletedAt:  order.CompletedAt,
	}
	m.FromBaseAggregateRoot(order.BaseAggregateRoot)
	return m
}

// ToDomain converts the persistence model to domain shipping info
func (m *ShippingInfoModel) ToDomain() *trade.ShippingInfo {
	return &trade.ShippingInfo{
		ID:            m.ID,
		OrderID:       m.OrderID,
		RecipientName: m.RecipientName,
		Address:       m.Address,
		City:          m.City,
		PostalCode:    m.PostalCode,
		PhoneNumber:   m.PhoneNumber,
		Method:        m.Method,
		Fee:           m.Fee,
		Status:        trade.ShippingStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ShippingInfoModelFromDomain converts domain shipping info to its persistence model
func ShippingInfoModelFromDomain(info *trade.ShippingInfo) *ShippingInfoModel {
	return &ShippingInfoModel{
		BaseModel: BaseModel{
			ID:        info.ID,
			CreatedAt: info.CreatedAt,
			UpdatedAt: info.UpdatedAt,
		},
		OrderID:       info.OrderID,
		RecipientName: info.RecipientName,
		Address:       info.Address,
		City:          info.City,
		PostalCode:    info.PostalCode,
		PhoneNumber:   info.PhoneNumber,
		Method:        info.Method,
		Fee:           info.Fee,
		Status:        info.Status.String(),
	}
}
