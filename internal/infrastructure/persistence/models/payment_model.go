package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for payments
type PaymentModel struct {
	BaseModel
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID          *uuid.UUID      `gorm:"type:uuid;index"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Gateway          string          `gorm:"type:varchar(20);not null"`
	GatewayReference string          `gorm:"type:varchar(255);index"`
	Description      string          `gorm:"type:text"`
	Status           string          `gorm:"type:varchar(20);not null;index"`
	CompletedAt      *time.Time
}

// TableName returns the table name for PaymentModel
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain payment
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		BaseEntity:       m.ToBaseEntity(),
		UserID:           m.UserID,
		OrderID:          m.OrderID,
		Amount:           m.Amount,
		Gateway:          payment.Gateway(m.Gateway),
		GatewayReference: m.GatewayReference,
		Description:      m.Description,
		Status:           payment.Status(m.Status),
		CompletedAt:      m.CompletedAt,
	}
}

// PaymentModelFromDomain converts a domain payment to its persistence model
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{
		UserID:           p.UserID,
		OrderID:          p.OrderID,
		Amount:           p.Amount,
		Gateway:          p.Gateway.String(),
		GatewayReference: p.GatewayReference,
		Description:      p.Description,
		Status:           p.Status.String(),
		CompletedAt:      p.CompletedAt,
	}
	m.FromBaseEntity(p.BaseEntity)
	return m
}
