package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/exchange"
)

// ExchangeRequestModel is the persistence model for exchange requests
type ExchangeRequestModel struct {
	BaseModel
	OfferedProductID   uuid.UUID `gorm:"type:uuid;not null;index:idx_exchange_pair"`
	RequestedProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_exchange_pair"`
	SenderID           uuid.UUID `gorm:"type:uuid;not null;index"`
	ReceiverID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Status             string    `gorm:"type:varchar(20);not null;index"`
	Message            string    `gorm:"type:text"`
	RespondedAt        *time.Time
}

// TableName returns the table name for ExchangeRequestModel
func (ExchangeRequestModel) TableName() string {
	return "exchange_requests"
}

// ToDomain converts the persistence model to a domain exchange request
func (m *ExchangeRequestModel) ToDomain() *exchange.ExchangeRequest {
	return &exchange.ExchangeRequest{
		BaseEntity:         m.ToBaseEntity(),
		OfferedProductID:   m.OfferedProductID,
		RequestedProductID: m.RequestedProductID,
		SenderID:           m.SenderID,
		ReceiverID:         m.ReceiverID,
		Status:             exchange.Status(m.Status),
		Message:            m.Message,
		RespondedAt:        m.RespondedAt,
	}
}

// ExchangeRequestModelFromDomain converts a domain exchange request to its persistence model
func ExchangeRequestModelFromDomain(r *exchange.ExchangeRequest) *ExchangeRequestModel {
	m := &ExchangeRequestModel{
		OfferedProductID:   r.OfferedProductID,
		RequestedProductID: r.RequestedProductID,
		SenderID:           r.SenderID,
		ReceiverID:         r.ReceiverID,
		Status:             r.Status.String(),
		Message:            r.Message,
		RespondedAt:        r.RespondedAt,
	}
	m.FromBaseEntity(r.BaseEntity)
	return m
}
