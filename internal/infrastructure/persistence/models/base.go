package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// BaseModel provides common fields for all persistence models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToBaseEntity converts the model fields to a domain base entity
func (m *BaseModel) ToBaseEntity() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromBaseEntity fills the model fields from a domain base entity
func (m *BaseModel) FromBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with a version column for optimistic locking
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// ToBaseAggregateRoot converts the model fields to a domain aggregate root
func (m *AggregateModel) ToBaseAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.ToBaseEntity(),
		Version:    m.Version,
	}
}

// FromBaseAggregateRoot fills the model fields from a domain aggregate root
func (m *AggregateModel) FromBaseAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromBaseEntity(a.BaseEntity)
	m.Version = a.Version
}
