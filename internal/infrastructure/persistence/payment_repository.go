package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *Database
}

// NewGormPaymentRepository creates a new GORM payment repository
func NewGormPaymentRepository(db *Database) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID retrieves a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByGatewayReference retrieves a payment by the reference the gateway issued
func (r *GormPaymentRepository) FindByGatewayReference(ctx context.Context, ref string) (*payment.Payment, error) {
	return r.findOne(ctx, "gateway_reference = ?", ref)
}

// FindByUser retrieves the payments initiated by a user
func (r *GormPaymentRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*payment.Payment, int64, error) {
	session := r.db.session(ctx)

	var total int64
	if err := session.Model(&models.PaymentModel{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var rows []models.PaymentModel
	if err := applyFilter(session.Where("user_id = ?", userID), filter).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]*payment.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, total, nil
}

// Create persists a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if err := r.db.session(ctx).Create(models.PaymentModelFromDomain(p)).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// Update persists changes to an existing payment
func (r *GormPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	result := r.db.session(ctx).Model(&models.PaymentModel{}).
		Where("id = ?", p.ID).
		Select("*").Omit("id", "user_id", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPaymentRepository) findOne(ctx context.Context, cond string, args ...interface{}) (*payment.Payment, error) {
	var model models.PaymentModel
	err := r.db.session(ctx).Where(cond, args...).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return model.ToDomain(), nil
}
