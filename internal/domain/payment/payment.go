package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Gateway identifies the payment service provider handling a payment
type Gateway string

const (
	GatewayMock   Gateway = "Mock"
	GatewayStripe Gateway = "Stripe"
	GatewayPayPal Gateway = "PayPal"
)

// IsValid checks if the gateway is supported
func (g Gateway) IsValid() bool {
	switch g {
	case GatewayMock, GatewayStripe, GatewayPayPal:
		return true
	}
	return false
}

// String returns the string representation of Gateway
func (g Gateway) String() string {
	return string(g)
}

// Status represents the payment lifecycle
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// IsValid checks if the status is a valid payment Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Payment records an intent to move money through an external gateway into
// the caller's wallet flow. The wallet debit itself lives in the wallet
// ledger; the payment row carries the gateway handshake.
type Payment struct {
	shared.BaseEntity
	UserID           uuid.UUID
	OrderID          *uuid.UUID
	Amount           decimal.Decimal
	Gateway          Gateway
	GatewayReference string
	Description      string
	Status           Status
	CompletedAt      *time.Time
}

// NewPayment creates a pending payment for a user
func NewPayment(userID uuid.UUID, orderID *uuid.UUID, amount valueobject.Money, gateway Gateway, description string) (*Payment, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !gateway.IsValid() {
		return nil, shared.NewDomainError("INVALID_GATEWAY", "Unsupported payment gateway")
	}

	return &Payment{
		BaseEntity:  shared.NewBaseEntity(),
		UserID:      userID,
		OrderID:     orderID,
		Amount:      amount.Amount(),
		Gateway:     gateway,
		Description: description,
		Status:      StatusPending,
	}, nil
}

// AttachGatewayReference stores the reference issued by the gateway
func (p *Payment) AttachGatewayReference(ref string) {
	p.GatewayReference = ref
	p.UpdatedAt = time.Now().UTC()
}

// Complete marks a pending payment as completed
func (p *Payment) Complete() error {
	if p.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending payments can be completed")
	}
	now := time.Now().UTC()
	p.Status = StatusCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now
	return nil
}

// Fail marks a pending payment as failed
func (p *Payment) Fail() error {
	if p.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending payments can fail")
	}
	p.Status = StatusFailed
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// GetAmountMoney returns the amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEGP(p.Amount)
}
