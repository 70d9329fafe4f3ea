package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	domainpayment "github.com/marketplace/backend/internal/domain/payment"
)

// MockGateway is the development provider. It issues a synthetic reference
// and, when autoComplete is on, reports the charge settled immediately so
// the full wallet credit path runs without an external provider.
type MockGateway struct {
	autoComplete bool
}

// NewMockGateway creates a new mock gateway adapter
func NewMockGateway(autoComplete bool) *MockGateway {
	return &MockGateway{autoComplete: autoComplete}
}

// Gateway returns the gateway identifier
func (g *MockGateway) Gateway() domainpayment.Gateway {
	return domainpayment.GatewayMock
}

// CreateCharge issues a synthetic charge reference
func (g *MockGateway) CreateCharge(ctx context.Context, p *domainpayment.Payment) (*domainpayment.GatewayResult, error) {
	return &domainpayment.GatewayResult{
		Reference: fmt.Sprintf("MOCK-%s", uuid.New()),
		Completed: g.autoComplete,
	}, nil
}

var _ domainpayment.GatewayClient = (*MockGateway)(nil)
