package payment

import "context"

// GatewayResult is what a provider returns when a charge is created.
// Completed is true for providers that settle synchronously; the others
// hand back a redirect URL or client secret and settle via callback.
type GatewayResult struct {
	Reference    string
	Completed    bool
	RedirectURL  string
	ClientSecret string
}

// GatewayClient is the port implemented by provider adapters
type GatewayClient interface {
	Gateway() Gateway
	CreateCharge(ctx context.Context, p *Payment) (*GatewayResult, error)
}
