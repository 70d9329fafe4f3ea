package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainpayment "github.com/marketplace/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// StripeConfig holds the Stripe API credentials and endpoint
type StripeConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Validate checks that the configuration is usable
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("stripe: API key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("stripe: base URL is required")
	}
	return nil
}

// StripeAdapter implements GatewayClient against the Stripe PaymentIntents API.
// Stripe settles asynchronously: the client secret is handed to the frontend
// and completion arrives through the callback endpoint.
type StripeAdapter struct {
	config     StripeConfig
	httpClient *http.Client
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config StripeConfig) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &StripeAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Gateway returns the gateway identifier
func (a *StripeAdapter) Gateway() domainpayment.Gateway {
	return domainpayment.GatewayStripe
}

type stripePaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type stripeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCharge creates a PaymentIntent for the payment amount
func (a *StripeAdapter) CreateCharge(ctx context.Context, p *domainpayment.Payment) (*domainpayment.GatewayResult, error) {
	// Stripe expects the amount in the currency's smallest unit.
	form := url.Values{}
	form.Set("amount", p.Amount.Mul(decimal.NewFromInt(100)).Truncate(0).String())
	form.Set("currency", "egp")
	form.Set("description", p.Description)
	form.Set("metadata[payment_id]", p.ID.String())

	endpoint := strings.TrimSuffix(a.config.BaseURL, "/") + "/v1/payment_intents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", p.ID.String())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp stripeErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("stripe: %s (%s)", errResp.Error.Message, errResp.Error.Code)
		}
		return nil, fmt.Errorf("stripe: unexpected status %d", resp.StatusCode)
	}

	var intent stripePaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("stripe: failed to parse response: %w", err)
	}

	return &domainpayment.GatewayResult{
		Reference:    intent.ID,
		Completed:    intent.Status == "succeeded",
		ClientSecret: intent.ClientSecret,
	}, nil
}

var _ domainpayment.GatewayClient = (*StripeAdapter)(nil)
