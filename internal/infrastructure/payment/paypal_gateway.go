package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	domainpayment "github.com/marketplace/backend/internal/domain/payment"
)

// PayPalConfig holds the PayPal API credentials and endpoint
type PayPalConfig struct {
	ClientID string
	Secret   string
	BaseURL  string
	Timeout  time.Duration
}

// Validate checks that the configuration is usable
func (c *PayPalConfig) Validate() error {
	if c.ClientID == "" || c.Secret == "" {
		return fmt.Errorf("paypal: client ID and secret are required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("paypal: base URL is required")
	}
	return nil
}

// PayPalAdapter implements GatewayClient against the PayPal Orders v2 API.
// PayPal settles asynchronously: the buyer approves the order at the redirect
// URL and completion arrives through the callback endpoint.
type PayPalAdapter struct {
	config     PayPalConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPayPalAdapter creates a new PayPal adapter
func NewPayPalAdapter(config PayPalConfig) (*PayPalAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &PayPalAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Gateway returns the gateway identifier
func (a *PayPalAdapter) Gateway() domainpayment.Gateway {
	return domainpayment.GatewayPayPal
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type paypalOrderRequest struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []paypalPurchaseUnit `json:"purchase_units"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id,omitempty"`
	Amount      paypalAmount `json:"amount"`
	Description string       `json:"description,omitempty"`
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// CreateCharge creates a PayPal order for the payment amount
func (a *PayPalAdapter) CreateCharge(ctx context.Context, p *domainpayment.Payment) (*domainpayment.GatewayResult, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	orderReq := paypalOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: p.ID.String(),
			Amount: paypalAmount{
				CurrencyCode: "USD",
				Value:        p.Amount.StringFixed(2),
			},
			Description: p.Description,
		}},
	}
	payload, err := json.Marshal(orderReq)
	if err != nil {
		return nil, fmt.Errorf("paypal: failed to marshal order: %w", err)
	}

	endpoint := strings.TrimSuffix(a.config.BaseURL, "/") + "/v2/checkout/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("paypal: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PayPal-Request-Id", p.ID.String())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("paypal: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("paypal: unexpected status %d: %s", resp.StatusCode, body)
	}

	var order paypalOrderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("paypal: failed to parse response: %w", err)
	}

	result := &domainpayment.GatewayResult{
		Reference: order.ID,
		Completed: order.Status == "COMPLETED",
	}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			result.RedirectURL = link.Href
			break
		}
	}
	return result, nil
}

// token returns a cached OAuth access token, refreshing it when expired
func (a *PayPalAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpiry) {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	endpoint := strings.TrimSuffix(a.config.BaseURL, "/") + "/v1/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal: failed to build token request: %w", err)
	}
	req.SetBasicAuth(a.config.ClientID, a.config.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("paypal: failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal: token request returned status %d", resp.StatusCode)
	}

	var tokenResp paypalTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("paypal: failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("paypal: empty access token")
	}

	// Refresh one minute early so in-flight requests never carry a token
	// that expires mid-call.
	a.accessToken = tokenResp.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - time.Minute)
	return a.accessToken, nil
}

var _ domainpayment.GatewayClient = (*PayPalAdapter)(nil)
