package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	applicationpayment "github.com/marketplace/backend/internal/application/payment"
	domainpayment "github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// PaymentHandler exposes the gateway payment endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *applicationpayment.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *applicationpayment.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers the payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Create)
		payments.GET("", h.List)
		payments.GET("/:id", h.Get)
		payments.POST("/callback", h.Callback)
	}
}

// CreatePaymentRequest is the payment creation payload
type CreatePaymentRequest struct {
	Amount      string  `json:"amount" binding:"required"`
	Gateway     string  `json:"gateway" binding:"required"`
	OrderID     *string `json:"order_id" binding:"omitempty,uuid"`
	Description string  `json:"description"`
}

// CallbackRequest is the gateway webhook payload
type CallbackRequest struct {
	GatewayReference string `json:"gateway_reference" binding:"required"`
	Succeeded        bool   `json:"succeeded"`
}

// PaymentResponse is the payment view returned by the API
type PaymentResponse struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	OrderID          *uuid.UUID `json:"order_id,omitempty"`
	Amount           string     `json:"amount"`
	Gateway          string     `json:"gateway"`
	GatewayReference string     `json:"gateway_reference,omitempty"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewPaymentResponse converts a domain payment to its API view
func NewPaymentResponse(p *domainpayment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		UserID:           p.UserID,
		OrderID:          p.OrderID,
		Amount:           p.Amount.StringFixed(2),
		Gateway:          p.Gateway.String(),
		GatewayReference: p.GatewayReference,
		Description:      p.Description,
		Status:           p.Status.String(),
		CompletedAt:      p.CompletedAt,
		CreatedAt:        p.CreatedAt,
	}
}

// Create handles POST /payments
func (h *PaymentHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := valueobject.NewMoneyEGPFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return
	}

	input := applicationpayment.CreatePaymentRequest{
		UserID:      userID,
		Amount:      amount,
		Gateway:     domainpayment.Gateway(req.Gateway),
		Description: req.Description,
	}
	if req.OrderID != nil {
		orderID, err := uuid.Parse(*req.OrderID)
		if err != nil {
			h.BadRequest(c, "Invalid order ID")
			return
		}
		input.OrderID = &orderID
	}

	result, err := h.paymentService.CreatePayment(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Get handles GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	paymentID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	p, err := h.paymentService.GetPayment(c.Request.Context(), userID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewPaymentResponse(p))
}

// List handles GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	listReq, ok := h.bindList(c)
	if !ok {
		return
	}
	filter := listReq.ToFilter()

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	responses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = NewPaymentResponse(p)
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// Callback handles POST /payments/callback, the gateway webhook.
// Replayed callbacks are acknowledged without effect.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.paymentService.HandleGatewayCallback(c.Request.Context(), req.GatewayReference, req.Succeeded); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"processed": true})
}
