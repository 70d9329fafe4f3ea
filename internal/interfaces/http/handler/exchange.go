package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	applicationexchange "github.com/marketplace/backend/internal/application/exchange"
	"github.com/marketplace/backend/internal/domain/exchange"
	"github.com/marketplace/backend/internal/domain/shared"
)

// ExchangeHandler exposes the exchange-request workflow endpoints
type ExchangeHandler struct {
	BaseHandler
	exchangeService *applicationexchange.ExchangeService
}

// NewExchangeHandler creates a new ExchangeHandler
func NewExchangeHandler(exchangeService *applicationexchange.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchangeService: exchangeService}
}

// RegisterRoutes registers the exchange routes
func (h *ExchangeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/exchange-requests")
	{
		requests.POST("", h.Create)
		requests.GET("", h.ListAll)
		requests.GET("/sent", h.ListSent)
		requests.GET("/received", h.ListReceived)
		requests.GET("/:id", h.Get)
		requests.POST("/:id/approve", h.Approve)
		requests.POST("/:id/reject", h.Reject)
		requests.DELETE("/:id", h.Delete)
	}
}

// CreateExchangeRequest is the exchange proposal payload
type CreateExchangeRequest struct {
	OfferedProductID   string `json:"offered_product_id" binding:"required,uuid"`
	RequestedProductID string `json:"requested_product_id" binding:"required,uuid"`
	Message            string `json:"message"`
}

// ExchangeResponse is the exchange request view returned by the API
type ExchangeResponse struct {
	ID                 uuid.UUID  `json:"id"`
	OfferedProductID   uuid.UUID  `json:"offered_product_id"`
	RequestedProductID uuid.UUID  `json:"requested_product_id"`
	SenderID           uuid.UUID  `json:"sender_id"`
	ReceiverID         uuid.UUID  `json:"receiver_id"`
	Status             string     `json:"status"`
	Message            string     `json:"message,omitempty"`
	RespondedAt        *time.Time `json:"responded_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewExchangeResponse converts a domain exchange request to its API view
func NewExchangeResponse(r *exchange.ExchangeRequest) ExchangeResponse {
	return ExchangeResponse{
		ID:                 r.ID,
		OfferedProductID:   r.OfferedProductID,
		RequestedProductID: r.RequestedProductID,
		SenderID:           r.SenderID,
		ReceiverID:         r.ReceiverID,
		Status:             r.Status.String(),
		Message:            r.Message,
		RespondedAt:        r.RespondedAt,
		CreatedAt:          r.CreatedAt,
	}
}

func newExchangeResponses(requests []*exchange.ExchangeRequest) []ExchangeResponse {
	responses := make([]ExchangeResponse, len(requests))
	for i, r := range requests {
		responses[i] = NewExchangeResponse(r)
	}
	return responses
}

// Create handles POST /exchange-requests
func (h *ExchangeHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	var req CreateExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	offeredID, err := uuid.Parse(req.OfferedProductID)
	if err != nil {
		h.BadRequest(c, "Invalid offered product ID")
		return
	}
	requestedID, err := uuid.Parse(req.RequestedProductID)
	if err != nil {
		h.BadRequest(c, "Invalid requested product ID")
		return
	}

	request, err := h.exchangeService.CreateRequest(c.Request.Context(), applicationexchange.CreateRequestInput{
		SenderID:           userID,
		OfferedProductID:   offeredID,
		RequestedProductID: requestedID,
		Message:            req.Message,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewExchangeResponse(request))
}

// Get handles GET /exchange-requests/:id
func (h *ExchangeHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	requestID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid exchange request ID")
		return
	}

	request, err := h.exchangeService.GetByID(c.Request.Context(), requestID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewExchangeResponse(request))
}

// ListAll handles GET /exchange-requests
func (h *ExchangeHandler) ListAll(c *gin.Context) {
	h.list(c, h.exchangeService.GetAll)
}

// ListSent handles GET /exchange-requests/sent
func (h *ExchangeHandler) ListSent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	h.listForUser(c, userID, h.exchangeService.GetSent)
}

// ListReceived handles GET /exchange-requests/received
func (h *ExchangeHandler) ListReceived(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	h.listForUser(c, userID, h.exchangeService.GetReceived)
}

// Approve handles POST /exchange-requests/:id/approve
func (h *ExchangeHandler) Approve(c *gin.Context) {
	h.decide(c, h.exchangeService.Approve)
}

// Reject handles POST /exchange-requests/:id/reject
func (h *ExchangeHandler) Reject(c *gin.Context) {
	h.decide(c, h.exchangeService.Reject)
}

// Delete handles DELETE /exchange-requests/:id
func (h *ExchangeHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	requestID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid exchange request ID")
		return
	}

	if err := h.exchangeService.Delete(c.Request.Context(), requestID, userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

type exchangeDecision func(ctx context.Context, requestID, userID uuid.UUID) (*exchange.ExchangeRequest, error)

func (h *ExchangeHandler) decide(c *gin.Context, fn exchangeDecision) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	requestID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid exchange request ID")
		return
	}

	request, err := fn(c.Request.Context(), requestID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewExchangeResponse(request))
}

func (h *ExchangeHandler) list(c *gin.Context, fn func(ctx context.Context, filter shared.Filter) ([]*exchange.ExchangeRequest, int64, error)) {
	listReq, ok := h.bindList(c)
	if !ok {
		return
	}
	filter := listReq.ToFilter()

	requests, total, err := fn(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, newExchangeResponses(requests), total, filter.Page, filter.PageSize)
}

func (h *ExchangeHandler) listForUser(c *gin.Context, userID uuid.UUID, fn func(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*exchange.ExchangeRequest, int64, error)) {
	listReq, ok := h.bindList(c)
	if !ok {
		return
	}
	filter := listReq.ToFilter()

	requests, total, err := fn(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, newExchangeResponses(requests), total, filter.Page, filter.PageSize)
}
