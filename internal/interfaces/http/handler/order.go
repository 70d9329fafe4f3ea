package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	applicationtrade "github.com/marketplace/backend/internal/application/trade"
	"github.com/marketplace/backend/internal/domain/trade"
)

// OrderHandler exposes the buyer-facing order endpoints
type OrderHandler struct {
	BaseHandler
	orderService *applicationtrade.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *applicationtrade.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes registers the order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/cancel", h.Cancel)
		orders.PUT("/:id/shipping-info", h.UpdateShippingInfo)
	}
}

// CreateOrderRequest is the order creation payload
type CreateOrderRequest struct {
	ProductID     string `json:"product_id" binding:"required,uuid"`
	RecipientName string `json:"recipient_name" binding:"required"`
	Address       string `json:"address" binding:"required"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	PhoneNumber   string `json:"phone_number"`
}

// UpdateShippingInfoRequest is the address edit payload
type UpdateShippingInfoRequest struct {
	RecipientName string `json:"recipient_name" binding:"required"`
	Address       string `json:"address" binding:"required"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	PhoneNumber   string `json:"phone_number"`
}

// OrderResponse is the order view returned by the API
type OrderResponse struct {
	ID           uuid.UUID             `json:"id"`
	ProductID    uuid.UUID             `json:"product_id"`
	BuyerID      uuid.UUID             `json:"buyer_id"`
	SellerID     uuid.UUID             `json:"seller_id"`
	TotalAmount  string                `json:"total_amount"`
	PlatformFee  string                `json:"platform_fee"`
	SellerAmount string                `json:"seller_amount"`
	Status       string                `json:"status"`
	PaidAt       *time.Time            `json:"paid_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	ShippingInfo *ShippingInfoResponse `json:"shipping_info,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ShippingInfoResponse is the shipment view embedded in OrderResponse
type ShippingInfoResponse struct {
	ID            uuid.UUID `json:"id"`
	RecipientName string    `json:"recipient_name"`
	Address       string    `json:"address"`
	City          string    `json:"city,omitempty"`
	PostalCode    string    `json:"postal_code,omitempty"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	Method        string    `json:"method,omitempty"`
	Fee           string    `json:"fee"`
	Status        string    `json:"status"`
}

// NewOrderResponse converts a domain order to its API view
func NewOrderResponse(order *trade.Order) OrderResponse {
	resp := OrderResponse{
		ID:           order.ID,
		ProductID:    order.ProductID,
		BuyerID:      order.BuyerID,
		SellerID:     order.SellerID,
		TotalAmount:  order.TotalAmount.StringFixed(2),
		PlatformFee:  order.PlatformFee.StringFixed(2),
		SellerAmount: order.SellerAmount.StringFixed(2),
		Status:       order.Status.String(),
		PaidAt:       order.PaidAt,
		CompletedAt:  order.CompletedAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	if order.ShippingInfo != nil {
		resp.ShippingInfo = &ShippingInfoResponse{
			ID:            order.ShippingInfo.ID,
			RecipientName: order.ShippingInfo.RecipientName,
			Address:       order.ShippingInfo.Address,
			City:          order.ShippingInfo.City,
			PostalCode:    order.ShippingInfo.PostalCode,
			PhoneNumber:   order.ShippingInfo.PhoneNumber,
			Method:        order.ShippingInfo.Method,
			Fee:           order.ShippingInfo.Fee.StringFixed(2),
			Status:        order.ShippingInfo.Status.String(),
		}
	}
	return resp
}

func newOrderResponses(orders []*trade.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i, o := range orders {
		responses[i] = NewOrderResponse(o)
	}
	return responses
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), applicationtrade.CreateOrderRequest{
		BuyerID:       userID,
		ProductID:     productID,
		RecipientName: req.RecipientName,
		Address:       req.Address,
		City:          req.City,
		PostalCode:    req.PostalCode,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewOrderResponse(order))
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	orderID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewOrderResponse(order))
}

// List handles GET /orders. The role query parameter selects between the
// orders the caller placed (default) and the orders they sold.
func (h *OrderHandler) List(c *gin.Context) {
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

	var (
		orders []*trade.Order
		total  int64
	)
	if c.Query("role") == "seller" {
		orders, total, err = h.orderService.ListSold(c.Request.Context(), userID, filter)
	} else {
		orders, total, err = h.orderService.ListBought(c.Request.Context(), userID, filter)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, newOrderResponses(orders), total, filter.Page, filter.PageSize)
}

// Cancel handles POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	orderID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewOrderResponse(order))
}

// UpdateShippingInfo handles PUT /orders/:id/shipping-info
func (h *OrderHandler) UpdateShippingInfo(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	orderID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req UpdateShippingInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	order, err := h.orderService.UpdateShippingAddress(c.Request.Context(), orderID, userID, trade.ShippingDetails{
		RecipientName: req.RecipientName,
		Address:       req.Address,
		City:          req.City,
		PostalCode:    req.PostalCode,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewOrderResponse(order))
}
