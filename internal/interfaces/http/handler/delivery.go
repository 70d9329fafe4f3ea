package handler

import (
	"github.com/gin-gonic/gin"
	applicationtrade "github.com/marketplace/backend/internal/application/trade"
	"github.com/marketplace/backend/internal/domain/trade"
)

// DeliveryHandler exposes the fulfilment endpoints that drive the order and
// shipping status machines
type DeliveryHandler struct {
	BaseHandler
	deliveryService *applicationtrade.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler
func NewDeliveryHandler(deliveryService *applicationtrade.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

// RegisterRoutes registers the delivery routes
func (h *DeliveryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	delivery := rg.Group("/delivery")
	{
		delivery.GET("/orders", h.ListActive)
		delivery.PUT("/orders/:id/status", h.UpdateOrderStatus)
		delivery.PUT("/orders/:id/shipping-status", h.UpdateShippingStatus)
		delivery.POST("/orders/:id/synchronize", h.Synchronize)
		delivery.GET("/orders/:id/transitions", h.GetTransitions)
		delivery.GET("/orders/:id/status-summary", h.GetStatusSummary)
	}
}

// UpdateStatusRequest carries the target status for a transition
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PUT /delivery/orders/:id/status
func (h *DeliveryHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	order, err := h.deliveryService.UpdateOrderStatus(c.Request.Context(), orderID, trade.OrderStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewOrderResponse(order))
}

// UpdateShippingStatus handles PUT /delivery/orders/:id/shipping-status
func (h *DeliveryHandler) UpdateShippingStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	order, err := h.deliveryService.UpdateShippingStatus(c.Request.Context(), orderID, trade.ShippingStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewOrderResponse(order))
}

// Synchronize handles POST /delivery/orders/:id/synchronize
func (h *DeliveryHandler) Synchronize(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.deliveryService.Synchronize(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetTransitions handles GET /delivery/orders/:id/transitions
func (h *DeliveryHandler) GetTransitions(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.deliveryService.GetAvailableTransitions(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetStatusSummary handles GET /delivery/orders/:id/status-summary
func (h *DeliveryHandler) GetStatusSummary(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.deliveryService.GetStatusSummary(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListActive handles GET /delivery/orders, the paid and shipped queue
func (h *DeliveryHandler) ListActive(c *gin.Context) {
	listReq, ok := h.bindList(c)
	if !ok {
		return
	}
	filter := listReq.ToFilter()

	orders, total, err := h.deliveryService.ListActiveDeliveries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, newOrderResponses(orders), total, filter.Page, filter.PageSize)
}
