package trade

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated            = "OrderCreated"
	EventTypeOrderPaid               = "OrderPaid"
	EventTypeOrderShipped            = "OrderShipped"
	EventTypeOrderCompleted          = "OrderCompleted"
	EventTypeOrderCancelled          = "OrderCancelled"
	EventTypeOrderStatusSynchronized = "OrderStatusSynchronized"
)

// OrderCreatedEvent is raised when a new order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		ProductID:       order.ProductID,
		BuyerID:         order.BuyerID,
		SellerID:        order.SellerID,
		TotalAmount:     order.TotalAmount,
		PlatformFee:     order.PlatformFee,
	}
}

// OrderPaidEvent is raised when an order is paid
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(order *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		BuyerID:         order.BuyerID,
		TotalAmount:     order.TotalAmount,
	}
}

// OrderShippedEvent is raised when an order enters the Shipped status
type OrderShippedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID      `json:"order_id"`
	ShippingStatus ShippingStatus `json:"shipping_status"`
}

// NewOrderShippedEvent creates a new OrderShippedEvent
func NewOrderShippedEvent(order *Order) *OrderShippedEvent {
	event := &OrderShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderShipped, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
	}
	if order.ShippingInfo != nil {
		event.ShippingStatus = order.ShippingInfo.Status
	}
	return event
}

// OrderCompletedEvent is raised when an order is completed
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"order_id"`
	SellerID     uuid.UUID       `json:"seller_id"`
	SellerAmount decimal.Decimal `json:"seller_amount"`
}

// NewOrderCompletedEvent creates a new OrderCompletedEvent
func NewOrderCompletedEvent(order *Order) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		SellerID:        order.SellerID,
		SellerAmount:    order.SellerAmount,
	}
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	BuyerID uuid.UUID `json:"buyer_id"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(order *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		BuyerID:         order.BuyerID,
	}
}

// OrderStatusSynchronizedEvent is raised when the synchronizer repairs drift
// between the order and shipping status
type OrderStatusSynchronizedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID      `json:"order_id"`
	OrderStatus    OrderStatus    `json:"order_status"`
	ShippingStatus ShippingStatus `json:"shipping_status"`
}

// NewOrderStatusSynchronizedEvent creates a new OrderStatusSynchronizedEvent
func NewOrderStatusSynchronizedEvent(order *Order) *OrderStatusSynchronizedEvent {
	event := &OrderStatusSynchronizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusSynchronized, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderStatus:     order.Status,
	}
	if order.ShippingInfo != nil {
		event.ShippingStatus = order.ShippingInfo.Status
	}
	return event
}
