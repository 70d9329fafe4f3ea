package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PlatformFeeRate is the marketplace commission charged on every order.
// SellerAmount is always TotalAmount - PlatformFee so the three fields
// sum up exactly regardless of rounding.
var PlatformFeeRate = decimal.NewFromFloat(0.05)

// OrderStatus represents the status of a marketplace order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPaid      OrderStatus = "Paid"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusCompleted || target == OrderStatusCancelled
	case OrderStatusCompleted, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// AllowedTransitions returns the statuses reachable from this status
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	switch s {
	case OrderStatusPending:
		return []OrderStatus{OrderStatusPaid, OrderStatusCancelled}
	case OrderStatusPaid:
		return []OrderStatus{OrderStatusShipped, OrderStatusCancelled}
	case OrderStatusShipped:
		return []OrderStatus{OrderStatusCompleted, OrderStatusCancelled}
	case OrderStatusCompleted, OrderStatusCancelled:
		return nil
	}
	return nil
}

// Order represents a marketplace order aggregate root.
// It owns its ShippingInfo; the pair is always persisted in one unit of work.
// Orders are never physically deleted - cancellation is a status.
type Order struct {
	shared.BaseAggregateRoot
	ProductID    uuid.UUID
	BuyerID      uuid.UUID
	SellerID     uuid.UUID
	TotalAmount  decimal.Decimal
	PlatformFee  decimal.Decimal
	SellerAmount decimal.Decimal
	Status       OrderStatus
	PaidAt       *time.Time
	CompletedAt  *time.Time
	ShippingInfo *ShippingInfo
}

// NewOrder creates a new order for a product purchase.
// The platform fee is deducted from the product price; the seller
// receives the remainder.
func NewOrder(productID, buyerID, sellerID uuid.UUID, price valueobject.Money, shipping ShippingDetails) (*Order, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if buyerID == sellerID {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer cannot purchase their own product")
	}
	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Order amount must be positive")
	}
	if shipping.RecipientName == "" || shipping.Address == "" {
		return nil, shared.NewDomainError("INVALID_SHIPPING", "Recipient name and address are required")
	}

	total := price.Amount()
	fee := total.Mul(PlatformFeeRate).Round(2)

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		BuyerID:           buyerID,
		SellerID:          sellerID,
		TotalAmount:       total,
		PlatformFee:       fee,
		SellerAmount:      total.Sub(fee),
		Status:            OrderStatusPending,
	}
	order.ShippingInfo = newShippingInfo(order.ID, shipping)
	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// UpdateStatus transitions the order to newStatus, validating against the
// order transition table, and drives the shipping status forward as a side
// effect. After the direct effect the shipping status is auto-corrected to
// the canonical pair for the new order status.
func (o *Order) UpdateStatus(newStatus OrderStatus) error {
	if !newStatus.IsValid() {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Unknown order status %q", newStatus))
	}
	if !o.Status.CanTransitionTo(newStatus) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, newStatus))
	}

	now := time.Now().UTC()
	o.Status = newStatus
	o.UpdatedAt = now

	switch newStatus {
	case OrderStatusPaid:
		if o.PaidAt == nil {
			o.PaidAt = &now
		}
		o.AddDomainEvent(NewOrderPaidEvent(o))
	case OrderStatusShipped:
		if o.ShippingInfo != nil && o.ShippingInfo.Status == ShippingStatusPending {
			o.ShippingInfo.setStatus(ShippingStatusInTransit)
		}
		o.AddDomainEvent(NewOrderShippedEvent(o))
	case OrderStatusCompleted:
		o.CompletedAt = &now
		if o.ShippingInfo != nil {
			o.ShippingInfo.setStatus(ShippingStatusDelivered)
		}
		o.AddDomainEvent(NewOrderCompletedEvent(o))
	case OrderStatusCancelled:
		if o.ShippingInfo != nil {
			o.ShippingInfo.setStatus(ShippingStatusFailed)
		}
		o.AddDomainEvent(NewOrderCancelledEvent(o))
	case OrderStatusPending:
		// Unreachable: no status transitions back to Pending.
	}

	// Repair any remaining drift against the canonical pair for the new
	// order status. User-initiated transitions were already validated above.
	if o.ShippingInfo != nil {
		if expected, ok := CanonicalShippingStatus(newStatus); ok && o.ShippingInfo.Status != expected {
			o.ShippingInfo.setStatus(expected)
		}
	}

	return nil
}

// UpdateShippingStatus transitions the shipping status, validating against
// the shipping transition table, and drives the order status forward as a
// side effect. Delivered/Completed drift left by the direct effect is
// auto-corrected in both directions.
func (o *Order) UpdateShippingStatus(newStatus ShippingStatus) error {
	if o.ShippingInfo == nil {
		return shared.NewDomainError("NO_SHIPPING_INFO", "Order has no shipping information")
	}
	if !newStatus.IsValid() {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Unknown shipping status %q", newStatus))
	}
	if !o.ShippingInfo.Status.CanTransitionTo(newStatus) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition shipping from %s to %s", o.ShippingInfo.Status, newStatus))
	}

	now := time.Now().UTC()
	o.ShippingInfo.setStatus(newStatus)
	o.UpdatedAt = now

	switch newStatus {
	case ShippingStatusInTransit:
		if o.Status == OrderStatusPaid {
			o.Status = OrderStatusShipped
			o.AddDomainEvent(NewOrderShippedEvent(o))
		}
	case ShippingStatusDelivered:
		if o.Status != OrderStatusCompleted {
			o.Status = OrderStatusCompleted
			o.CompletedAt = &now
			o.AddDomainEvent(NewOrderCompletedEvent(o))
		}
	case ShippingStatusFailed:
		if o.Status != OrderStatusCancelled {
			o.Status = OrderStatusCancelled
			o.AddDomainEvent(NewOrderCancelledEvent(o))
		}
	case ShippingStatusPending:
		// Going back to pending never moves the order status.
	}

	// A completed order must read as delivered and vice versa.
	if o.Status == OrderStatusCompleted && o.ShippingInfo.Status != ShippingStatusDelivered {
		o.ShippingInfo.setStatus(ShippingStatusDelivered)
	}
	if o.ShippingInfo.Status == ShippingStatusDelivered && o.Status != OrderStatusCompleted {
		o.Status = OrderStatusCompleted
		o.CompletedAt = &now
	}

	return nil
}

// MarkPaid transitions the order to Paid
func (o *Order) MarkPaid() error {
	return o.UpdateStatus(OrderStatusPaid)
}

// Cancel transitions the order to Cancelled
func (o *Order) Cancel() error {
	return o.UpdateStatus(OrderStatusCancelled)
}

// UpdateShippingAddress replaces the editable shipping address fields
func (o *Order) UpdateShippingAddress(details ShippingDetails) error {
	if o.ShippingInfo == nil {
		return shared.NewDomainError("NO_SHIPPING_INFO", "Order has no shipping information")
	}
	if details.RecipientName == "" || details.Address == "" {
		return shared.NewDomainError("INVALID_SHIPPING", "Recipient name and address are required")
	}
	o.ShippingInfo.RecipientName = details.RecipientName
	o.ShippingInfo.Address = details.Address
	o.ShippingInfo.City = details.City
	o.ShippingInfo.PostalCode = details.PostalCode
	o.ShippingInfo.PhoneNumber = details.PhoneNumber
	now := time.Now().UTC()
	o.ShippingInfo.UpdatedAt = now
	o.UpdatedAt = now
	return nil
}

// GetTotalAmountMoney returns the total amount as Money
func (o *Order) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEGP(o.TotalAmount)
}

// GetSellerAmountMoney returns the seller payout as Money
func (o *Order) GetSellerAmountMoney() valueobject.Money {
	return valueobject.NewMoneyEGP(o.SellerAmount)
}

// IsTerminal returns true if no further status transitions are allowed
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// LastUpdated returns the most recent lifecycle timestamp
func (o *Order) LastUpdated() time.Time {
	if o.CompletedAt != nil {
		return *o.CompletedAt
	}
	if o.PaidAt != nil {
		return *o.PaidAt
	}
	return o.CreatedAt
}
