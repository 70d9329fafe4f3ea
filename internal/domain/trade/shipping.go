package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingStatus represents the status of an order shipment
type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "Pending"
	ShippingStatusInTransit ShippingStatus = "InTransit"
	ShippingStatusDelivered ShippingStatus = "Delivered"
	ShippingStatusFailed    ShippingStatus = "Failed"
)

// IsValid checks if the status is a valid ShippingStatus
func (s ShippingStatus) IsValid() bool {
	switch s {
	case ShippingStatusPending, ShippingStatusInTransit, ShippingStatusDelivered, ShippingStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of ShippingStatus
func (s ShippingStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Pending may jump straight to Delivered (hand-delivery shortcut), InTransit
// may fall back to Pending (carrier returned the parcel to the depot), and
// Failed may retry via Pending or resolve directly to Delivered.
func (s ShippingStatus) CanTransitionTo(target ShippingStatus) bool {
	switch s {
	case ShippingStatusPending:
		return target == ShippingStatusInTransit || target == ShippingStatusFailed || target == ShippingStatusDelivered
	case ShippingStatusInTransit:
		return target == ShippingStatusDelivered || target == ShippingStatusFailed || target == ShippingStatusPending
	case ShippingStatusDelivered:
		return false // Terminal state
	case ShippingStatusFailed:
		return target == ShippingStatusPending || target == ShippingStatusDelivered
	}
	return false
}

// AllowedTransitions returns the statuses reachable from this status
func (s ShippingStatus) AllowedTransitions() []ShippingStatus {
	switch s {
	case ShippingStatusPending:
		return []ShippingStatus{ShippingStatusInTransit, ShippingStatusFailed, ShippingStatusDelivered}
	case ShippingStatusInTransit:
		return []ShippingStatus{ShippingStatusDelivered, ShippingStatusFailed, ShippingStatusPending}
	case ShippingStatusDelivered:
		return nil
	case ShippingStatusFailed:
		return []ShippingStatus{ShippingStatusPending, ShippingStatusDelivered}
	}
	return nil
}

// ShippingDetails carries the address fields supplied by the buyer
type ShippingDetails struct {
	RecipientName string
	Address       string
	City          string
	PostalCode    string
	PhoneNumber   string
	Method        string
	Fee           decimal.Decimal
}

// ShippingInfo is the shipment record owned 1:1 by an Order.
// It has no independent lifecycle: it is created with its order and is only
// mutated through the order's status machinery.
type ShippingInfo struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	RecipientName string
	Address       string
	City          string
	PostalCode    string
	PhoneNumber   string
	Method        string
	Fee           decimal.Decimal
	Status        ShippingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func newShippingInfo(orderID uuid.UUID, details ShippingDetails) *ShippingInfo {
	now := time.Now().UTC()
	return &ShippingInfo{
		ID:            uuid.New(),
		OrderID:       orderID,
		RecipientName: details.RecipientName,
		Address:       details.Address,
		City:          details.City,
		PostalCode:    details.PostalCode,
		PhoneNumber:   details.PhoneNumber,
		Method:        details.Method,
		Fee:           details.Fee,
		Status:        ShippingStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *ShippingInfo) setStatus(status ShippingStatus) {
	if s.Status == status {
		return
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
}
