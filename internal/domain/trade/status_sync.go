package trade

import (
	"time"
)

// The canonical correspondence between order and shipping status. The two
// machines can drift when one side is edited out of band or a unit of work
// is interrupted; Synchronize restores this table, it never invents pairs.
//
//	Paid      <-> Pending
//	Shipped   <-> InTransit
//	Completed <-> Delivered
//	Cancelled <-> Failed

// CanonicalShippingStatus returns the shipping status expected for the given
// order status. The second return value is false for order statuses with no
// canonical counterpart (Pending orders have not entered fulfilment yet).
func CanonicalShippingStatus(status OrderStatus) (ShippingStatus, bool) {
	switch status {
	case OrderStatusPaid:
		return ShippingStatusPending, true
	case OrderStatusShipped:
		return ShippingStatusInTransit, true
	case OrderStatusCompleted:
		return ShippingStatusDelivered, true
	case OrderStatusCancelled:
		return ShippingStatusFailed, true
	case OrderStatusPending:
		return "", false
	}
	return "", false
}

// CanonicalOrderStatus returns the order status expected for the given
// shipping status.
func CanonicalOrderStatus(status ShippingStatus) (OrderStatus, bool) {
	switch status {
	case ShippingStatusPending:
		return OrderStatusPaid, true
	case ShippingStatusInTransit:
		return OrderStatusShipped, true
	case ShippingStatusDelivered:
		return OrderStatusCompleted, true
	case ShippingStatusFailed:
		return OrderStatusCancelled, true
	}
	return "", false
}

// IsSynchronized reports whether the order/shipping pair matches the
// canonical correspondence table.
func (o *Order) IsSynchronized() bool {
	if o.ShippingInfo == nil {
		return false
	}
	expected, ok := CanonicalShippingStatus(o.Status)
	return ok && o.ShippingInfo.Status == expected
}

// Synchronize repairs drift between the order and shipping status. It first
// corrects the shipping status from the order status, then corrects the
// order status from the (possibly corrected) shipping status, setting
// CompletedAt when the repair completes the order. It returns whether any
// correction was made; calling it again immediately is a no-op. Unlike
// UpdateStatus it never rejects a transition - repairs are trusted.
func (o *Order) Synchronize() bool {
	if o.ShippingInfo == nil {
		return false
	}

	changed := false

	if expected, ok := CanonicalShippingStatus(o.Status); ok && o.ShippingInfo.Status != expected {
		o.ShippingInfo.setStatus(expected)
		changed = true
	}

	if expected, ok := CanonicalOrderStatus(o.ShippingInfo.Status); ok && o.Status != expected {
		o.Status = expected
		if expected == OrderStatusCompleted {
			now := time.Now().UTC()
			o.CompletedAt = &now
		}
		changed = true
	}

	if changed {
		o.UpdatedAt = time.Now().UTC()
		o.AddDomainEvent(NewOrderStatusSynchronizedEvent(o))
	}

	return changed
}

// TransitionRecommendations returns human-readable hints generated by
// comparing the current status pair against the canonical table. They are
// advisory only; nothing is mutated.
func (o *Order) TransitionRecommendations() []string {
	recommendations := make([]string, 0, 2)
	if o.ShippingInfo == nil {
		return recommendations
	}

	shippingStatus := o.ShippingInfo.Status
	switch {
	case o.Status == OrderStatusCompleted && shippingStatus == ShippingStatusPending:
		recommendations = append(recommendations,
			"Order is completed but shipping is pending. Consider updating shipping status to 'Delivered'")
	case o.Status == OrderStatusPaid && shippingStatus == ShippingStatusPending:
		recommendations = append(recommendations,
			"Order is paid. Consider updating shipping status to 'InTransit' or 'Delivered'")
	case shippingStatus == ShippingStatusDelivered && o.Status != OrderStatusCompleted:
		recommendations = append(recommendations,
			"Shipping is delivered. Order status should be 'Completed'")
	case shippingStatus == ShippingStatusFailed && o.Status != OrderStatusCancelled:
		recommendations = append(recommendations,
			"Shipping failed. Consider cancelling the order")
	}

	return recommendations
}
