package trade

import (
	"testing"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalShippingStatus(t *testing.T) {
	tests := []struct {
		order    OrderStatus
		shipping ShippingStatus
		ok       bool
	}{
		{OrderStatusPaid, ShippingStatusPending, true},
		{OrderStatusShipped, ShippingStatusInTransit, true},
		{OrderStatusCompleted, ShippingStatusDelivered, true},
		{OrderStatusCancelled, ShippingStatusFailed, true},
		{OrderStatusPending, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			shipping, ok := CanonicalShippingStatus(tt.order)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.shipping, shipping)
		})
	}
}

func TestCanonicalOrderStatus(t *testing.T) {
	tests := []struct {
		shipping ShippingStatus
		order    OrderStatus
	}{
		{ShippingStatusPending, OrderStatusPaid},
		{ShippingStatusInTransit, OrderStatusShipped},
		{ShippingStatusDelivered, OrderStatusCompleted},
		{ShippingStatusFailed, OrderStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.shipping), func(t *testing.T) {
			order, ok := CanonicalOrderStatus(tt.shipping)
			require.True(t, ok)
			assert.Equal(t, tt.order, order)
		})
	}
}

func TestOrder_IsSynchronized(t *testing.T) {
	order := orderInStatus(t, OrderStatusPaid)
	assert.True(t, order.IsSynchronized())

	// Pending orders have no canonical shipping pair
	pending := createTestOrder(t)
	assert.False(t, pending.IsSynchronized())

	// Forced drift
	order.ShippingInfo.Status = ShippingStatusDelivered
	assert.False(t, order.IsSynchronized())

	order.ShippingInfo = nil
	assert.False(t, order.IsSynchronized())
}

func TestOrder_Synchronize_RepairsShippingFromOrder(t *testing.T) {
	// Order completed out of band while shipping stayed Pending
	order := orderInStatus(t, OrderStatusPaid)
	order.Status = OrderStatusCompleted

	changed := order.Synchronize()
	assert.True(t, changed)
	assert.Equal(t, ShippingStatusDelivered, order.ShippingInfo.Status)
	assert.Equal(t, OrderStatusCompleted, order.Status)
}

func TestOrder_Synchronize_RepairsOrderFromShipping(t *testing.T) {
	// Shipping marked Delivered out of band while the order stayed Shipped
	order := orderInStatus(t, OrderStatusShipped)
	order.ShippingInfo.Status = ShippingStatusDelivered

	changed := order.Synchronize()
	assert.True(t, changed)
	assert.Equal(t, OrderStatusCompleted, order.Status)
	assert.Equal(t, ShippingStatusDelivered, order.ShippingInfo.Status)
	require.NotNil(t, order.CompletedAt)
}

func TestOrder_Synchronize_Idempotent(t *testing.T) {
	order := orderInStatus(t, OrderStatusShipped)
	order.ShippingInfo.Status = ShippingStatusDelivered

	require.True(t, order.Synchronize())
	assert.False(t, order.Synchronize())
	assert.False(t, order.Synchronize())
	assert.Equal(t, OrderStatusCompleted, order.Status)
}

func TestOrder_Synchronize_AlreadyInSync(t *testing.T) {
	order := orderInStatus(t, OrderStatusShipped)
	order.ClearDomainEvents()

	assert.False(t, order.Synchronize())
	assert.Empty(t, order.GetDomainEvents())
}

func TestOrder_Synchronize_NoShippingInfo(t *testing.T) {
	order := createTestOrder(t)
	order.ShippingInfo = nil

	assert.False(t, order.Synchronize())
}

func TestOrder_Synchronize_RaisesEvent(t *testing.T) {
	order := orderInStatus(t, OrderStatusPaid)
	order.ShippingInfo.Status = ShippingStatusFailed
	order.ClearDomainEvents()

	require.True(t, order.Synchronize())
	assert.Equal(t, OrderStatusCancelled, order.Status)

	events := order.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderStatusSynchronized, events[0].EventType())
}

func TestOrder_TransitionRecommendations(t *testing.T) {
	tests := []struct {
		name     string
		order    OrderStatus
		shipping ShippingStatus
		want     int
	}{
		{"completed but shipping pending", OrderStatusCompleted, ShippingStatusPending, 1},
		{"paid awaiting fulfilment", OrderStatusPaid, ShippingStatusPending, 1},
		{"delivered but not completed", OrderStatusShipped, ShippingStatusDelivered, 1},
		{"failed but not cancelled", OrderStatusShipped, ShippingStatusFailed, 1},
		{"fully in sync", OrderStatusShipped, ShippingStatusInTransit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := createTestOrder(t)
			order.Status = tt.order
			order.ShippingInfo.Status = tt.shipping
			assert.Len(t, order.TransitionRecommendations(), tt.want)
		})
	}
}

func TestOrder_TransitionRecommendations_NoShippingInfo(t *testing.T) {
	order := createTestOrder(t)
	order.ShippingInfo = nil
	assert.Empty(t, order.TransitionRecommendations())
}

func TestDomainError_Unwrap(t *testing.T) {
	order := createTestOrder(t)
	err := order.UpdateStatus(OrderStatusShipped)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}
