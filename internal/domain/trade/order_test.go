package trade

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func testShippingDetails() ShippingDetails {
	return ShippingDetails{
		RecipientName: "Test Recipient",
		Address:       "12 Nile St",
		City:          "Cairo",
		PostalCode:    "11511",
		PhoneNumber:   "01000000000",
	}
}

func createTestOrder(t *testing.T) *Order {
	order, err := NewOrder(uuid.New(), uuid.New(), uuid.New(), valueobject.NewMoneyEGPFromFloat(200), testShippingDetails())
	require.NoError(t, err)
	return order
}

func orderInStatus(t *testing.T, status OrderStatus) *Order {
	order := createTestOrder(t)
	switch status {
	case OrderStatusPending:
	case OrderStatusPaid:
		require.NoError(t, order.UpdateStatus(OrderStatusPaid))
	case OrderStatusShipped:
		require.NoError(t, order.UpdateStatus(OrderStatusPaid))
		require.NoError(t, order.UpdateStatus(OrderStatusShipped))
	case OrderStatusCompleted:
		require.NoError(t, order.UpdateStatus(OrderStatusPaid))
		require.NoError(t, order.UpdateStatus(OrderStatusShipped))
		require.NoError(t, order.UpdateStatus(OrderStatusCompleted))
	case OrderStatusCancelled:
		require.NoError(t, order.UpdateStatus(OrderStatusCancelled))
	}
	return order
}

// ============================================
// OrderStatus Tests
// ============================================

func TestOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  OrderStatus
		isValid bool
	}{
		{OrderStatusPending, true},
		{OrderStatusPaid, true},
		{OrderStatusShipped, true},
		{OrderStatusCompleted, true},
		{OrderStatusCancelled, true},
		{OrderStatus("Unknown"), false},
		{OrderStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     OrderStatus
		to       OrderStatus
		canTrans bool
	}{
		// From Pending
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		// From Paid
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusCancelled, true},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusPaid, OrderStatusCompleted, false},
		// From Shipped
		{OrderStatusShipped, OrderStatusCompleted, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusPaid, false},
		// From Completed (terminal)
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusPaid, false},
		{OrderStatusCompleted, OrderStatusShipped, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		// From Cancelled (terminal)
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusCancelled, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// ============================================
// ShippingStatus Tests
// ============================================

func TestShippingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     ShippingStatus
		to       ShippingStatus
		canTrans bool
	}{
		// From Pending (direct-to-Delivered shortcut allowed)
		{ShippingStatusPending, ShippingStatusInTransit, true},
		{ShippingStatusPending, ShippingStatusFailed, true},
		{ShippingStatusPending, ShippingStatusDelivered, true},
		// From InTransit (may return to Pending)
		{ShippingStatusInTransit, ShippingStatusDelivered, true},
		{ShippingStatusInTransit, ShippingStatusFailed, true},
		{ShippingStatusInTransit, ShippingStatusPending, true},
		// From Delivered (terminal)
		{ShippingStatusDelivered, ShippingStatusPending, false},
		{ShippingStatusDelivered, ShippingStatusInTransit, false},
		{ShippingStatusDelivered, ShippingStatusFailed, false},
		// From Failed (retry path)
		{ShippingStatusFailed, ShippingStatusPending, true},
		{ShippingStatusFailed, ShippingStatusDelivered, true},
		{ShippingStatusFailed, ShippingStatusInTransit, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// ============================================
// Order creation
// ============================================

func TestNewOrder(t *testing.T) {
	order := createTestOrder(t)

	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Nil(t, order.PaidAt)
	assert.Nil(t, order.CompletedAt)
	require.NotNil(t, order.ShippingInfo)
	assert.Equal(t, ShippingStatusPending, order.ShippingInfo.Status)
	assert.Equal(t, order.ID, order.ShippingInfo.OrderID)
	assert.Len(t, order.GetDomainEvents(), 1)
}

func TestNewOrder_FeeSplit(t *testing.T) {
	order, err := NewOrder(uuid.New(), uuid.New(), uuid.New(), valueobject.NewMoneyEGPFromFloat(200), testShippingDetails())
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, order.PlatformFee.Equal(decimal.NewFromInt(10)))
	assert.True(t, order.SellerAmount.Equal(decimal.NewFromInt(190)))
	// Conservation: seller amount + platform fee == total amount
	assert.True(t, order.SellerAmount.Add(order.PlatformFee).Equal(order.TotalAmount))
}

func TestNewOrder_FeeSplitConservesOddAmounts(t *testing.T) {
	price, err := valueobject.NewMoneyEGPFromString("33.33")
	require.NoError(t, err)
	order, err := NewOrder(uuid.New(), uuid.New(), uuid.New(), price, testShippingDetails())
	require.NoError(t, err)

	assert.True(t, order.SellerAmount.Add(order.PlatformFee).Equal(order.TotalAmount))
}

func TestNewOrder_Validation(t *testing.T) {
	buyer := uuid.New()

	_, err := NewOrder(uuid.Nil, buyer, uuid.New(), valueobject.NewMoneyEGPFromFloat(10), testShippingDetails())
	assert.Error(t, err)

	_, err = NewOrder(uuid.New(), buyer, buyer, valueobject.NewMoneyEGPFromFloat(10), testShippingDetails())
	assert.Error(t, err)

	_, err = NewOrder(uuid.New(), buyer, uuid.New(), valueobject.ZeroEGP(), testShippingDetails())
	assert.Error(t, err)

	_, err = NewOrder(uuid.New(), buyer, uuid.New(), valueobject.NewMoneyEGPFromFloat(10), ShippingDetails{})
	assert.Error(t, err)
}

// ============================================
// Order status machine
// ============================================

func TestOrder_UpdateStatus_SetsTimestamps(t *testing.T) {
	order := createTestOrder(t)

	require.NoError(t, order.UpdateStatus(OrderStatusPaid))
	require.NotNil(t, order.PaidAt)
	paidAt := *order.PaidAt

	require.NoError(t, order.UpdateStatus(OrderStatusShipped))
	require.NoError(t, order.UpdateStatus(OrderStatusCompleted))
	require.NotNil(t, order.CompletedAt)
	// PaidAt is never rewound
	assert.Equal(t, paidAt, *order.PaidAt)
	assert.False(t, order.CompletedAt.Before(paidAt))
}

func TestOrder_UpdateStatus_InvalidTransition(t *testing.T) {
	order := createTestOrder(t)

	err := order.UpdateStatus(OrderStatusCompleted)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
	// Order left unchanged
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Nil(t, order.CompletedAt)
}

func TestOrder_TerminalStatusesRejectAllTransitions(t *testing.T) {
	all := []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled}
	for _, terminal := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		order := orderInStatus(t, terminal)
		for _, target := range all {
			assert.Error(t, order.UpdateStatus(target), "%s -> %s should fail", terminal, target)
		}
		assert.Equal(t, terminal, order.Status)
	}
}

func TestOrder_UpdateStatus_DrivesShipping(t *testing.T) {
	// Paid order, shipping Pending: Shipped moves shipping to InTransit
	order := orderInStatus(t, OrderStatusPaid)
	require.NoError(t, order.UpdateStatus(OrderStatusShipped))
	assert.Equal(t, ShippingStatusInTransit, order.ShippingInfo.Status)

	// Completed order: shipping becomes Delivered
	require.NoError(t, order.UpdateStatus(OrderStatusCompleted))
	assert.Equal(t, ShippingStatusDelivered, order.ShippingInfo.Status)
}

func TestOrder_Cancel_FailsShipping(t *testing.T) {
	order := orderInStatus(t, OrderStatusPaid)
	require.NoError(t, order.Cancel())
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, ShippingStatusFailed, order.ShippingInfo.Status)
}

// ============================================
// Shipping status machine
// ============================================

func TestOrder_UpdateShippingStatus_InTransitShipsPaidOrder(t *testing.T) {
	order := orderInStatus(t, OrderStatusPaid)

	require.NoError(t, order.UpdateShippingStatus(ShippingStatusInTransit))
	assert.Equal(t, ShippingStatusInTransit, order.ShippingInfo.Status)
	assert.Equal(t, OrderStatusShipped, order.Status)
}

func TestOrder_UpdateShippingStatus_DeliveredCompletesOrder(t *testing.T) {
	order := orderInStatus(t, OrderStatusShipped)

	require.NoError(t, order.UpdateShippingStatus(ShippingStatusDelivered))
	assert.Equal(t, OrderStatusCompleted, order.Status)
	require.NotNil(t, order.CompletedAt)
}

func TestOrder_UpdateShippingStatus_FailedCancelsOrder(t *testing.T) {
	order := orderInStatus(t, OrderStatusPaid)

	require.NoError(t, order.UpdateShippingStatus(ShippingStatusFailed))
	assert.Equal(t, OrderStatusCancelled, order.Status)
}

func TestOrder_UpdateShippingStatus_PendingLeavesOrderAlone(t *testing.T) {
	order := orderInStatus(t, OrderStatusShipped)
	require.Equal(t, ShippingStatusInTransit, order.ShippingInfo.Status)

	require.NoError(t, order.UpdateShippingStatus(ShippingStatusPending))
	assert.Equal(t, ShippingStatusPending, order.ShippingInfo.Status)
	assert.Equal(t, OrderStatusShipped, order.Status)
}

func TestOrder_UpdateShippingStatus_InvalidTransition(t *testing.T) {
	order := orderInStatus(t, OrderStatusCompleted)
	require.Equal(t, ShippingStatusDelivered, order.ShippingInfo.Status)

	err := order.UpdateShippingStatus(ShippingStatusInTransit)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
}

func TestOrder_UpdateShippingStatus_NoShippingInfo(t *testing.T) {
	order := createTestOrder(t)
	order.ShippingInfo = nil

	err := order.UpdateShippingStatus(ShippingStatusInTransit)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NO_SHIPPING_INFO", domainErr.Code)
}

// ============================================
// Shipping address edits
// ============================================

func TestOrder_UpdateShippingAddress(t *testing.T) {
	order := createTestOrder(t)

	err := order.UpdateShippingAddress(ShippingDetails{
		RecipientName: "New Name",
		Address:       "99 New Rd",
		City:          "Giza",
		PostalCode:    "12511",
		PhoneNumber:   "01111111111",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", order.ShippingInfo.RecipientName)
	assert.Equal(t, "Giza", order.ShippingInfo.City)
	// Status untouched by address edits
	assert.Equal(t, ShippingStatusPending, order.ShippingInfo.Status)

	assert.Error(t, order.UpdateShippingAddress(ShippingDetails{}))
}
