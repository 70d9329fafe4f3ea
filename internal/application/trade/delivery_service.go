package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// DeliveryService drives the order and shipping status machines and repairs
// drift between them. Every mutation persists the order and its shipping
// info in one unit of work via the repository's Save contract.
type DeliveryService struct {
	orderRepo trade.OrderRepository
	events    shared.EventPublisher
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(orderRepo trade.OrderRepository) *DeliveryService {
	return &DeliveryService{orderRepo: orderRepo}
}

// SetEventPublisher wires the bus that receives order domain events
func (s *DeliveryService) SetEventPublisher(pub shared.EventPublisher) {
	s.events = pub
}

// TransitionsResult lists what the current status pair allows next
type TransitionsResult struct {
	OrderID                    uuid.UUID              `json:"order_id"`
	OrderStatus                trade.OrderStatus      `json:"order_status"`
	ShippingStatus             trade.ShippingStatus   `json:"shipping_status"`
	AllowedOrderTransitions    []trade.OrderStatus    `json:"allowed_order_transitions"`
	AllowedShippingTransitions []trade.ShippingStatus `json:"allowed_shipping_transitions"`
	Recommendations            []string               `json:"recommendations"`
}

// StatusSummaryResult is the combined view of an order's delivery state
type StatusSummaryResult struct {
	OrderID                    uuid.UUID              `json:"order_id"`
	OrderStatus                trade.OrderStatus      `json:"order_status"`
	ShippingStatus             trade.ShippingStatus   `json:"shipping_status"`
	IsSynchronized             bool                   `json:"is_synchronized"`
	LastUpdated                time.Time              `json:"last_updated"`
	AllowedOrderTransitions    []trade.OrderStatus    `json:"allowed_order_transitions"`
	AllowedShippingTransitions []trade.ShippingStatus `json:"allowed_shipping_transitions"`
}

// SynchronizeResult reports what the repair did
type SynchronizeResult struct {
	OrderID        uuid.UUID            `json:"order_id"`
	Changed        bool                 `json:"changed"`
	OrderStatus    trade.OrderStatus    `json:"order_status"`
	ShippingStatus trade.ShippingStatus `json:"shipping_status"`
}

// UpdateOrderStatus transitions the order status and applies the shipping
// side effects
func (s *DeliveryService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus trade.OrderStatus) (*trade.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "update_order_status")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrOrderStatus, newStatus.String(),
	)

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := order.UpdateStatus(newStatus); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	publishOrderEvents(ctx, s.events, order)
	return order, nil
}

// UpdateShippingStatus transitions the shipping status and applies the order
// side effects
func (s *DeliveryService) UpdateShippingStatus(ctx context.Context, orderID uuid.UUID, newStatus trade.ShippingStatus) (*trade.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "update_shipping_status")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrShippingStatus, newStatus.String(),
	)

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := order.UpdateShippingStatus(newStatus); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	publishOrderEvents(ctx, s.events, order)
	return order, nil
}

// Synchronize repairs drift between the order and shipping status. It is
// idempotent and never rejects a repair.
func (s *DeliveryService) Synchronize(ctx context.Context, orderID uuid.UUID) (*SynchronizeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "synchronize")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, orderID.String())

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	changed := order.Synchronize()
	if changed {
		if err := s.orderRepo.Save(ctx, order); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save order: %w", err)
		}
		telemetry.AddEvent(span, "status_drift_repaired",
			telemetry.SpanAttrOrderStatus, order.Status.String(),
		)
		publishOrderEvents(ctx, s.events, order)
	}

	result := &SynchronizeResult{
		OrderID:     order.ID,
		Changed:     changed,
		OrderStatus: order.Status,
	}
	if order.ShippingInfo != nil {
		result.ShippingStatus = order.ShippingInfo.Status
	}
	return result, nil
}

// GetAvailableTransitions returns the statically allowed next statuses plus
// drift recommendations. Nothing is mutated.
func (s *DeliveryService) GetAvailableTransitions(ctx context.Context, orderID uuid.UUID) (*TransitionsResult, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &TransitionsResult{
		OrderID:                 order.ID,
		OrderStatus:             order.Status,
		AllowedOrderTransitions: order.Status.AllowedTransitions(),
		Recommendations:         order.TransitionRecommendations(),
	}
	if order.ShippingInfo != nil {
		result.ShippingStatus = order.ShippingInfo.Status
		result.AllowedShippingTransitions = order.ShippingInfo.Status.AllowedTransitions()
	}
	return result, nil
}

// GetStatusSummary returns the combined delivery view of an order
func (s *DeliveryService) GetStatusSummary(ctx context.Context, orderID uuid.UUID) (*StatusSummaryResult, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &StatusSummaryResult{
		OrderID:                 order.ID,
		OrderStatus:             order.Status,
		IsSynchronized:          order.IsSynchronized(),
		LastUpdated:             order.LastUpdated(),
		AllowedOrderTransitions: order.Status.AllowedTransitions(),
	}
	if order.ShippingInfo != nil {
		result.ShippingStatus = order.ShippingInfo.Status
		result.AllowedShippingTransitions = order.ShippingInfo.Status.AllowedTransitions()
	}
	return result, nil
}

// ListActiveDeliveries returns the fulfilment queue of paid and shipped orders
func (s *DeliveryService) ListActiveDeliveries(ctx context.Context, filter shared.Filter) ([]*trade.Order, int64, error) {
	return s.orderRepo.FindByStatuses(ctx, []trade.OrderStatus{trade.OrderStatusPaid, trade.OrderStatusShipped}, filter)
}

func (s *DeliveryService) findOrder(ctx context.Context, orderID uuid.UUID) (*trade.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	}
	return order, nil
}
