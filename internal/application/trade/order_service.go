package trade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// OrderService handles order creation and the buyer-facing order operations
type OrderService struct {
	orderRepo   trade.OrderRepository
	productRepo catalog.Repository
	events      shared.EventPublisher
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo trade.OrderRepository, productRepo catalog.Repository) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// SetEventPublisher wires the bus that receives order domain events
func (s *OrderService) SetEventPublisher(pub shared.EventPublisher) {
	s.events = pub
}

// CreateOrderRequest represents a request to purchase a product
type CreateOrderRequest struct {
	BuyerID       uuid.UUID
	ProductID     uuid.UUID
	RecipientName string
	Address       string
	City          string
	PostalCode    string
	PhoneNumber   string
}

// CreateOrder creates an order for a product at its listed price.
// The platform fee split is fixed at order creation time.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*trade.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, req.BuyerID.String(),
		"product_id", req.ProductID.String(),
	)

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		err := shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !product.IsAvailable {
		err := shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available for purchase")
		telemetry.RecordError(span, err)
		return nil, err
	}

	order, err := trade.NewOrder(product.ID, req.BuyerID, product.OwnerID, product.GetPriceMoney(), trade.ShippingDetails{
		RecipientName: req.RecipientName,
		Address:       req.Address,
		City:          req.City,
		PostalCode:    req.PostalCode,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	publishOrderEvents(ctx, s.events, order)

	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, order.ID.String())
	return order, nil
}

// GetOrder returns an order to one of its parties
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*trade.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, shared.ErrForbidden
	}
	return order, nil
}

// CancelOrder cancels an order on the buyer's behalf
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*trade.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "cancel")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, orderID.String())

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if order.BuyerID != userID {
		err := shared.NewDomainError("FORBIDDEN", "Only the buyer can cancel an order")
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := order.Cancel(); err != nil {
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

// UpdateShippingAddress edits the address fields on the buyer's behalf
func (s *OrderService) UpdateShippingAddress(ctx context.Context, orderID, userID uuid.UUID, details trade.ShippingDetails) (*trade.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the buyer can edit the shipping address")
	}

	if err := order.UpdateShippingAddress(details); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	return order, nil
}

// ListBought returns the orders placed by a buyer
func (s *OrderService) ListBought(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*trade.Order, int64, error) {
	return s.orderRepo.FindByBuyer(ctx, buyerID, filter)
}

// ListSold returns the orders received by a seller
func (s *OrderService) ListSold(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]*trade.Order, int64, error) {
	return s.orderRepo.FindBySeller(ctx, sellerID, filter)
}

// publishOrderEvents drains an order's pending events into the bus, if wired
func publishOrderEvents(ctx context.Context, pub shared.EventPublisher, order *trade.Order) {
	if pub == nil {
		return
	}
	pending := order.GetDomainEvents()
	if len(pending) == 0 {
		return
	}
	order.ClearDomainEvents()
	_ = pub.Publish(ctx, pending...)
}

func (s *OrderService) findOrder(ctx context.Context, orderID uuid.UUID) (*trade.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	}
	return order, nil
}
