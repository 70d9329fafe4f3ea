package exchange

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/exchange"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// ExchangeService handles product exchange proposals
type ExchangeService struct {
	exchangeRepo exchange.Repository
	productRepo  catalog.Repository
}

// NewExchangeService creates a new ExchangeService
func NewExchangeService(exchangeRepo exchange.Repository, productRepo catalog.Repository) *ExchangeService {
	return &ExchangeService{
		exchangeRepo: exchangeRepo,
		productRepo:  productRepo,
	}
}

// CreateRequestInput represents a request to propose an exchange
type CreateRequestInput struct {
	SenderID           uuid.UUID
	OfferedProductID   uuid.UUID
	RequestedProductID uuid.UUID
	Message            string
}

// CreateRequest proposes swapping the sender's product for someone else's.
// The duplicate-pair check runs inside the insert transaction, so two
// concurrent proposals for the same pair cannot both land.
func (s *ExchangeService) CreateRequest(ctx context.Context, input CreateRequestInput) (*exchange.ExchangeRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "exchange", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, input.SenderID.String(),
		"offered_product_id", input.OfferedProductID.String(),
		"requested_product_id", input.RequestedProductID.String(),
	)

	offered, err := s.findProduct(ctx, input.OfferedProductID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	requested, err := s.findProduct(ctx, input.RequestedProductID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !offered.IsOwnedBy(input.SenderID) {
		err := shared.NewDomainError("FORBIDDEN", "You can only offer your own products")
		telemetry.RecordError(span, err)
		return nil, err
	}

	req, err := exchange.NewExchangeRequest(offered.ID, requested.ID, input.SenderID, requested.OwnerID, input.Message)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.exchangeRepo.CreateIfNoPendingPair(ctx, req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrExchangeID, req.ID.String())
	return req, nil
}

// Approve accepts a pending request on the receiver's behalf
func (s *ExchangeService) Approve(ctx context.Context, requestID, userID uuid.UUID) (*exchange.ExchangeRequest, error) {
	return s.decide(ctx, requestID, userID, "approve", (*exchange.ExchangeRequest).Approve)
}

// Reject declines a pending request on the receiver's behalf
func (s *ExchangeService) Reject(ctx context.Context, requestID, userID uuid.UUID) (*exchange.ExchangeRequest, error) {
	return s.decide(ctx, requestID, userID, "reject", (*exchange.ExchangeRequest).Reject)
}

// Delete removes a pending request. Either party may delete it.
func (s *ExchangeService) Delete(ctx context.Context, requestID, userID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "exchange", "delete")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrExchangeID, requestID.String())

	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if !req.CanBeDeletedBy(userID) {
		var derr error
		if userID != req.SenderID && userID != req.ReceiverID {
			derr = shared.ErrForbidden
		} else {
			derr = shared.NewDomainError("INVALID_STATE", "Only pending exchange requests can be deleted")
		}
		telemetry.RecordError(span, derr)
		return derr
	}

	if err := s.exchangeRepo.Delete(ctx, req.ID); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to delete exchange request: %w", err)
	}
	return nil
}

// GetByID returns a request to one of its parties
func (s *ExchangeService) GetByID(ctx context.Context, requestID, userID uuid.UUID) (*exchange.ExchangeRequest, error) {
	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if userID != req.SenderID && userID != req.ReceiverID {
		return nil, shared.ErrForbidden
	}
	return req, nil
}

// GetSent returns the requests a user has sent
func (s *ExchangeService) GetSent(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*exchange.ExchangeRequest, int64, error) {
	return s.exchangeRepo.FindBySender(ctx, userID, filter)
}

// GetReceived returns the requests a user has received
func (s *ExchangeService) GetReceived(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*exchange.ExchangeRequest, int64, error) {
	return s.exchangeRepo.FindByReceiver(ctx, userID, filter)
}

// GetAll returns all exchange requests
func (s *ExchangeService) GetAll(ctx context.Context, filter shared.Filter) ([]*exchange.ExchangeRequest, int64, error) {
	return s.exchangeRepo.FindAll(ctx, filter)
}

func (s *ExchangeService) decide(ctx context.Context, requestID, userID uuid.UUID, method string, apply func(*exchange.ExchangeRequest, uuid.UUID) error) (*exchange.ExchangeRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "exchange", method)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrExchangeID, requestID.String())

	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := apply(req, userID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.exchangeRepo.Update(ctx, req); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save exchange request: %w", err)
	}
	return req, nil
}

func (s *ExchangeService) findRequest(ctx context.Context, requestID uuid.UUID) (*exchange.ExchangeRequest, error) {
	req, err := s.exchangeRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange request: %w", err)
	}
	if req == nil {
		return nil, shared.NewDomainError("EXCHANGE_NOT_FOUND", "Exchange request not found")
	}
	return req, nil
}

func (s *ExchangeService) findProduct(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	}
	return p, nil
}
