package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/domain/wallet"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// callbackMarkTTL is how long a processed gateway reference stays marked
const callbackMarkTTL = 24 * time.Hour

// IdempotencyStore deduplicates gateway callbacks.
// MarkProcessed returns false when the key was already marked.
type IdempotencyStore interface {
	IsProcessed(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// PaymentService bridges external payment gateways to the wallet ledger.
// A completed payment debits the payer's wallet and writes the ledger entry
// in the same database transaction as the payment row, so either all of it
// lands or none of it does.
type PaymentService struct {
	paymentRepo payment.Repository
	walletRepo  wallet.Repository
	txRepo      wallet.TransactionRepository
	gateways    map[payment.Gateway]payment.GatewayClient
	idempotency IdempotencyStore
	uow         shared.UnitOfWork
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo payment.Repository,
	walletRepo wallet.Repository,
	txRepo wallet.TransactionRepository,
	idempotency IdempotencyStore,
	uow shared.UnitOfWork,
	clients ...payment.GatewayClient,
) *PaymentService {
	gateways := make(map[payment.Gateway]payment.GatewayClient, len(clients))
	for _, c := range clients {
		gateways[c.Gateway()] = c
	}
	return &PaymentService{
		paymentRepo: paymentRepo,
		walletRepo:  walletRepo,
		txRepo:      txRepo,
		gateways:    gateways,
		idempotency: idempotency,
		uow:         uow,
	}
}

// CreatePaymentRequest represents a request to charge a user through a gateway
type CreatePaymentRequest struct {
	UserID      uuid.UUID
	OrderID     *uuid.UUID
	Amount      valueobject.Money
	Gateway     payment.Gateway
	Description string
}

// PaymentResult is the gateway handshake returned to the caller
type PaymentResult struct {
	PaymentID        uuid.UUID       `json:"payment_id"`
	Status           payment.Status  `json:"status"`
	Gateway          payment.Gateway `json:"gateway"`
	GatewayReference string          `json:"gateway_reference"`
	RedirectURL      string          `json:"redirect_url,omitempty"`
	ClientSecret     string          `json:"client_secret,omitempty"`
}

// CreatePayment creates a payment and hands it to the gateway adapter.
// Providers that settle synchronously complete the payment and debit the
// wallet immediately; the others leave the payment pending until the
// gateway callback arrives.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrGateway, req.Gateway.String(),
		telemetry.SpanAttrAmount, req.Amount.Amount().String(),
	)

	client, ok := s.gateways[req.Gateway]
	if !ok {
		err := shared.NewDomainError("INVALID_GATEWAY", "Unsupported payment gateway")
		telemetry.RecordError(span, err)
		return nil, err
	}

	p, err := payment.NewPayment(req.UserID, req.OrderID, req.Amount, req.Gateway, req.Description)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := client.CreateCharge(ctx, p)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("gateway charge failed: %w", err)
	}
	p.AttachGatewayReference(result.Reference)

	if result.Completed {
		if err := s.settle(ctx, p, true); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	} else {
		if err := s.paymentRepo.Create(ctx, p); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save payment: %w", err)
		}
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, p.ID.String())
	return &PaymentResult{
		PaymentID:        p.ID,
		Status:           p.Status,
		Gateway:          p.Gateway,
		GatewayReference: p.GatewayReference,
		RedirectURL:      result.RedirectURL,
		ClientSecret:     result.ClientSecret,
	}, nil
}

// HandleGatewayCallback resolves a pending payment from a gateway webhook.
// Callbacks are deduplicated by gateway reference, so a replayed webhook is
// a no-op. The mark is written only after the state change commits; a
// callback that fails mid-settlement stays unmarked so the gateway's retry
// settles it.
func (s *PaymentService) HandleGatewayCallback(ctx context.Context, gatewayRef string, succeeded bool) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "gateway_callback")
	defer span.End()
	telemetry.SetAttributes(span, "gateway_reference", gatewayRef, "succeeded", succeeded)

	if gatewayRef == "" {
		err := shared.NewDomainError("INVALID_INPUT", "Gateway reference is required")
		telemetry.RecordError(span, err)
		return err
	}

	seen, err := s.idempotency.IsProcessed(ctx, gatewayRef)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to deduplicate callback: %w", err)
	}
	if seen {
		telemetry.AddEvent(span, "duplicate_callback_ignored")
		return nil
	}

	p, err := s.paymentRepo.FindByGatewayReference(ctx, gatewayRef)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to get payment: %w", err)
	}
	if p == nil {
		err := shared.NewDomainError("CALLBACK_UNRESOLVABLE", "No payment matches the gateway reference")
		telemetry.RecordError(span, err)
		return err
	}
	if p.Status != payment.StatusPending {
		// Settled earlier but the mark was lost or expired; still a replay
		telemetry.AddEvent(span, "duplicate_callback_ignored")
		return nil
	}

	if !succeeded {
		if err := p.Fail(); err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		if err := s.paymentRepo.Update(ctx, p); err != nil {
			telemetry.RecordError(span, err)
			return fmt.Errorf("failed to save payment: %w", err)
		}
	} else if err := s.settle(ctx, p, false); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	// A failed mark is not fatal: the payment is no longer pending, so the
	// status check above absorbs any replay.
	if _, err := s.idempotency.MarkProcessed(ctx, gatewayRef, callbackMarkTTL); err != nil {
		telemetry.RecordError(span, err)
	}
	return nil
}

// GetPayment returns one of the user's payments
func (s *PaymentService) GetPayment(ctx context.Context, userID, paymentID uuid.UUID) (*payment.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if p == nil || p.UserID != userID {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	return p, nil
}

// ListPayments returns the user's payments, newest first
func (s *PaymentService) ListPayments(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*payment.Payment, int64, error) {
	return s.paymentRepo.FindByUser(ctx, userID, filter)
}

// settle completes the payment, debits the wallet and writes the ledger
// entry plus the payment row in one database transaction. isNew says whether
// the payment row still has to be inserted. The wallet write is retried on
// version conflicts like any other balance mutation.
func (s *PaymentService) settle(ctx context.Context, p *payment.Payment, isNew bool) error {
	if err := p.Complete(); err != nil {
		return err
	}

	for attempt := 0; attempt < 3; attempt++ {
		w, err := s.walletRepo.FindByUserID(ctx, p.UserID)
		if err != nil {
			return fmt.Errorf("failed to get wallet: %w", err)
		}
		if w == nil {
			return shared.NewDomainError("WALLET_NOT_FOUND", "User has no wallet")
		}

		tx, err := w.Pay(p.GetAmountMoney(), p.OrderID, &p.ID, p.Description)
		if err != nil {
			return err
		}

		err = s.uow.Execute(ctx, func(txCtx context.Context) error {
			if err := s.walletRepo.Save(txCtx, w); err != nil {
				return err
			}
			if err := s.txRepo.Create(txCtx, tx); err != nil {
				return err
			}
			if isNew {
				return s.paymentRepo.Create(txCtx, p)
			}
			return s.paymentRepo.Update(txCtx, p)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return fmt.Errorf("failed to settle payment: %w", err)
		}
	}
	return shared.ErrConcurrencyConflict
}
