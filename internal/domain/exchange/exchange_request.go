package exchange

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Status represents the state of an exchange request
type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// IsValid checks if the status is a valid exchange Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ExchangeRequest is a proposal to swap one product for another. A request
// is decided at most once; Accepted and Rejected are terminal. Only pending
// requests may be deleted.
type ExchangeRequest struct {
	shared.BaseEntity
	OfferedProductID   uuid.UUID
	RequestedProductID uuid.UUID
	SenderID           uuid.UUID
	ReceiverID         uuid.UUID
	Status             Status
	Message            string
	RespondedAt        *time.Time
}

// NewExchangeRequest creates a pending exchange proposal.
// senderID owns the offered product, receiverID owns the requested one.
func NewExchangeRequest(offeredProductID, requestedProductID, senderID, receiverID uuid.UUID, message string) (*ExchangeRequest, error) {
	if offeredProductID == uuid.Nil || requestedProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Both product IDs are required")
	}
	if offeredProductID == requestedProductID {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Cannot exchange a product for itself")
	}
	if senderID == uuid.Nil || receiverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Sender and receiver are required")
	}
	if senderID == receiverID {
		return nil, shared.NewDomainError("INVALID_USER", "Cannot exchange with yourself")
	}

	return &ExchangeRequest{
		BaseEntity:         shared.NewBaseEntity(),
		OfferedProductID:   offeredProductID,
		RequestedProductID: requestedProductID,
		SenderID:           senderID,
		ReceiverID:         receiverID,
		Status:             StatusPending,
		Message:            message,
	}, nil
}

// IsPending reports whether the request is still undecided
func (r *ExchangeRequest) IsPending() bool {
	return r.Status == StatusPending
}

func (r *ExchangeRequest) decide(by uuid.UUID, status Status) error {
	if by != r.ReceiverID {
		return shared.NewDomainError("FORBIDDEN", "Only the requested product's owner can respond")
	}
	if !r.IsPending() {
		return shared.NewDomainError("INVALID_STATE", "Exchange request has already been decided")
	}
	now := time.Now().UTC()
	r.Status = status
	r.RespondedAt = &now
	r.UpdatedAt = now
	return nil
}

// Approve accepts the exchange. Only the receiver may approve, and only
// while the request is pending.
func (r *ExchangeRequest) Approve(by uuid.UUID) error {
	return r.decide(by, StatusAccepted)
}

// Reject declines the exchange under the same rules as Approve
func (r *ExchangeRequest) Reject(by uuid.UUID) error {
	return r.decide(by, StatusRejected)
}

// CanBeDeletedBy reports whether the user may delete the request.
// Either party may delete it, but only while it is pending.
func (r *ExchangeRequest) CanBeDeletedBy(userID uuid.UUID) bool {
	return r.IsPending() && (userID == r.SenderID || userID == r.ReceiverID)
}
