package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	applicationwallet "github.com/marketplace/backend/internal/application/wallet"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/domain/wallet"
)

// WalletHandler exposes the wallet and ledger endpoints
type WalletHandler struct {
	BaseHandler
	walletService *applicationwallet.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *applicationwallet.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// RegisterRoutes registers the wallet routes
func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup) {
	wallets := rg.Group("/wallets")
	{
		wallets.POST("", h.Create)
		wallets.GET("/balance", h.GetBalance)
		wallets.POST("/deposit", h.Deposit)
		wallets.POST("/withdraw", h.Withdraw)
		wallets.POST("/pay", h.Pay)
		wallets.POST("/refund", h.Refund)
		wallets.POST("/lock", h.Lock)
		wallets.POST("/unlock", h.Unlock)
		wallets.POST("/link-method", h.LinkMethod)
		wallets.GET("/transactions", h.ListTransactions)
		wallets.GET("/transactions/:id", h.GetTransaction)
		wallets.POST("/transactions/:id/confirm", h.ConfirmTransaction)
	}
}

// AmountRequest is the payload shared by deposit, withdraw and pay
type AmountRequest struct {
	Amount      string  `json:"amount" binding:"required"`
	Description string  `json:"description"`
	OrderID     *string `json:"order_id" binding:"omitempty,uuid"`
}

// RefundRequest identifies the payment entry to refund
type RefundRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	Description   string `json:"description"`
}

// LinkMethodRequest carries the external payment method identifier
type LinkMethodRequest struct {
	Method string `json:"method" binding:"required"`
}

// TransactionResponse is the ledger entry view returned by the API
type TransactionResponse struct {
	ID             uuid.UUID  `json:"id"`
	WalletID       uuid.UUID  `json:"wallet_id"`
	Amount         string     `json:"amount"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	Description    string     `json:"description,omitempty"`
	RelatedOrderID *uuid.UUID `json:"related_order_id,omitempty"`
	PaymentID      *uuid.UUID `json:"payment_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewTransactionResponse converts a ledger entry to its API view
func NewTransactionResponse(tx *wallet.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             tx.ID,
		WalletID:       tx.WalletID,
		Amount:         tx.Amount.StringFixed(2),
		Type:           tx.Type.String(),
		Status:         tx.Status.String(),
		Description:    tx.Description,
		RelatedOrderID: tx.RelatedOrderID,
		PaymentID:      tx.PaymentID,
		CreatedAt:      tx.CreatedAt,
	}
}

func (h *WalletHandler) bindAmount(c *gin.Context) (applicationwallet.AmountRequest, bool) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return applicationwallet.AmountRequest{}, false
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return applicationwallet.AmountRequest{}, false
	}
	amount, err := valueobject.NewMoneyEGPFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return applicationwallet.AmountRequest{}, false
	}

	out := applicationwallet.AmountRequest{
		UserID:      userID,
		Amount:      amount,
		Description: req.Description,
	}
	if req.OrderID != nil {
		orderID, err := uuid.Parse(*req.OrderID)
		if err != nil {
			h.BadRequest(c, "Invalid order ID")
			return applicationwallet.AmountRequest{}, false
		}
		out.OrderID = &orderID
	}
	return out, true
}

// Create handles POST /wallets
func (h *WalletHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	w, err := h.walletService.CreateWallet(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{
		"wallet_id": w.ID,
		"user_id":   w.UserID,
		"balance":   w.Balance.StringFixed(2),
	})
}

// GetBalance handles GET /wallets/balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	result, err := h.walletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Deposit handles POST /wallets/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	req, ok := h.bindAmount(c)
	if !ok {
		return
	}
	result, err := h.walletService.Deposit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Withdraw handles POST /wallets/withdraw
func (h *WalletHandler) Withdraw(c *gin.Context) {
	req, ok := h.bindAmount(c)
	if !ok {
		return
	}
	result, err := h.walletService.Withdraw(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Pay handles POST /wallets/pay
func (h *WalletHandler) Pay(c *gin.Context) {
	req, ok := h.bindAmount(c)
	if !ok {
		return
	}
	result, err := h.walletService.Pay(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refund handles POST /wallets/refund
func (h *WalletHandler) Refund(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	result, err := h.walletService.Refund(c.Request.Context(), userID, transactionID, req.Description)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Lock handles POST /wallets/lock
func (h *WalletHandler) Lock(c *gin.Context) {
	h.toggleLock(c, h.walletService.Lock)
}

// Unlock handles POST /wallets/unlock
func (h *WalletHandler) Unlock(c *gin.Context) {
	h.toggleLock(c, h.walletService.Unlock)
}

func (h *WalletHandler) toggleLock(c *gin.Context, fn func(ctx context.Context, userID uuid.UUID) error) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	if err := fn(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.walletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// LinkMethod handles POST /wallets/link-method
func (h *WalletHandler) LinkMethod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	var req LinkMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.walletService.LinkPaymentMethod(c.Request.Context(), userID, req.Method); err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.walletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListTransactions handles GET /wallets/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	listReq, ok := h.bindList(c)
	if !ok {
		return
	}
	filter := listReq.ToFilter()

	transactions, total, err := h.walletService.GetTransactions(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	responses := make([]TransactionResponse, len(transactions))
	for i, tx := range transactions {
		responses[i] = NewTransactionResponse(tx)
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// GetTransaction handles GET /wallets/transactions/:id
func (h *WalletHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	transactionID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	tx, err := h.walletService.GetTransaction(c.Request.Context(), userID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewTransactionResponse(tx))
}

// ConfirmTransaction handles POST /wallets/transactions/:id/confirm
func (h *WalletHandler) ConfirmTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}
	transactionID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	tx, err := h.walletService.ConfirmTransaction(c.Request.Context(), userID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewTransactionResponse(tx))
}
