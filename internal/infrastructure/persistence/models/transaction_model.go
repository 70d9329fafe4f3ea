package models

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

// WalletTransactionModel is the persistence model for wallet ledger entries
type WalletTransactionModel struct {
	BaseModel
	WalletID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Type           string          `gorm:"type:varchar(20);not null"`
	Status         string          `gorm:"type:varchar(20);not null"`
	Description    string          `gorm:"type:text"`
	RelatedOrderID *uuid.UUID      `gorm:"type:uuid;index"`
	PaymentID      *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for WalletTransactionModel
func (WalletTransactionModel) TableName() string {
	return "wallet_transactions"
}

// ToDomain converts the persistence model to a domain transaction
func (m *WalletTransactionModel) ToDomain() *wallet.Transaction {
	return &wallet.Transaction{
		BaseEntity:     m.ToBaseEntity(),
		WalletID:       m.WalletID,
		Amount:         m.Amount,
		Type:           wallet.TransactionType(m.Type),
		Status:         wallet.TransactionStatus(m.Status),
		Description:    m.Description,
		RelatedOrderID: m.RelatedOrderID,
		PaymentID:      m.PaymentID,
	}
}

// WalletTransactionModelFromDomain converts a domain transaction to its persistence model
func WalletTransactionModelFromDomain(tx *wallet.Transaction) *WalletTransactionModel {
	m := &WalletTransactionModel{
		WalletID:       tx.WalletID,
		Amount:         tx.Amount,
		Type:           tx.Type.String(),
		Status:         tx.Status.String(),
		Description:    tx.Description,
		RelatedOrderID: tx.RelatedOrderID,
		PaymentID:      tx.PaymentID,
	}
	m.FromBaseEntity(tx.BaseEntity)
	return m
}
