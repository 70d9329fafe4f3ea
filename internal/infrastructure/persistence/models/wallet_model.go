package models

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

// WalletModel is the persistence model for wallets
type WalletModel struct {
	AggregateModel
	UserID              uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Balance             decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	IsLocked            bool            `gorm:"not null;default:false"`
	LinkedPaymentMethod string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for WalletModel
func (WalletModel) TableName() string {
	return "wallets"
}

// ToDomain converts the persistence model to a domain wallet
func (m *WalletModel) ToDomain() *wallet.Wallet {
	return &wallet.Wallet{
		BaseAggregateRoot:   m.ToBaseAggregateRoot(),
		UserID:              m.UserID,
		Balance:             m.Balance,
		IsLocked:            m.IsLocked,
		LinkedPaymentMethod: m.LinkedPaymentMethod,
	}
}

// WalletModelFromDomain converts a domain wallet to its persistence model
func WalletModelFromDomain(w *wallet.Wallet) *WalletModel {
	m := &WalletModel{
		UserID:              w.UserID,
		Balance:             w.Balance,
		IsLocked:            w.IsLocked,
		LinkedPaymentMethod: w.LinkedPaymentMethod,
	}
	m.FromBaseAggregateRoot(w.BaseAggregateRoot)
	return m
}
