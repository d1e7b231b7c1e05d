package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of ledger operations.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeSwap     TransactionType = "SWAP"
	TransactionTypeTrade    TransactionType = "TRADE"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeSwap, TransactionTypeTrade:
		return true
	}
	return false
}

// IsConversion is true for types that move value between two currencies.
func (t TransactionType) IsConversion() bool {
	return t == TransactionTypeSwap || t == TransactionTypeTrade
}

// Transaction is an append-only ledger record. It is written in the same
// database transaction as the balance change it describes and never updated.
type Transaction struct {
	ID             int64           `json:"id"`
	WalletID       uuid.UUID       `json:"wallet_id"`
	CurrencyCode   string          `json:"currency_code"`
	Amount         decimal.Decimal `json:"amount"`
	Type           TransactionType `json:"type"`
	ToCurrencyCode string          `json:"to_currency_code,omitempty"` // SWAP and TRADE only
	CreatedAt      time.Time       `json:"created_at"`
}
