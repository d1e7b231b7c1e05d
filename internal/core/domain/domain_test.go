package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionType_Valid(t *testing.T) {
	tests := []struct {
		name string
		typ  TransactionType
		want bool
	}{
		{"deposit", TransactionTypeDeposit, true},
		{"withdraw", TransactionTypeWithdraw, true},
		{"swap", TransactionTypeSwap, true},
		{"trade", TransactionTypeTrade, true},
		{"lowercase", TransactionType("deposit"), false},
		{"empty", TransactionType(""), false},
		{"refund", TransactionType("REFUND"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Valid())
		})
	}
}

func TestTransactionType_IsConversion(t *testing.T) {
	assert.True(t, TransactionTypeSwap.IsConversion())
	assert.True(t, TransactionTypeTrade.IsConversion())
	assert.False(t, TransactionTypeDeposit.IsConversion())
	assert.False(t, TransactionTypeWithdraw.IsConversion())
}

func TestWallet_Balance(t *testing.T) {
	w := &Wallet{Balances: []*WalletBalance{
		{CurrencyCode: "NGN", Amount: decimal.NewFromInt(10)},
		{CurrencyCode: "USD"},
	}}

	ngn := w.Balance("NGN")
	require.NotNil(t, ngn)
	assert.True(t, ngn.Amount.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, w.Balance("ngn"), "lookup is case-sensitive")
	assert.Nil(t, w.Balance("EUR"))
}

func TestWalletBalance_CanDebit(t *testing.T) {
	b := &WalletBalance{Amount: decimal.RequireFromString("10000.00")}

	assert.True(t, b.CanDebit(decimal.RequireFromString("10000")))
	assert.True(t, b.CanDebit(decimal.RequireFromString("0.01")))
	assert.False(t, b.CanDebit(decimal.RequireFromString("50000.00")))
	assert.False(t, b.CanDebit(decimal.RequireFromString("10000.00000001")))
}

func TestNewBalance(t *testing.T) {
	walletID := uuid.New()
	b := NewBalance(walletID, "USD")

	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, walletID, b.WalletID)
	assert.Equal(t, "USD", b.CurrencyCode)
	assert.True(t, b.Amount.IsZero())
	assert.Zero(t, b.Version)
}
