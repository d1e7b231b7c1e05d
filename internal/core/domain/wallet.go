package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the aggregate root for a user's balances. It is always loaded
// together with its balances.
type Wallet struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Version   int64            `json:"version"` // wallet-level counter, bumped on provisioning
	Balances  []*WalletBalance `json:"balances"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Balance returns the balance held in code, or nil.
func (w *Wallet) Balance(code string) *WalletBalance {
	for _, b := range w.Balances {
		if b.CurrencyCode == code {
			return b
		}
	}
	return nil
}

// WalletBalance is one currency position inside a wallet. Version is the
// optimistic concurrency guard: every successful write increments it by one.
type WalletBalance struct {
	ID           uuid.UUID       `json:"id"`
	WalletID     uuid.UUID       `json:"wallet_id"`
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CanDebit reports whether amount can be withdrawn without going negative.
func (b *WalletBalance) CanDebit(amount decimal.Decimal) bool {
	return b.Amount.GreaterThanOrEqual(amount)
}

// NewBalance builds a zero balance row for lazy provisioning.
func NewBalance(walletID uuid.UUID, code string) *WalletBalance {
	now := time.Now().UTC()
	return &WalletBalance{
		ID:           uuid.New(),
		WalletID:     walletID,
		CurrencyCode: code,
		Amount:       decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
