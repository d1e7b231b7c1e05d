package dto

import (
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	FirstName   string `json:"first_name" binding:"required,min=1,max=100"`
	LastName    string `json:"last_name" binding:"required,min=1,max=100"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=20"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID   string            `json:"user_id"`
	Email    string            `json:"email"`
	WalletID string            `json:"wallet_id"`
	Balances []BalanceResponse `json:"balances"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// AmountRequest is the body of deposit and withdraw. Amount accepts a JSON
// number or a decimal string.
type AmountRequest struct {
	CurrencyCode string          `json:"currency_code" binding:"required,currency_code"`
	Amount       decimal.Decimal `json:"amount"`
}

// SwapRequest is the body of a currency swap.
type SwapRequest struct {
	FromCurrencyCode string          `json:"from_currency_code" binding:"required,currency_code"`
	ToCurrencyCode   string          `json:"to_currency_code" binding:"required,currency_code"`
	Amount           decimal.Decimal `json:"amount"`
}

// TradeRequest is the body of a trade out of the settlement currency.
type TradeRequest struct {
	TargetCurrencyCode string          `json:"target_currency_code" binding:"required,currency_code"`
	Amount             decimal.Decimal `json:"amount"`
}

// TransactionQuery holds the query string of GET /transactions. Dates accept
// RFC 3339 or YYYY-MM-DD.
type TransactionQuery struct {
	Type      string `form:"type"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// BalanceResponse is one currency position.
type BalanceResponse struct {
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
	Version      int64           `json:"version"`
	UpdatedAt    string          `json:"updated_at"`
}

// ConversionResponse is the result of a swap or trade.
type ConversionResponse struct {
	From      BalanceResponse `json:"from"`
	To        BalanceResponse `json:"to"`
	Rate      decimal.Decimal `json:"rate"`
	Converted decimal.Decimal `json:"converted"`
}

// TransactionResponse is one ledger record.
type TransactionResponse struct {
	ID             int64           `json:"id"`
	Type           string          `json:"type"`
	CurrencyCode   string          `json:"currency_code"`
	ToCurrencyCode string          `json:"to_currency_code,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      string          `json:"created_at"`
}

// RateResponse is a single conversion rate.
type RateResponse struct {
	Base      string          `json:"base"`
	Target    string          `json:"target"`
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt string          `json:"fetched_at"`
}

// CurrencyResponse is one catalog entry.
type CurrencyResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ToBalanceResponse converts a domain balance to its DTO.
func ToBalanceResponse(b *domain.WalletBalance) BalanceResponse {
	return BalanceResponse{
		CurrencyCode: b.CurrencyCode,
		Amount:       b.Amount,
		Version:      b.Version,
		UpdatedAt:    b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ToBalanceList converts balances, never returning nil.
func ToBalanceList(bs []*domain.WalletBalance) []BalanceResponse {
	out := make([]BalanceResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, ToBalanceResponse(b))
	}
	return out
}

func ToConversionResponse(r *ports.ConversionResult) ConversionResponse {
	return ConversionResponse{
		From:      ToBalanceResponse(r.From),
		To:        ToBalanceResponse(r.To),
		Rate:      r.Rate,
		Converted: r.Converted,
	}
}

// ToTransactionList converts ledger records, never returning nil.
func ToTransactionList(txs []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, TransactionResponse{
			ID:             t.ID,
			Type:           string(t.Type),
			CurrencyCode:   t.CurrencyCode,
			ToCurrencyCode: t.ToCurrencyCode,
			Amount:         t.Amount,
			CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

func ToRateResponse(r *domain.Rate) RateResponse {
	return RateResponse{
		Base:      r.Base,
		Target:    r.Target,
		Rate:      r.Rate,
		FetchedAt: r.FetchedAt.UTC().Format(time.RFC3339),
	}
}
