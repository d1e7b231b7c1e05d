// Package money holds the fixed-point rules shared by every balance mutation.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits stored for every amount and rate.
const Scale int32 = 8

var (
	ErrNotPositive  = errors.New("amount must be strictly positive")
	ErrTooPrecise   = fmt.Errorf("amount has more than %d fractional digits", Scale)
	ErrInvalidInput = errors.New("amount is not a decimal number")
)

// Parse reads a decimal string and checks it is a valid transfer amount.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidInput
	}
	if err := Validate(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Validate rejects amounts that are not strictly positive or cannot be stored exactly.
func Validate(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrNotPositive
	}
	if !d.Equal(d.Truncate(Scale)) {
		return ErrTooPrecise
	}
	return nil
}

// Convert applies a rate to an amount, rounding half-to-even at Scale.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).RoundBank(Scale)
}
