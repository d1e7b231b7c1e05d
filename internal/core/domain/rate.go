package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate is the conversion factor for one ordered pair: 1 Base = Rate Target.
type Rate struct {
	Base      string          `json:"base"`
	Target    string          `json:"target"`
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetched_at"`
}
