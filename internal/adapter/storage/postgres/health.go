package postgres

import (
	"context"
	"errors"
	"fmt"
)

// HealthCheck reports the ledger database as healthy only when the currency
// catalog is readable and non-empty; without it no wallet can be provisioned.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates the ledger database health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping implements ports.HealthChecker.
func (h *HealthCheck) Ping(ctx context.Context) error {
	var n int64
	if err := h.pool.QueryRow(ctx, "SELECT count(*) FROM currencies").Scan(&n); err != nil {
		return fmt.Errorf("reading currency catalog: %w", err)
	}
	if n == 0 {
		return errors.New("currency catalog is empty")
	}
	return nil
}

// Name implements ports.HealthChecker.
func (h *HealthCheck) Name() string {
	return "ledger_db"
}
