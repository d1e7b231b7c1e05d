package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CurrencyRepo implements ports.CurrencyRepository.
type CurrencyRepo struct {
	pool Pool
}

// NewCurrencyRepo creates a new CurrencyRepo.
func NewCurrencyRepo(pool Pool) *CurrencyRepo {
	return &CurrencyRepo{pool: pool}
}

// GetByCode fetches a currency by exact code.
func (r *CurrencyRepo) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	query := `SELECT code, name FROM currencies WHERE code = $1`

	c := &domain.Currency{}
	err := r.pool.QueryRow(ctx, query, code).Scan(&c.Code, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get currency by code: %w", err)
	}
	return c, nil
}

// List returns the whole catalog ordered by code.
func (r *CurrencyRepo) List(ctx context.Context) ([]domain.Currency, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, name FROM currencies ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var out []domain.Currency
	for rows.Next() {
		var c domain.Currency
		if err := rows.Scan(&c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("scan currency row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currency rows: %w", err)
	}
	return out, nil
}

// CreateIfAbsent inserts a currency, leaving an existing row with the same code untouched.
func (r *CurrencyRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, c *domain.Currency) (bool, error) {
	query := `INSERT INTO currencies (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`

	tag, err := tx.Exec(ctx, query, c.Code, c.Name)
	if err != nil {
		return false, fmt.Errorf("insert currency: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
