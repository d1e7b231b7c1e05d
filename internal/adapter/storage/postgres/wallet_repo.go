package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet and its initial balance rows.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, w.ID, w.UserID, w.Version, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}

	for _, b := range w.Balances {
		if err := r.CreateBalance(ctx, tx, b); err != nil {
			return err
		}
	}
	return nil
}

// GetByUserID loads the wallet aggregate outside any transaction.
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return r.load(ctx, r.pool, userID)
}

// GetByUserIDTx loads the wallet aggregate inside tx. No row locks are taken;
// writes are guarded by the balance version instead.
func (r *WalletRepo) GetByUserIDTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	return r.load(ctx, tx, userID)
}

func (r *WalletRepo) load(ctx context.Context, q querier, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, user_id, version, created_at, updated_at FROM wallets WHERE user_id = $1`

	w := &domain.Wallet{}
	err := q.QueryRow(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT id, wallet_id, currency_code, amount, version, created_at, updated_at
		FROM wallet_balances WHERE wallet_id = $1 ORDER BY currency_code`, w.ID)
	if err != nil {
		return nil, fmt.Errorf("list wallet balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b := &domain.WalletBalance{}
		if err := rows.Scan(&b.ID, &b.WalletID, &b.CurrencyCode, &b.Amount, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet balance row: %w", err)
		}
		w.Balances = append(w.Balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet balance rows: %w", err)
	}
	return w, nil
}

// CreateBalance inserts a balance row. A concurrent insert for the same
// wallet and currency makes it report ports.ErrVersionConflict.
func (r *WalletRepo) CreateBalance(ctx context.Context, tx pgx.Tx, b *domain.WalletBalance) error {
	query := `INSERT INTO wallet_balances (id, wallet_id, currency_code, amount, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (wallet_id, currency_code) DO NOTHING`

	tag, err := tx.Exec(ctx, query,
		b.ID, b.WalletID, b.CurrencyCode, b.Amount, b.Version, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet balance: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance %s for wallet %s already exists: %w", b.CurrencyCode, b.WalletID, ports.ErrVersionConflict)
	}
	return nil
}

// UpdateBalance is the optimistic write: it only succeeds if the row still
// carries the version that was read.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, b *domain.WalletBalance) error {
	query := `UPDATE wallet_balances SET amount = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, query, b.Amount, now, b.ID, b.Version)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance %s at version %d: %w", b.ID, b.Version, ports.ErrVersionConflict)
	}
	b.Version++
	b.UpdatedAt = now
	return nil
}
