package memory

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	store *Store
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(s *Store) *WalletRepo {
	return &WalletRepo{store: s}
}

// Create stages the wallet and its initial balances. One wallet per user.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	checkOwner := func(s *Store) error {
		if _, exists := s.wallets[w.UserID]; exists {
			return fmt.Errorf("insert wallet: user %s already has a wallet", w.UserID)
		}
		return nil
	}

	row := *w
	row.Balances = nil
	err = mtx.stage(op{
		check: checkOwner,
		apply: func(s *Store) {
			s.wallets[row.UserID] = row
			if _, ok := s.balances[row.ID]; !ok {
				s.balances[row.ID] = make(map[string]domain.WalletBalance)
			}
		},
	})
	if err != nil {
		return err
	}

	staged := row
	mtx.mu.Lock()
	mtx.wallets[row.UserID] = &staged
	mtx.mu.Unlock()

	for _, b := range w.Balances {
		if err := r.CreateBalance(ctx, tx, b); err != nil {
			return err
		}
	}
	return nil
}

func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.walletLocked(userID), nil
}

// GetByUserIDTx reads committed state overlaid with rows created in tx.
func (r *WalletRepo) GetByUserIDTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	mtx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	w := r.store.walletLocked(userID)
	r.store.mu.RUnlock()

	mtx.mu.Lock()
	defer mtx.mu.Unlock()
	if w == nil {
		staged, ok := mtx.wallets[userID]
		if !ok {
			return nil, nil
		}
		cp := *staged
		w = &cp
	}
	for _, b := range mtx.balances {
		if b.WalletID != w.ID || w.Balance(b.CurrencyCode) != nil {
			continue
		}
		b := b
		w.Balances = append(w.Balances, &b)
	}
	sortBalances(w.Balances)
	return w, nil
}

// CreateBalance stages a balance row. An existing row for the same wallet and
// currency, now or at commit, yields ports.ErrVersionConflict.
func (r *WalletRepo) CreateBalance(ctx context.Context, tx pgx.Tx, b *domain.WalletBalance) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	checkAbsent := func(s *Store) error {
		if _, exists := s.balances[b.WalletID][b.CurrencyCode]; exists {
			return fmt.Errorf("balance %s for wallet %s already exists: %w", b.CurrencyCode, b.WalletID, ports.ErrVersionConflict)
		}
		return nil
	}

	r.store.mu.RLock()
	err = checkAbsent(r.store)
	r.store.mu.RUnlock()
	if err != nil {
		return err
	}

	row := *b
	err = mtx.stage(op{
		check: checkAbsent,
		apply: func(s *Store) {
			if _, ok := s.balances[row.WalletID]; !ok {
				s.balances[row.WalletID] = make(map[string]domain.WalletBalance)
			}
			s.balances[row.WalletID][row.CurrencyCode] = row
		},
	})
	if err != nil {
		return err
	}

	mtx.mu.Lock()
	mtx.balances = append(mtx.balances, row)
	mtx.mu.Unlock()
	return nil
}

// UpdateBalance stages the conditional write. The stored version must equal
// b.Version both now and when the Tx commits.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, b *domain.WalletBalance) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	expected := b.Version
	checkVersion := func(s *Store) error {
		cur, ok := s.balances[b.WalletID][b.CurrencyCode]
		if !ok || cur.ID != b.ID || cur.Version != expected {
			return fmt.Errorf("balance %s at version %d: %w", b.ID, expected, ports.ErrVersionConflict)
		}
		return nil
	}

	r.store.mu.RLock()
	err = checkVersion(r.store)
	r.store.mu.RUnlock()
	if err != nil {
		return err
	}

	ts := now()
	row := *b
	row.Version = expected + 1
	row.UpdatedAt = ts
	err = mtx.stage(op{
		check: checkVersion,
		apply: func(s *Store) {
			cur := s.balances[row.WalletID][row.CurrencyCode]
			cur.Amount = row.Amount
			cur.Version = row.Version
			cur.UpdatedAt = row.UpdatedAt
			s.balances[row.WalletID][row.CurrencyCode] = cur
		},
	})
	if err != nil {
		return err
	}

	b.Version = row.Version
	b.UpdatedAt = ts
	return nil
}
