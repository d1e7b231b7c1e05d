package memory

import (
	"context"
	"sort"

	"wallet-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CurrencyRepo implements ports.CurrencyRepository.
type CurrencyRepo struct {
	store *Store
}

// NewCurrencyRepo creates a new CurrencyRepo.
func NewCurrencyRepo(s *Store) *CurrencyRepo {
	return &CurrencyRepo{store: s}
}

func (r *CurrencyRepo) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.currencies[code]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CurrencyRepo) List(ctx context.Context) ([]domain.Currency, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]domain.Currency, 0, len(r.store.currencies))
	for _, c := range r.store.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// CreateIfAbsent stages the insert. The returned flag reflects committed
// state at call time; a concurrent insert of the same code wins silently.
func (r *CurrencyRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, c *domain.Currency) (bool, error) {
	mtx, err := asTx(tx)
	if err != nil {
		return false, err
	}

	r.store.mu.RLock()
	_, exists := r.store.currencies[c.Code]
	r.store.mu.RUnlock()
	if exists {
		return false, nil
	}

	row := *c
	err = mtx.stage(op{apply: func(s *Store) {
		if _, ok := s.currencies[row.Code]; !ok {
			s.currencies[row.Code] = row
		}
	}})
	if err != nil {
		return false, err
	}
	return true, nil
}
