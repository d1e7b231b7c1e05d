// Package memory is an in-process implementation of the repository ports.
// It keeps the same transactional contract as the postgres adapter: writes are
// staged on a Tx and become visible only on Commit, and balance writes are
// guarded by row versions that are re-checked at commit time.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var errForeignTx = errors.New("memory: transaction was not started by this store")

// Store holds committed state for every repository in this package.
type Store struct {
	mu           sync.RWMutex
	currencies   map[string]domain.Currency
	users        map[uuid.UUID]domain.User
	emails       map[string]uuid.UUID
	wallets      map[uuid.UUID]domain.Wallet // keyed by user id, Balances unset
	balances     map[uuid.UUID]map[string]domain.WalletBalance
	transactions []domain.Transaction
	audits       []domain.AuditLog

	nextTransactionID atomic.Int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		currencies: make(map[string]domain.Currency),
		users:      make(map[uuid.UUID]domain.User),
		emails:     make(map[string]uuid.UUID),
		wallets:    make(map[uuid.UUID]domain.Wallet),
		balances:   make(map[uuid.UUID]map[string]domain.WalletBalance),
	}
}

// Transactor implements ports.DBTransactor for a Store.
type Transactor struct {
	store *Store
}

// NewTransactor creates a Transactor bound to s.
func NewTransactor(s *Store) *Transactor {
	return &Transactor{store: s}
}

// Begin starts a new staged transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{
		store:   t.store,
		wallets: make(map[uuid.UUID]*domain.Wallet),
	}, nil
}

// op is one staged write. check runs under the store lock before any apply,
// so a failing check leaves committed state untouched.
type op struct {
	check func(s *Store) error
	apply func(s *Store)
}

// Tx is a pgx.Tx whose writes are buffered until Commit. Only Commit and
// Rollback are implemented; the embedded interface is nil and any other
// method panics.
type Tx struct {
	pgx.Tx

	store  *Store
	mu     sync.Mutex
	ops    []op
	closed bool

	// staged creates, visible to reads made through this Tx
	wallets  map[uuid.UUID]*domain.Wallet
	balances []domain.WalletBalance
}

func (tx *Tx) stage(o op) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.ops = append(tx.ops, o)
	return nil
}

// Commit applies every staged write atomically, or none of them. A cancelled
// ctx rolls the Tx back.
func (tx *Tx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	if err := ctx.Err(); err != nil {
		tx.ops = nil
		return err
	}

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range tx.ops {
		if o.check == nil {
			continue
		}
		if err := o.check(s); err != nil {
			return err
		}
	}
	for _, o := range tx.ops {
		o.apply(s)
	}
	return nil
}

// Rollback discards staged writes. Rolling back a finished Tx returns pgx.ErrTxClosed.
func (tx *Tx) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.ops = nil
	return nil
}

func asTx(tx pgx.Tx) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok {
		return nil, errForeignTx
	}
	return mtx, nil
}

func now() time.Time {
	return time.Now().UTC()
}

// walletLocked assembles the committed wallet aggregate. Callers hold s.mu.
func (s *Store) walletLocked(userID uuid.UUID) *domain.Wallet {
	w, ok := s.wallets[userID]
	if !ok {
		return nil
	}
	out := w
	for _, b := range s.balances[w.ID] {
		b := b
		out.Balances = append(out.Balances, &b)
	}
	sortBalances(out.Balances)
	return &out
}

func sortBalances(bs []*domain.WalletBalance) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].CurrencyCode < bs[j].CurrencyCode })
}
