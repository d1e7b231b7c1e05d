package memory

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	store *Store
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(s *Store) *UserRepo {
	return &UserRepo{store: s}
}

// Create stages the user. The email must be unique both now and at commit.
func (r *UserRepo) Create(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	checkEmail := func(s *Store) error {
		if _, taken := s.emails[u.Email]; taken {
			return fmt.Errorf("insert user: %w", ports.ErrDuplicateEmail)
		}
		return nil
	}

	r.store.mu.RLock()
	err = checkEmail(r.store)
	r.store.mu.RUnlock()
	if err != nil {
		return err
	}

	row := *u
	return mtx.stage(op{
		check: checkEmail,
		apply: func(s *Store) {
			s.users[row.ID] = row
			s.emails[row.Email] = row.ID
		},
	})
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	id, ok := r.store.emails[email]
	if !ok {
		return nil, nil
	}
	u := r.store.users[id]
	return &u, nil
}
