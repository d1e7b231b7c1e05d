package service

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// QueryServiceImpl implements ports.TransactionQueryService.
type QueryServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	log        zerolog.Logger
}

// NewQueryService creates a new QueryServiceImpl.
func NewQueryService(walletRepo ports.WalletRepository, txRepo ports.TransactionRepository, log zerolog.Logger) *QueryServiceImpl {
	return &QueryServiceImpl{walletRepo: walletRepo, txRepo: txRepo, log: log}
}

// ListTransactions returns one page of the user's log, newest first.
// Filters combine with AND. Limit defaults to 10 and is clamped to 100.
func (s *QueryServiceImpl) ListTransactions(ctx context.Context, userID uuid.UUID, f ports.TransactionFilter) (*ports.TransactionPage, error) {
	params, err := buildListParams(f)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	params.WalletID = wallet.ID

	items, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	if items == nil {
		items = []domain.Transaction{}
	}

	return &ports.TransactionPage{Items: items, Limit: params.Limit, Offset: params.Offset}, nil
}

func buildListParams(f ports.TransactionFilter) (ports.TransactionListParams, error) {
	var p ports.TransactionListParams

	if f.Limit < 0 || f.Offset < 0 {
		return p, apperror.Validation("limit and offset must not be negative")
	}
	p.Limit = f.Limit
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	p.Offset = f.Offset

	if f.Type != "" {
		t := domain.TransactionType(f.Type)
		if !t.Valid() {
			return p, apperror.Validation(fmt.Sprintf("unknown transaction type %q", f.Type))
		}
		p.Type = &t
	}

	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return p, apperror.Validation("start_date must not be after end_date")
	}
	p.From = f.StartDate
	p.To = f.EndDate

	return p, nil
}
