package service

import (
	"context"
	"errors"

	"earntube/internal/currency"
	"earntube/internal/domain"
	"earntube/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidAmount = errors.New("invalid amount")
)

// BalanceService handles balance reads and manual credits outside the withdrawal lifecycle
type BalanceService struct {
	db     *pgxpool.Pool
	users  *repository.UserRepository
	ledger *repository.LedgerRepository
}

// NewBalanceService creates a new balance service
func NewBalanceService(db *pgxpool.Pool) *BalanceService {
	return &BalanceService{
		db:     db,
		users:  repository.NewUserRepository(db),
		ledger: repository.NewLedgerRepository(db),
	}
}

// Balance is a user's ledger balance shown in both currencies
type Balance struct {
	USDT decimal.Decimal `json:"balance"`
	BDT  decimal.Decimal `json:"balanceBDT"`
}

// GetBalance returns user's current balance
func (s *BalanceService) GetBalance(ctx context.Context, userID int64, conv currency.Converter) (*Balance, error) {
	b, err := s.users.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &Balance{USDT: b, BDT: conv.ToDisplay(b)}, nil
}

// Credit adds amount to user's balance and records a ledger entry
func (s *BalanceService) Credit(ctx context.Context, userID int64, amount decimal.Decimal, entryType string, meta map[string]interface{}) (newBalance decimal.Decimal, err error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	newBalance, err = s.users.CreditWithTx(ctx, tx, userID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, err
	}

	if err = s.ledger.CreateWithTx(ctx, tx, &domain.LedgerEntry{
		UserID: userID,
		Type:   entryType,
		Amount: amount,
		Meta:   meta,
	}); err != nil {
		return decimal.Zero, err
	}

	if err = tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}

// GetLedger returns user's ledger entries, newest first
func (s *BalanceService) GetLedger(ctx context.Context, userID int64, limit int) ([]*domain.LedgerEntry, error) {
	return s.ledger.GetByUserID(ctx, userID, limit)
}
