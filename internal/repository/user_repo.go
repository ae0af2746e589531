package repository

import (
	"context"
	"errors"

	"earntube/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, telegram_id, COALESCE(username, ''), COALESCE(full_name, ''), COALESCE(email, ''),
	role, balance, total_earnings, referred_by, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.Username,
		&u.FullName,
		&u.Email,
		&u.Role,
		&u.Balance,
		&u.TotalEarnings,
		&u.ReferredBy,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID,
	))
}

// Create inserts a user, or refreshes the profile fields of an existing telegram id.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO users (telegram_id, username, full_name, email, role, balance)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (telegram_id) DO UPDATE
		 SET username = EXCLUDED.username, full_name = EXCLUDED.full_name, email = EXCLUDED.email, role = EXCLUDED.role
		 RETURNING id, balance, created_at`,
		u.TelegramID,
		u.Username,
		u.FullName,
		u.Email,
		u.Role,
		u.Balance,
	).Scan(&u.ID, &u.Balance, &u.CreatedAt)
}

// GetBalance returns user's current balance
func (r *UserRepository) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	return balance, err
}

// TotalBalance sums every user's balance.
func (r *UserRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM users`).Scan(&total)
	return total, err
}

// ListAdmins returns users with the admin role
func (r *UserRepository) ListAdmins(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = 'admin' ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// DebitWithTx deducts amount within an existing transaction. The balance never goes negative.
func (r *UserRepository) DebitWithTx(ctx context.Context, tx pgx.Tx, userID int64, amount decimal.Decimal) (newBalance decimal.Decimal, err error) {
	err = tx.QueryRow(ctx,
		`UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1 RETURNING balance`,
		amount, userID,
	).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Could be not found or insufficient funds, check which
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
			if !exists {
				return decimal.Zero, ErrNotFound
			}
			return decimal.Zero, ErrInsufficientFunds
		}
		return decimal.Zero, err
	}

	return newBalance, nil
}

// CreditWithTx adds amount within an existing transaction
func (r *UserRepository) CreditWithTx(ctx context.Context, tx pgx.Tx, userID int64, amount decimal.Decimal) (newBalance decimal.Decimal, err error) {
	err = tx.QueryRow(ctx,
		`UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance`,
		amount, userID,
	).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}

	return newBalance, nil
}
