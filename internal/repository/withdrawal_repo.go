package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"earntube/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotPending       = errors.New("withdrawal is not pending")
	ErrDuplicateRequest = errors.New("duplicate withdrawal request")
)

// WithdrawalRepository owns the withdrawal lifecycle writes. Every mutation runs in one
// transaction together with the balance change, the history entry and the ledger entry.
type WithdrawalRepository struct {
	db      *pgxpool.Pool
	users   *UserRepository
	history *HistoryRepository
	ledger  *LedgerRepository
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{
		db:      db,
		users:   NewUserRepository(db),
		history: NewHistoryRepository(db),
		ledger:  NewLedgerRepository(db),
	}
}

const withdrawalColumns = `w.id, w.telegram_id, w.user_id, w.activity_type, w.amount, w.fee, w.method, w.recipient,
	w.status, w.description, w.metadata, COALESCE(w.request_id, ''), w.created_at, w.updated_at`

// CreatePending reserves the idempotency key, debits amount+fee and stores the pending
// withdrawal with its request history entry. w and h are filled with generated ids.
func (r *WithdrawalRepository) CreatePending(ctx context.Context, w *domain.Withdrawal, h *domain.HistoryEntry) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if w.RequestID != "" {
		tag, err := tx.Exec(ctx, `
			INSERT INTO idempotency_keys (user_id, key) VALUES ($1, $2)
			ON CONFLICT (user_id, key) DO NOTHING
		`, w.UserID, w.RequestID)
		if err != nil {
			return fmt.Errorf("reserve idempotency key: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrDuplicateRequest
		}
	}

	if _, err := r.users.DebitWithTx(ctx, tx, w.UserID, w.Debit()); err != nil {
		return err
	}

	metaJSON, err := json.Marshal(w.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	var requestID *string
	if w.RequestID != "" {
		requestID = &w.RequestID
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO withdrawals (telegram_id, user_id, activity_type, amount, fee, method, recipient, status, description, metadata, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, w.TelegramID, w.UserID, w.ActivityType, w.Amount, w.Fee, w.Method, w.Recipient, w.Status, w.Description, metaJSON, requestID,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}

	if w.RequestID != "" {
		if _, err := tx.Exec(ctx,
			`UPDATE idempotency_keys SET withdrawal_id = $3 WHERE user_id = $1 AND key = $2`,
			w.UserID, w.RequestID, w.ID,
		); err != nil {
			return fmt.Errorf("bind idempotency key: %w", err)
		}
	}

	h.WithdrawalID = w.ID
	if err := r.history.CreateWithTx(ctx, tx, h); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if err := r.ledger.CreateWithTx(ctx, tx, &domain.LedgerEntry{
		UserID: w.UserID,
		Type:   domain.LedgerWithdrawalDebit,
		Amount: w.Debit().Neg(),
		Meta:   map[string]interface{}{"withdrawal_id": w.ID},
	}); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	return tx.Commit(ctx)
}

// Decide moves a pending withdrawal to status and credits refund back to the owner.
// Returns ErrNotPending if another decision or a cancellation got there first.
func (r *WithdrawalRepository) Decide(ctx context.Context, id int64, status domain.WithdrawalStatus, refund decimal.Decimal, h *domain.HistoryEntry) (*domain.Withdrawal, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	w, err := scanWithdrawal(tx.QueryRow(ctx, `
		UPDATE withdrawals AS w SET status = $2, updated_at = now()
		WHERE w.id = $1 AND w.status = 'pending'
		RETURNING `+withdrawalColumns,
		id, status,
	))
	if err != nil {
		return nil, r.notPendingOr(ctx, tx, id, err)
	}

	if err := r.settle(ctx, tx, w, refund, h); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// CancelPending deletes a pending withdrawal and credits refund back to the owner.
// The history trail is kept.
func (r *WithdrawalRepository) CancelPending(ctx context.Context, id int64, refund decimal.Decimal, h *domain.HistoryEntry) (*domain.Withdrawal, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	w, err := scanWithdrawal(tx.QueryRow(ctx, `
		DELETE FROM withdrawals AS w
		WHERE w.id = $1 AND w.status = 'pending'
		RETURNING `+withdrawalColumns,
		id,
	))
	if err != nil {
		return nil, r.notPendingOr(ctx, tx, id, err)
	}

	if err := r.settle(ctx, tx, w, refund, h); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// settle writes the history entry and the optional refund of a finished withdrawal.
func (r *WithdrawalRepository) settle(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal, refund decimal.Decimal, h *domain.HistoryEntry) error {
	h.WithdrawalID = w.ID
	if err := r.history.CreateWithTx(ctx, tx, h); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if !refund.IsPositive() {
		return nil
	}
	if _, err := r.users.CreditWithTx(ctx, tx, w.UserID, refund); err != nil {
		return fmt.Errorf("refund: %w", err)
	}
	if err := r.ledger.CreateWithTx(ctx, tx, &domain.LedgerEntry{
		UserID: w.UserID,
		Type:   domain.LedgerWithdrawalRefund,
		Amount: refund,
		Meta:   map[string]interface{}{"withdrawal_id": w.ID, "status": string(h.Status)},
	}); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// notPendingOr tells a lost compare-and-swap apart from a missing row.
func (r *WithdrawalRepository) notPendingOr(ctx context.Context, tx pgx.Tx, id int64, err error) error {
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	var exists bool
	if qerr := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM withdrawals WHERE id = $1)`, id).Scan(&exists); qerr != nil {
		return qerr
	}
	if exists {
		return ErrNotPending
	}
	return ErrNotFound
}

// GetByID retrieves withdrawal by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return scanWithdrawal(r.db.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals w WHERE w.id = $1`, id,
	))
}

// GetByRequestID finds the withdrawal created under a client idempotency key.
// ErrDuplicateRequest means the key was used but its withdrawal no longer exists.
func (r *WithdrawalRepository) GetByRequestID(ctx context.Context, userID int64, key string) (*domain.Withdrawal, error) {
	w, err := scanWithdrawal(r.db.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals w WHERE w.user_id = $1 AND w.request_id = $2`, userID, key,
	))
	if !errors.Is(err, ErrNotFound) {
		return w, err
	}

	var used bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM idempotency_keys WHERE user_id = $1 AND key = $2)`, userID, key,
	).Scan(&used); err != nil {
		return nil, err
	}
	if used {
		return nil, ErrDuplicateRequest
	}
	return nil, ErrNotFound
}

// List returns withdrawals newest first, joined with their owner when f.WithOwner is set
func (r *WithdrawalRepository) List(ctx context.Context, f domain.WithdrawalFilter) ([]domain.WithdrawalView, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`,
		       COALESCE(u.username, ''), COALESCE(u.full_name, ''), COALESCE(u.email, '')
		FROM withdrawals w
		LEFT JOIN users u ON u.id = w.user_id
		WHERE ($1::bigint = 0 OR w.user_id = $1)
		  AND ($2::text = '' OR w.status = $2)
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $3
	`, f.UserID, string(f.Status), f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.WithdrawalView
	for rows.Next() {
		var (
			v     domain.WithdrawalView
			owner domain.WithdrawalOwner
			raw   []byte
		)
		dest := append(withdrawalDest(&v.Withdrawal, &raw), &owner.Username, &owner.FullName, &owner.Email)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := decodeMetadata(&v.Withdrawal, raw); err != nil {
			return nil, err
		}
		if f.WithOwner {
			if owner.Username != "" {
				owner.Username = "@" + owner.Username
			}
			v.Owner = &owner
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// PendingSummary returns the number and total principal of pending withdrawals
func (r *WithdrawalRepository) PendingSummary(ctx context.Context) (count int64, amount decimal.Decimal, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM withdrawals WHERE status = 'pending'`,
	).Scan(&count, &amount)
	return count, amount, err
}

// TotalByStatus sums the principal of withdrawals in status
func (r *WithdrawalRepository) TotalByStatus(ctx context.Context, status domain.WithdrawalStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM withdrawals WHERE status = $1`, status,
	).Scan(&total)
	return total, err
}

// withdrawalDest returns scan targets for withdrawalColumns. The metadata column lands in raw.
func withdrawalDest(w *domain.Withdrawal, raw *[]byte) []any {
	return []any{
		&w.ID, &w.TelegramID, &w.UserID, &w.ActivityType, &w.Amount, &w.Fee, &w.Method, &w.Recipient,
		&w.Status, &w.Description, raw, &w.RequestID, &w.CreatedAt, &w.UpdatedAt,
	}
}

func decodeMetadata(w *domain.Withdrawal, raw []byte) error {
	w.Metadata = map[string]interface{}{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &w.Metadata)
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var (
		w   domain.Withdrawal
		raw []byte
	)
	if err := row.Scan(withdrawalDest(&w, &raw)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := decodeMetadata(&w, raw); err != nil {
		return nil, err
	}
	return &w, nil
}
