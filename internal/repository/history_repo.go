package repository

import (
	"context"
	"encoding/json"

	"earntube/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepository stores the append-only withdrawal trail. It has no update or delete.
type HistoryRepository struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = `id, telegram_id, user_id, withdrawal_id, activity_type, amount, method, recipient,
	status, description, metadata, created_at`

// CreateWithTx inserts a history entry within a transaction
func (r *HistoryRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, h *domain.HistoryEntry) error {
	metaJSON, err := json.Marshal(h.Metadata)
	if err != nil || h.Metadata == nil {
		metaJSON = []byte("{}")
	}

	return tx.QueryRow(ctx, `
		INSERT INTO withdrawal_history (telegram_id, user_id, withdrawal_id, activity_type, amount, method, recipient, status, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, h.TelegramID, h.UserID, h.WithdrawalID, h.ActivityType, h.Amount, h.Method, h.Recipient, h.Status, h.Description, metaJSON,
	).Scan(&h.ID, &h.CreatedAt)
}

// ByWithdrawal returns the transitions of one withdrawal, oldest first
func (r *HistoryRepository) ByWithdrawal(ctx context.Context, withdrawalID int64) ([]*domain.HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+historyColumns+`
		FROM withdrawal_history
		WHERE withdrawal_id = $1
		ORDER BY created_at ASC, id ASC
	`, withdrawalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

// Query returns one page of history entries, newest first, and the total number of matches
func (r *HistoryRepository) Query(ctx context.Context, q domain.HistoryQuery) ([]*domain.HistoryEntry, int64, error) {
	const where = `
		WHERE ($1::text = '' OR activity_type = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)`

	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM withdrawal_history`+where,
		string(q.ActivityType), q.Since,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+historyColumns+` FROM withdrawal_history`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		string(q.ActivityType), q.Since, q.Limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries, err := scanHistory(rows)
	return entries, total, err
}

func scanHistory(rows pgx.Rows) ([]*domain.HistoryEntry, error) {
	var entries []*domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		var metaJSON []byte
		if err := rows.Scan(&h.ID, &h.TelegramID, &h.UserID, &h.WithdrawalID, &h.ActivityType, &h.Amount,
			&h.Method, &h.Recipient, &h.Status, &h.Description, &metaJSON, &h.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &h.Metadata); err != nil {
			h.Metadata = make(map[string]interface{})
		}
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}
