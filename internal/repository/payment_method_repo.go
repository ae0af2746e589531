package repository

import (
	"context"
	"errors"

	"earntube/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentMethodRepository reads the admin managed withdrawal catalog
type PaymentMethodRepository struct {
	db *pgxpool.Pool
}

func NewPaymentMethodRepository(db *pgxpool.Pool) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

const paymentMethodColumns = `id, name, image, status, message, fee, COALESCE(fee_kind, ''), fee_value,
	estimated_time, category, min_amount, max_amount, currency, supported_coins, created_at, updated_at`

func scanPaymentMethod(row pgx.Row) (*domain.PaymentMethod, error) {
	var (
		m        domain.PaymentMethod
		feeValue decimal.NullDecimal
	)
	if err := row.Scan(
		&m.ID, &m.Name, &m.Image, &m.Status, &m.Message, &m.Fee, &m.FeeKind, &feeValue,
		&m.EstimatedTime, &m.Category, &m.MinAmount, &m.MaxAmount, &m.Currency, &m.SupportedCoins,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if feeValue.Valid {
		m.FeeValue = feeValue.Decimal
	}
	if m.SupportedCoins == nil {
		m.SupportedCoins = []string{}
	}
	return &m, nil
}

// List returns every method, newest first
func (r *PaymentMethodRepository) List(ctx context.Context) ([]*domain.PaymentMethod, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentMethodColumns+`
		FROM payment_methods
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []*domain.PaymentMethod
	for rows.Next() {
		m, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	m, err := scanPaymentMethod(r.db.QueryRow(ctx,
		`SELECT `+paymentMethodColumns+` FROM payment_methods WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}
