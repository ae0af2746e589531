package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MethodStatus is the admin-controlled availability of a payment method
type MethodStatus string

const (
	MethodStatusActive      MethodStatus = "active"
	MethodStatusInactive    MethodStatus = "inactive"
	MethodStatusMaintenance MethodStatus = "maintenance"
)

const (
	CategoryMobileBanking = "Mobile Banking"
	CategoryCrypto        = "Crypto"
)

// Fee kinds stored in payment_methods.fee_kind
const (
	FeeKindPercentage = "percentage"
	FeeKindFixed      = "fixed"
)

// PaymentMethod is a withdrawal rail from the admin managed catalog.
// FeeKind/FeeValue hold the structured fee; Fee keeps the display string
// for rows written before the structured columns existed.
type PaymentMethod struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Image          string          `db:"image" json:"image"`
	Status         MethodStatus    `db:"status" json:"status"`
	Message        string          `db:"message" json:"message"`
	Fee            string          `db:"fee" json:"fee"`
	FeeKind        string          `db:"fee_kind" json:"feeKind,omitempty"`
	FeeValue       decimal.Decimal `db:"fee_value" json:"feeValue"`
	EstimatedTime  string          `db:"estimated_time" json:"estimatedTime"`
	Category       string          `db:"category" json:"category"`
	MinAmount      decimal.Decimal `db:"min_amount" json:"minAmount"`
	MaxAmount      decimal.Decimal `db:"max_amount" json:"maxAmount"`
	Currency       string          `db:"currency" json:"currency"`
	SupportedCoins []string        `db:"supported_coins" json:"supportedCoins"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

func (m *PaymentMethod) IsActive() bool {
	return m.Status == MethodStatusActive
}
