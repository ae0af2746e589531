package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LedgerWithdrawalDebit  = "withdrawal_debit"
	LedgerWithdrawalRefund = "withdrawal_refund"
	LedgerAdminCredit      = "admin_credit"
)

// LedgerEntry records a single balance mutation. Amount is signed.
type LedgerEntry struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"userId"`
	Type      string                 `db:"type" json:"type"`
	Amount    decimal.Decimal        `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"createdAt"`
}
