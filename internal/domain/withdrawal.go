package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents withdrawal processing status
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) IsDecision() bool {
	return s == WithdrawalStatusApproved || s == WithdrawalStatusRejected
}

// ActivityType tags history entries; each transition gets a new entry.
type ActivityType string

const (
	ActivityWithdrawalRequest  ActivityType = "withdrawal_request"
	ActivityWithdrawalApproved ActivityType = "withdrawal_approved"
	ActivityWithdrawalRejected ActivityType = "withdrawal_rejected"
)

const (
	PaymentTypeMobileBanking = "mobile_banking"
	PaymentTypeCrypto        = "crypto"
)

// Withdrawal is the live record of a withdrawal. Only Status changes after creation.
type Withdrawal struct {
	ID           int64                  `db:"id" json:"id"`
	TelegramID   int64                  `db:"telegram_id" json:"telegramId"`
	UserID       int64                  `db:"user_id" json:"userId"`
	ActivityType ActivityType           `db:"activity_type" json:"activityType"`
	Amount       decimal.Decimal        `db:"amount" json:"amount"` // reserved USDT principal
	Fee          decimal.Decimal        `db:"fee" json:"fee"`       // USDT fee debited with the principal
	Method       string                 `db:"method" json:"method"`
	Recipient    string                 `db:"recipient" json:"recipient"`
	Status       WithdrawalStatus       `db:"status" json:"status"`
	Description  string                 `db:"description" json:"description"`
	Metadata     map[string]interface{} `db:"metadata" json:"metadata"`
	RequestID    string                 `db:"request_id" json:"requestId,omitempty"`
	CreatedAt    time.Time              `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time              `db:"updated_at" json:"updatedAt"`
}

// Debit is what the user's balance lost when the withdrawal was requested.
func (w *Withdrawal) Debit() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}

// WithdrawalOwner is the user projection attached to admin listings
type WithdrawalOwner struct {
	Username string `json:"username"`
	FullName string `json:"user"`
	Email    string `json:"email"`
}

// WithdrawalView is a withdrawal enriched for listing
type WithdrawalView struct {
	Withdrawal
	BDTAmount decimal.Decimal  `json:"bdtAmount"`
	Owner     *WithdrawalOwner `json:"user,omitempty"`
}

// WithdrawalFilter narrows listings. Zero values mean "any".
type WithdrawalFilter struct {
	UserID    int64
	Status    WithdrawalStatus
	Limit     int
	WithOwner bool
}
