package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryEntry is an immutable record of one withdrawal transition.
type HistoryEntry struct {
	ID           int64                  `db:"id" json:"id"`
	TelegramID   int64                  `db:"telegram_id" json:"telegramId"`
	UserID       int64                  `db:"user_id" json:"userId"`
	WithdrawalID int64                  `db:"withdrawal_id" json:"withdrawalId"`
	ActivityType ActivityType           `db:"activity_type" json:"activityType"`
	Amount       decimal.Decimal        `db:"amount" json:"amount"`
	Method       string                 `db:"method" json:"method"`
	Recipient    string                 `db:"recipient" json:"recipient"`
	Status       WithdrawalStatus       `db:"status" json:"status"`
	Description  string                 `db:"description" json:"description"`
	Metadata     map[string]interface{} `db:"metadata" json:"metadata"`
	CreatedAt    time.Time              `db:"created_at" json:"createdAt"`
}

// HistoryQuery drives the admin activity listing
type HistoryQuery struct {
	ActivityType ActivityType
	Since        *time.Time
	Page         int
	Limit        int
}

// Request metadata keys shared by history entries and withdrawals
const (
	MetaIPAddress  = "ipAddress"
	MetaDeviceInfo = "deviceInfo"
	MetaAdminID    = "adminId"
	MetaReason     = "reason"
)

// CancelReason is recorded when the owner withdraws their own request
const CancelReason = "User cancelled withdrawal"
