package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the subset of the user record the withdrawal core reads and writes.
type User struct {
	ID            int64           `db:"id" json:"id"`
	TelegramID    int64           `db:"telegram_id" json:"telegramId"`
	Username      string          `db:"username" json:"username"`
	FullName      string          `db:"full_name" json:"fullName"`
	Email         string          `db:"email" json:"email,omitempty"`
	Role          Role            `db:"role" json:"role"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	TotalEarnings decimal.Decimal `db:"total_earnings" json:"totalEarnings"`
	ReferredBy    *int64          `db:"referred_by" json:"referredBy,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
