package domain

import "time"

// Withdrawal event types pushed to live subscribers
const (
	EventWithdrawalCreated   = "withdrawal.created"
	EventWithdrawalApproved  = "withdrawal.approved"
	EventWithdrawalRejected  = "withdrawal.rejected"
	EventWithdrawalCancelled = "withdrawal.cancelled"
)

// WithdrawalEvent is published after a lifecycle transition has been committed.
type WithdrawalEvent struct {
	Type       string      `json:"type"`
	Withdrawal *Withdrawal `json:"withdrawal"`
	ActorID    int64       `json:"actorId,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	At         time.Time   `json:"at"`
}
