package ws

import (
	"time"

	"earntube/internal/domain"

	"github.com/shopspring/decimal"
)

// Message is the envelope of every frame the server writes
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WithdrawalPayload is one lifecycle event. Event is withdrawal.created, .approved, .rejected or .cancelled.
type WithdrawalPayload struct {
	Event        string                  `json:"event"`
	WithdrawalID int64                   `json:"withdrawalId"`
	UserID       int64                   `json:"userId"`
	Status       domain.WithdrawalStatus `json:"status"`
	Amount       decimal.Decimal         `json:"amount"`
	Fee          decimal.Decimal         `json:"fee"`
	Method       string                  `json:"method"`
	ActorID      int64                   `json:"actorId"`
	Reason       string                  `json:"reason,omitempty"`
	At           time.Time               `json:"at"`
}

func payloadOf(ev domain.WithdrawalEvent) WithdrawalPayload {
	p := WithdrawalPayload{
		Event:   ev.Type,
		ActorID: ev.ActorID,
		Reason:  ev.Reason,
		At:      ev.At,
	}
	if w := ev.Withdrawal; w != nil {
		p.WithdrawalID = w.ID
		p.UserID = w.UserID
		p.Status = w.Status
		p.Amount = w.Amount
		p.Fee = w.Fee
		p.Method = w.Method
	}
	return p
}
