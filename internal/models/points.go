package models

import (
	"time"

	"github.com/google/uuid"
)

// PointBalance is a user's current point balance. Never negative.
type PointBalance struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int       `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PointTransaction is one journal entry in the points ledger.
// Amount is positive for credits, negative for debits.
type PointTransaction struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Amount       int       `json:"amount"`
	Reason       string    `json:"reason"`
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
