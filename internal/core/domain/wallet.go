package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's authoritative balance in cents.
// Invariant: BalanceCents >= 0 at every observable instant; the database
// enforces it with a CHECK constraint and the ledger service never
// commits a decrement below zero.
type Wallet struct {
	UserID       uuid.UUID `json:"user_id"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
