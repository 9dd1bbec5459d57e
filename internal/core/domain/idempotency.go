package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog caches the result of a ledger operation keyed by its
// settlement id, so a replayed debit or credit returns the original
// outcome instead of moving money twice. The owner and requested
// payload are recorded alongside the result: a reused id carrying a
// different user, amount, or kind is a conflict, not a replay. Written
// in the same atomic unit as the movement it records.
type IdempotencyLog struct {
	Key           string          `json:"key"`
	UserID        uuid.UUID       `json:"user_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Kind          TransactionKind `json:"kind"`
	AmountCents   int64           `json:"amount_cents"`
	ResponseJSON  []byte          `json:"response_json"`
	CreatedAt     time.Time       `json:"created_at"`
}
