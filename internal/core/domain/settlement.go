package domain

import (
	"time"

	"github.com/google/uuid"
)

// SettlementStatus is the lifecycle state of a pending settlement.
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusApplied   SettlementStatus = "APPLIED"
	SettlementStatusAbandoned SettlementStatus = "ABANDONED"
)

// PendingSettlement is the durable record of a credit owed to a player
// for a finished round. It is written before the credit is attempted so
// that a failed credit can be retried (with the same settlement id)
// instead of being silently lost.
type PendingSettlement struct {
	SettlementID string           `json:"settlement_id"`
	UserID       uuid.UUID        `json:"user_id"`
	AmountCents  int64            `json:"amount_cents"`
	Kind         TransactionKind  `json:"kind"`
	GameRef      string           `json:"game_ref"`
	Status       SettlementStatus `json:"status"`
	Attempts     int              `json:"attempts"`
	NextRetryAt  time.Time        `json:"next_retry_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// BuildBetSettlementID derives the idempotency key for a round's debit.
func BuildBetSettlementID(roundID uuid.UUID) string {
	return "bet:" + roundID.String()
}

// BuildCreditSettlementID derives the idempotency key for a round's credit.
func BuildCreditSettlementID(roundID uuid.UUID) string {
	return "settle:" + roundID.String()
}
