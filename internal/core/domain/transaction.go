package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind classifies a balance movement.
type TransactionKind string

const (
	TransactionKindBet          TransactionKind = "BET"
	TransactionKindWin          TransactionKind = "WIN"
	TransactionKindPush         TransactionKind = "PUSH"
	TransactionKindAdminDeposit TransactionKind = "ADMIN_DEPOSIT"
)

// CreditKinds lists the kinds a Credit call may carry. BET is reserved
// for the debit path.
var CreditKinds = map[TransactionKind]bool{
	TransactionKindWin:          true,
	TransactionKindPush:         true,
	TransactionKindAdminDeposit: true,
}

// Transaction is an immutable ledger entry. AmountCents is signed:
// negative for BET, positive for everything else. For any user the sum
// of AmountCents over all rows equals the wallet balance; rows are
// never updated or deleted after creation.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Kind         TransactionKind `json:"kind"`
	AmountCents  int64           `json:"amount_cents"`
	GameRef      *string         `json:"game_ref,omitempty"`
	SettlementID *string         `json:"settlement_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LatestWin is the read-model row for the public latest-wins feed.
type LatestWin struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	AmountCents int64     `json:"amountCents"`
	Game        string    `json:"game"`
	CreatedAt   time.Time `json:"createdAt"`
}
