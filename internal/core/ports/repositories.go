package ports

import (
	"context"
	"time"

	"casino-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// IncrementXP adds delta to the user's loyalty counter inside the
	// caller's transaction, all-or-nothing with the balance change.
	IncrementXP(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int64) error
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside transaction blocks for pessimistic
// locking; no balance is ever written outside one.
type WalletRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	// EnsureForUpdate creates the wallet row if absent (balance 0) and
	// returns it locked with SELECT ... FOR UPDATE.
	EnsureForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balanceCents int64) error
}

// TransactionRepository defines persistence for the append-only ledger log.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	// SumByUser returns the signed sum of a user's transaction amounts
	// (the reconciliation counterpart of the wallet balance).
	SumByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// LatestWins returns the newest WIN entries with display names,
	// newest first, at most limit rows.
	LatestWins(ctx context.Context, limit int) ([]domain.LatestWin, error)
}

// IdempotencyRepository defines durable idempotency logs for ledger calls.
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// SettlementRepository defines persistence for pending settlements.
type SettlementRepository interface {
	Create(ctx context.Context, s *domain.PendingSettlement) error
	// ClaimDue locks and returns up to limit pending settlements whose
	// retry time has passed (FOR UPDATE SKIP LOCKED), inside tx.
	ClaimDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]domain.PendingSettlement, error)
	MarkApplied(ctx context.Context, settlementID string) error
	// RecordAttempt bumps the attempt counter and schedules the next retry.
	RecordAttempt(ctx context.Context, tx pgx.Tx, settlementID string, nextRetryAt time.Time) error
	MarkAbandoned(ctx context.Context, tx pgx.Tx, settlementID string) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
