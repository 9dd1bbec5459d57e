package postgres

import (
	"context"
	"errors"
	"fmt"

	"casino-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// GetByUserID fetches a wallet without locking. Returns nil, nil when
// the user has no wallet yet.
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT user_id, balance_cents, created_at, updated_at
		FROM wallets WHERE user_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&w.UserID, &w.BalanceCents, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}
	return w, nil
}

// EnsureForUpdate lazily creates the wallet row (balance 0) and returns
// it locked. MUST be called within a transaction: the lock serializes
// concurrent debits and credits for the same user.
func (r *WalletRepo) EnsureForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	insert := `INSERT INTO wallets (user_id, balance_cents) VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.Exec(ctx, insert, userID); err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}

	query := `SELECT user_id, balance_cents, created_at, updated_at
		FROM wallets WHERE user_id = $1 FOR UPDATE`

	w := &domain.Wallet{}
	err := tx.QueryRow(ctx, query, userID).Scan(
		&w.UserID, &w.BalanceCents, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return w, nil
}

// UpdateBalance writes the wallet balance within a transaction. The
// caller computed balanceCents under the row lock taken by
// EnsureForUpdate, so no movement is lost between reads.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balanceCents int64) error {
	query := `UPDATE wallets SET balance_cents = $1, updated_at = NOW() WHERE user_id = $2`

	tag, err := tx.Exec(ctx, query, balanceCents, userID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", userID)
	}
	return nil
}
