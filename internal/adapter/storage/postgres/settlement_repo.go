package postgres

import (
	"context"
	"fmt"
	"time"

	"casino-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// SettlementRepo implements ports.SettlementRepository.
type SettlementRepo struct {
	pool Pool
}

// NewSettlementRepo creates a new SettlementRepo.
func NewSettlementRepo(pool Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

// Create records a settlement owed to a player. Inserting twice for the
// same settlement id is a no-op: the first record wins and keeps its
// retry state.
func (r *SettlementRepo) Create(ctx context.Context, s *domain.PendingSettlement) error {
	query := `INSERT INTO pending_settlements
		(settlement_id, user_id, amount_cents, kind, game_ref, status, attempts, next_retry_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (settlement_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		s.SettlementID, s.UserID, s.AmountCents, s.Kind, s.GameRef,
		s.Status, s.Attempts, s.NextRetryAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pending settlement: %w", err)
	}
	return nil
}

// ClaimDue locks and returns up to limit due pending settlements.
// SKIP LOCKED lets multiple reconciler instances run without contending
// on the same rows.
func (r *SettlementRepo) ClaimDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]domain.PendingSettlement, error) {
	query := `SELECT settlement_id, user_id, amount_cents, kind, game_ref, status, attempts, next_retry_at, created_at, updated_at
		FROM pending_settlements
		WHERE status = 'PENDING' AND next_retry_at <= $1
		ORDER BY next_retry_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due settlements: %w", err)
	}
	defer rows.Close()

	var due []domain.PendingSettlement
	for rows.Next() {
		var s domain.PendingSettlement
		if err := rows.Scan(
			&s.SettlementID, &s.UserID, &s.AmountCents, &s.Kind, &s.GameRef,
			&s.Status, &s.Attempts, &s.NextRetryAt, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pending settlement: %w", err)
		}
		due = append(due, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending settlements: %w", err)
	}
	return due, nil
}

// MarkApplied finalizes a settlement after its credit committed.
func (r *SettlementRepo) MarkApplied(ctx context.Context, settlementID string) error {
	query := `UPDATE pending_settlements SET status = 'APPLIED', updated_at = NOW() WHERE settlement_id = $1`

	if _, err := r.pool.Exec(ctx, query, settlementID); err != nil {
		return fmt.Errorf("mark settlement applied: %w", err)
	}
	return nil
}

// RecordAttempt bumps the attempt counter and schedules the next retry.
func (r *SettlementRepo) RecordAttempt(ctx context.Context, tx pgx.Tx, settlementID string, nextRetryAt time.Time) error {
	query := `UPDATE pending_settlements
		SET attempts = attempts + 1, next_retry_at = $1, updated_at = NOW()
		WHERE settlement_id = $2`

	if _, err := tx.Exec(ctx, query, nextRetryAt, settlementID); err != nil {
		return fmt.Errorf("record settlement attempt: %w", err)
	}
	return nil
}

// MarkAbandoned parks a settlement for manual resolution. The record
// stays durable; nothing is ever silently dropped.
func (r *SettlementRepo) MarkAbandoned(ctx context.Context, tx pgx.Tx, settlementID string) error {
	query := `UPDATE pending_settlements SET status = 'ABANDONED', updated_at = NOW() WHERE settlement_id = $1`

	if _, err := tx.Exec(ctx, query, settlementID); err != nil {
		return fmt.Errorf("mark settlement abandoned: %w", err)
	}
	return nil
}
