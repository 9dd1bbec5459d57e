package service

import (
	"context"
	"fmt"
	"time"

	"casino-ledger/internal/core/domain"
	"casino-ledger/internal/core/ports"
	"casino-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	retryBatchSize   = 50
	retryBackoffBase = 30 * time.Second
	retryBackoffMax  = 1 * time.Hour
	maxRetryAttempts = 10
)

// SettlementServiceImpl implements ports.SettlementRetrier: it drains
// pending settlements whose credit never landed. Credits replay with
// the original settlement id, so a retry can never pay twice.
type SettlementServiceImpl struct {
	ledger         ports.LedgerService
	settlementRepo ports.SettlementRepository
	transactor     ports.DBTransactor
	log            zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	ledger ports.LedgerService,
	settlementRepo ports.SettlementRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		ledger:         ledger,
		settlementRepo: settlementRepo,
		transactor:     transactor,
		log:            log,
	}
}

// RetryDue claims a batch of due settlements, leases them forward so
// concurrent workers skip them, then replays each credit. Returns how
// many were applied.
func (s *SettlementServiceImpl) RetryDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.claimBatch(ctx, now)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, pending := range due {
		if s.apply(ctx, pending) {
			applied++
		}
	}
	return applied, nil
}

// claimBatch locks due rows, pushes their retry clock forward (or
// abandons ones out of attempts) and commits, releasing the locks
// before any credit is attempted.
func (s *SettlementServiceImpl) claimBatch(ctx context.Context, now time.Time) ([]domain.PendingSettlement, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	rows, err := s.settlementRepo.ClaimDue(ctx, dbTx, now, retryBatchSize)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("claim due settlements: %w", err))
	}

	var claimed []domain.PendingSettlement
	for _, row := range rows {
		if row.Attempts >= maxRetryAttempts {
			if err := s.settlementRepo.MarkAbandoned(ctx, dbTx, row.SettlementID); err != nil {
				return nil, apperror.StorageFailure(fmt.Errorf("abandon settlement: %w", err))
			}
			s.log.Error().
				Str("settlement_id", row.SettlementID).
				Str("user_id", row.UserID.String()).
				Int64("amount_cents", row.AmountCents).
				Int("attempts", row.Attempts).
				Msg("settlement abandoned after max attempts, needs manual resolution")
			continue
		}

		next := now.Add(backoff(row.Attempts))
		if err := s.settlementRepo.RecordAttempt(ctx, dbTx, row.SettlementID, next); err != nil {
			return nil, apperror.StorageFailure(fmt.Errorf("record settlement attempt: %w", err))
		}
		claimed = append(claimed, row)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("commit claim: %w", err))
	}
	return claimed, nil
}

// apply replays one credit. Reports whether the settlement is now applied.
func (s *SettlementServiceImpl) apply(ctx context.Context, pending domain.PendingSettlement) bool {
	_, err := s.ledger.Credit(ctx, ports.CreditParams{
		UserID:       pending.UserID,
		AmountCents:  pending.AmountCents,
		Kind:         pending.Kind,
		GameRef:      pending.GameRef,
		SettlementID: pending.SettlementID,
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("settlement_id", pending.SettlementID).
			Int("attempts", pending.Attempts+1).
			Msg("settlement retry failed")
		return false
	}

	if err := s.settlementRepo.MarkApplied(ctx, pending.SettlementID); err != nil {
		s.log.Warn().Err(err).
			Str("settlement_id", pending.SettlementID).
			Msg("credit applied but settlement not marked, next pass will replay idempotently")
		return false
	}

	s.log.Info().
		Str("settlement_id", pending.SettlementID).
		Str("user_id", pending.UserID.String()).
		Int64("amount_cents", pending.AmountCents).
		Msg("pending settlement applied")
	return true
}

// backoff doubles per attempt from the base, capped.
func backoff(attempts int) time.Duration {
	d := retryBackoffBase << attempts
	if d > retryBackoffMax || d <= 0 {
		return retryBackoffMax
	}
	return d
}
