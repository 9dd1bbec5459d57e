package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casino-ledger/internal/core/domain"
	"casino-ledger/internal/core/ports"
	"casino-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	idempotencyTTL = 24 * time.Hour

	// Upper bound on a single balance mutation, lock wait included.
	ledgerCallTimeout = 5 * time.Second
)

// LedgerServiceImpl implements ports.LedgerService. It is the single
// writer of wallets and transactions; everything else goes through it.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	userRepo   ports.UserRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	userRepo ports.UserRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		userRepo:   userRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		transactor: transactor,
		log:        log,
	}
}

// Debit removes funds for a bet with pessimistic locking. Idempotent on
// the settlement id: a replay returns the original result without a
// second movement.
func (s *LedgerServiceImpl) Debit(ctx context.Context, p ports.DebitParams) (*ports.LedgerResult, error) {
	if p.AmountCents <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if p.SettlementID == "" {
		return nil, apperror.Validation("settlement id is required")
	}

	if cached, err := s.checkIdempotency(ctx, p.SettlementID, p.UserID, p.AmountCents, domain.TransactionKindBet); err != nil || cached != nil {
		return cached, err
	}

	ctx, cancel := context.WithTimeout(ctx, ledgerCallTimeout)
	defer cancel()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock & get wallet (created at balance 0 on first touch)
	wallet, err := s.walletRepo.EnsureForUpdate(ctx, dbTx, p.UserID)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("lock wallet: %w", err))
	}

	// Re-check under the lock: a concurrent call with the same
	// settlement id may have committed while we waited for it.
	if replay, err := s.replayUnderLock(ctx, p.SettlementID, p.UserID, p.AmountCents, domain.TransactionKindBet); err != nil || replay != nil {
		return replay, err
	}

	// Business rule: balance never goes negative
	if wallet.BalanceCents < p.AmountCents {
		return nil, apperror.ErrInsufficientFunds()
	}
	newBalance := wallet.BalanceCents - p.AmountCents

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:           uuid.New(),
		UserID:       p.UserID,
		Kind:         domain.TransactionKindBet,
		AmountCents:  -p.AmountCents,
		GameRef:      optional(p.GameRef),
		SettlementID: &p.SettlementID,
		CreatedAt:    now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, p.UserID, newBalance); err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("update balance: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("create transaction: %w", err))
	}

	// Wagered amount doubles as loyalty xp, same atomic unit
	if err := s.userRepo.IncrementXP(ctx, dbTx, p.UserID, p.AmountCents); err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("increment xp: %w", err))
	}

	result := &ports.LedgerResult{BalanceCents: newBalance, TransactionID: txn.ID}
	entryJSON, err := s.saveIdempotency(ctx, dbTx, &domain.IdempotencyLog{
		Key:           p.SettlementID,
		UserID:        p.UserID,
		TransactionID: txn.ID,
		Kind:          domain.TransactionKindBet,
		AmountCents:   p.AmountCents,
		CreatedAt:     now,
	}, result)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("commit tx: %w", err))
	}
	s.cacheIdempotency(ctx, p.SettlementID, entryJSON)

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("user_id", p.UserID.String()).
		Str("settlement_id", p.SettlementID).
		Int64("amount_cents", p.AmountCents).
		Int64("balance_cents", newBalance).
		Msg("debit applied")

	return result, nil
}

// Credit adds funds for a win, push, or admin deposit. Idempotent on
// the settlement id.
func (s *LedgerServiceImpl) Credit(ctx context.Context, p ports.CreditParams) (*ports.LedgerResult, error) {
	if p.AmountCents <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if p.SettlementID == "" {
		return nil, apperror.Validation("settlement id is required")
	}
	if !domain.CreditKinds[p.Kind] {
		return nil, apperror.ErrInvalidKind()
	}
	if p.Kind == domain.TransactionKindAdminDeposit && p.ActorRole != domain.RoleAdmin {
		return nil, apperror.ErrForbidden()
	}

	if cached, err := s.checkIdempotency(ctx, p.SettlementID, p.UserID, p.AmountCents, p.Kind); err != nil || cached != nil {
		return cached, err
	}

	ctx, cancel := context.WithTimeout(ctx, ledgerCallTimeout)
	defer cancel()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.EnsureForUpdate(ctx, dbTx, p.UserID)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("lock wallet: %w", err))
	}

	if replay, err := s.replayUnderLock(ctx, p.SettlementID, p.UserID, p.AmountCents, p.Kind); err != nil || replay != nil {
		return replay, err
	}

	newBalance := wallet.BalanceCents + p.AmountCents

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:           uuid.New(),
		UserID:       p.UserID,
		Kind:         p.Kind,
		AmountCents:  p.AmountCents,
		GameRef:      optional(p.GameRef),
		SettlementID: &p.SettlementID,
		CreatedAt:    now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, p.UserID, newBalance); err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("update balance: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("create transaction: %w", err))
	}

	result := &ports.LedgerResult{BalanceCents: newBalance, TransactionID: txn.ID}
	entryJSON, err := s.saveIdempotency(ctx, dbTx, &domain.IdempotencyLog{
		Key:           p.SettlementID,
		UserID:        p.UserID,
		TransactionID: txn.ID,
		Kind:          p.Kind,
		AmountCents:   p.AmountCents,
		CreatedAt:     now,
	}, result)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("commit tx: %w", err))
	}
	s.cacheIdempotency(ctx, p.SettlementID, entryJSON)

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("user_id", p.UserID.String()).
		Str("settlement_id", p.SettlementID).
		Str("kind", string(p.Kind)).
		Int64("amount_cents", p.AmountCents).
		Int64("balance_cents", newBalance).
		Msg("credit applied")

	return result, nil
}

// Balance returns the user's balance, 0 when no wallet row exists yet.
func (s *LedgerServiceImpl) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, apperror.StorageFailure(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.BalanceCents, nil
}

// checkIdempotency runs the two-layer replay check: Redis fast path,
// then the durable log. Returns the original result on a matching hit.
func (s *LedgerServiceImpl) checkIdempotency(ctx context.Context, key string, userID uuid.UUID, amountCents int64, kind domain.TransactionKind) (*ports.LedgerResult, error) {
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		entry := &domain.IdempotencyLog{}
		if err := json.Unmarshal(cached, entry); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("unreadable idempotency cache entry, falling through to DB")
		} else {
			return s.replayEntry(entry, userID, amountCents, kind)
		}
	}

	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return s.replayEntry(idempLog, userID, amountCents, kind)
	}
	return nil, nil
}

// replayUnderLock consults only the durable log; the Redis layer was
// already checked before the transaction started.
func (s *LedgerServiceImpl) replayUnderLock(ctx context.Context, key string, userID uuid.UUID, amountCents int64, kind domain.TransactionKind) (*ports.LedgerResult, error) {
	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return s.replayEntry(idempLog, userID, amountCents, kind)
	}
	return nil, nil
}

// replayEntry returns the recorded result when the caller matches the
// entry's owner and payload. A reused settlement id with a different
// user, amount, or kind gets rejected instead of replayed.
func (s *LedgerServiceImpl) replayEntry(entry *domain.IdempotencyLog, userID uuid.UUID, amountCents int64, kind domain.TransactionKind) (*ports.LedgerResult, error) {
	if entry.UserID != userID || entry.AmountCents != amountCents || entry.Kind != kind {
		s.log.Warn().
			Str("key", entry.Key).
			Str("owner", entry.UserID.String()).
			Str("caller", userID.String()).
			Msg("settlement id reused with conflicting payload")
		return nil, apperror.ErrDuplicateSettlement()
	}
	return unmarshalLedgerResult(entry.ResponseJSON)
}

// saveIdempotency marshals the result into the entry and writes it
// inside the caller's transaction so the movement and its replay
// record commit together. Returns the entry JSON for the Redis layer.
func (s *LedgerServiceImpl) saveIdempotency(ctx context.Context, dbTx pgx.Tx, entry *domain.IdempotencyLog, result *ports.LedgerResult) ([]byte, error) {
	respJSON, err := json.Marshal(result)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}
	entry.ResponseJSON = respJSON
	if err := s.idempRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("save idempotency log: %w", err))
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal idempotency entry: %w", err))
	}
	return entryJSON, nil
}

// cacheIdempotency refreshes the Redis fast path, best-effort.
func (s *LedgerServiceImpl) cacheIdempotency(ctx context.Context, key string, respJSON []byte) {
	if err := s.idempCache.Set(ctx, key, respJSON, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

func unmarshalLedgerResult(data []byte) (*ports.LedgerResult, error) {
	result := &ports.LedgerResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached result: %w", err))
	}
	return result, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
