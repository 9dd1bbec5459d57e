package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"casino-ledger/internal/core/domain"
	"casino-ledger/internal/core/game"
	"casino-ledger/internal/core/ports"
	"casino-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// gameRef labels blackjack transactions in the ledger and the feed.
const gameRef = "Blackjack"

// playerSession is one user's table seat: their round, the id of the
// round in flight, and a mutex making the round single-owner.
type playerSession struct {
	mu      sync.Mutex
	roundID uuid.UUID
	round   *game.Round
}

// GameServiceImpl implements ports.GameService. Round state lives in
// memory; every money movement goes through the ledger with the
// round's settlement ids, so a crash loses at most the cards, never
// the funds.
type GameServiceImpl struct {
	ledger         ports.LedgerService
	settlementRepo ports.SettlementRepository
	log            zerolog.Logger
	newRound       func() *game.Round

	mu       sync.Mutex
	sessions map[uuid.UUID]*playerSession
}

// GameOption customises a GameServiceImpl.
type GameOption func(*GameServiceImpl)

// WithRoundFactory replaces the round constructor, letting callers
// control the deck a new table starts with.
func WithRoundFactory(f func() *game.Round) GameOption {
	return func(s *GameServiceImpl) { s.newRound = f }
}

// NewGameService creates a new GameServiceImpl.
func NewGameService(ledger ports.LedgerService, settlementRepo ports.SettlementRepository, log zerolog.Logger, opts ...GameOption) *GameServiceImpl {
	s := &GameServiceImpl{
		ledger:         ledger,
		settlementRepo: settlementRepo,
		log:            log,
		newRound:       game.NewRound,
		sessions:       make(map[uuid.UUID]*playerSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentRound returns the user's table state. An idle view (no round
// yet, or the last one finished) is not an error.
func (s *GameServiceImpl) CurrentRound(ctx context.Context, userID uuid.UUID) (*ports.RoundView, error) {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(ctx, userID, sess.round)
}

// Deal starts a round: the bet is debited first, and only a committed
// debit lets the cards leave the deck. A failed debit leaves no round.
func (s *GameServiceImpl) Deal(ctx context.Context, userID uuid.UUID, betCents int64) (*ports.RoundView, error) {
	if betCents <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.round != nil && sess.round.Status == game.StatusPlayerTurn {
		return nil, apperror.ErrRoundState("a round is already in progress")
	}

	roundID := uuid.New()
	_, err := s.ledger.Debit(ctx, ports.DebitParams{
		UserID:       userID,
		AmountCents:  betCents,
		SettlementID: domain.BuildBetSettlementID(roundID),
		GameRef:      gameRef,
	})
	if err != nil {
		return nil, err
	}

	if sess.round == nil {
		sess.round = s.newRound()
	}
	sess.roundID = roundID
	if err := sess.round.Deal(betCents); err != nil {
		// The debit committed; owe the bet back as a pending settlement
		// rather than losing it with the failed round.
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("deal failed after debit")
		s.refundFailedDeal(ctx, userID, roundID, betCents)
		return nil, apperror.ErrRoundState(err.Error())
	}

	if sess.round.Status == game.StatusRoundOver {
		return s.settle(ctx, userID, sess)
	}
	return s.view(ctx, userID, sess.round)
}

// Hit draws a card for the player.
func (s *GameServiceImpl) Hit(ctx context.Context, userID uuid.UUID) (*ports.RoundView, error) {
	return s.advance(ctx, userID, func(r *game.Round) error { return r.Hit() })
}

// Stand ends the player's turn and plays out the dealer.
func (s *GameServiceImpl) Stand(ctx context.Context, userID uuid.UUID) (*ports.RoundView, error) {
	return s.advance(ctx, userID, func(r *game.Round) error { return r.Stand() })
}

func (s *GameServiceImpl) advance(ctx context.Context, userID uuid.UUID, move func(*game.Round) error) (*ports.RoundView, error) {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.round == nil || sess.round.Status == game.StatusIdle {
		return nil, apperror.ErrNoActiveRound()
	}
	if err := move(sess.round); err != nil {
		return nil, apperror.ErrRoundState(err.Error())
	}

	if sess.round.Status == game.StatusRoundOver {
		return s.settle(ctx, userID, sess)
	}
	return s.view(ctx, userID, sess.round)
}

// settle records and applies the credit a finished round owes. The
// pending settlement row is written before the credit is attempted, so
// a failed credit is retried by the reconciler instead of vanishing.
func (s *GameServiceImpl) settle(ctx context.Context, userID uuid.UUID, sess *playerSession) (*ports.RoundView, error) {
	round := sess.round
	creditCents := round.Outcome.CreditCents(round.ActiveBetCents)
	if creditCents == 0 {
		return s.view(ctx, userID, round)
	}

	settlementID := domain.BuildCreditSettlementID(sess.roundID)
	kind := domain.TransactionKind(round.Outcome.Kind())
	now := time.Now().UTC()

	pending := &domain.PendingSettlement{
		SettlementID: settlementID,
		UserID:       userID,
		AmountCents:  creditCents,
		Kind:         kind,
		GameRef:      gameRef,
		Status:       domain.SettlementStatusPending,
		NextRetryAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.settlementRepo.Create(ctx, pending); err != nil {
		// Without a durable record a failed credit could be lost, so
		// refuse to credit at all. The caller can replay the move.
		return nil, apperror.StorageFailure(fmt.Errorf("record pending settlement: %w", err))
	}

	_, err := s.ledger.Credit(ctx, ports.CreditParams{
		UserID:       userID,
		AmountCents:  creditCents,
		Kind:         kind,
		GameRef:      gameRef,
		SettlementID: settlementID,
	})
	if err != nil {
		// Leave the pending row; the reconciler retries with the same
		// settlement id.
		s.log.Warn().Err(err).
			Str("settlement_id", settlementID).
			Str("user_id", userID.String()).
			Msg("credit failed, settlement left pending")
		return s.view(ctx, userID, round)
	}

	if err := s.settlementRepo.MarkApplied(ctx, settlementID); err != nil {
		// Harmless: the retry path replays the credit idempotently and
		// marks the row then.
		s.log.Warn().Err(err).Str("settlement_id", settlementID).Msg("failed to mark settlement applied")
	}

	s.log.Info().
		Str("settlement_id", settlementID).
		Str("user_id", userID.String()).
		Str("outcome", string(round.Outcome)).
		Int64("credit_cents", creditCents).
		Msg("round settled")

	return s.view(ctx, userID, round)
}

// refundFailedDeal books the bet back as a pending WIN-kind settlement
// when the engine rejects a deal after the debit committed.
func (s *GameServiceImpl) refundFailedDeal(ctx context.Context, userID, roundID uuid.UUID, betCents int64) {
	now := time.Now().UTC()
	pending := &domain.PendingSettlement{
		SettlementID: domain.BuildCreditSettlementID(roundID),
		UserID:       userID,
		AmountCents:  betCents,
		Kind:         domain.TransactionKindPush,
		GameRef:      gameRef,
		Status:       domain.SettlementStatusPending,
		NextRetryAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.settlementRepo.Create(ctx, pending); err != nil {
		s.log.Error().Err(err).
			Str("settlement_id", pending.SettlementID).
			Msg("failed to record refund settlement")
	}
}

func (s *GameServiceImpl) session(userID uuid.UUID) *playerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &playerSession{}
		s.sessions[userID] = sess
	}
	return sess
}

// view builds the player-facing snapshot. The dealer's hole card stays
// hidden until the player's turn is over.
func (s *GameServiceImpl) view(ctx context.Context, userID uuid.UUID, round *game.Round) (*ports.RoundView, error) {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	if round == nil {
		return &ports.RoundView{Status: game.StatusIdle, BalanceCents: balance}, nil
	}

	dealerHand := round.DealerHand
	if round.Status == game.StatusPlayerTurn && len(dealerHand) > 0 {
		dealerHand = dealerHand[:1]
	}

	v := &ports.RoundView{
		Status:         round.Status,
		PlayerHand:     round.PlayerHand,
		DealerHand:     dealerHand,
		PlayerTotal:    game.HandValue(round.PlayerHand).Total,
		DealerTotal:    game.HandValue(dealerHand).Total,
		ActiveBetCents: round.ActiveBetCents,
		Outcome:        round.Outcome,
		BalanceCents:   balance,
	}
	return v, nil
}
