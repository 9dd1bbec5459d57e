package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casino-ledger/internal/core/domain"
	"casino-ledger/internal/core/ports"
	"casino-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	feedLimit    = 10
	feedCacheTTL = 5 * time.Second
)

// FeedServiceImpl implements ports.FeedService. The feed is public and
// polled, so reads go through a short Redis cache.
type FeedServiceImpl struct {
	txRepo ports.TransactionRepository
	cache  ports.FeedCache
	log    zerolog.Logger
}

// NewFeedService creates a new FeedServiceImpl.
func NewFeedService(txRepo ports.TransactionRepository, cache ports.FeedCache, log zerolog.Logger) *FeedServiceImpl {
	return &FeedServiceImpl{
		txRepo: txRepo,
		cache:  cache,
		log:    log,
	}
}

// LatestWins returns the newest wins, newest first.
func (s *FeedServiceImpl) LatestWins(ctx context.Context) ([]domain.LatestWin, error) {
	cached, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("feed cache read failed, falling through to DB")
	}
	if cached != nil {
		var wins []domain.LatestWin
		if err := json.Unmarshal(cached, &wins); err == nil {
			return wins, nil
		}
		s.log.Warn().Msg("malformed feed cache entry, falling through to DB")
	}

	wins, err := s.txRepo.LatestWins(ctx, feedLimit)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("load latest wins: %w", err))
	}

	if body, err := json.Marshal(wins); err == nil {
		if err := s.cache.Set(ctx, body, feedCacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("feed cache write failed")
		}
	}
	return wins, nil
}
