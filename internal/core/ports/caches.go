package ports

import (
	"context"
	"time"
)

// IdempotencyCache is the fast-path cache in front of the durable
// idempotency log. Misses and errors are non-fatal; the database log
// is always consulted before a new ledger write.
type IdempotencyCache interface {
	// Get returns the cached response, or nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// FeedCache holds the serialized latest-wins feed briefly.
type FeedCache interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, value []byte, ttl time.Duration) error
}
