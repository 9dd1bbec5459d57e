package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// FeedCache holds the serialized latest-wins feed for a few seconds.
// The feed is read by every lobby client on a poll loop, so a short
// cache keeps the transactions table off the hot path.
type FeedCache struct {
	client *goredis.Client
	key    string
}

// NewFeedCache creates a new Redis-backed feed cache.
func NewFeedCache(client *goredis.Client) *FeedCache {
	return &FeedCache{
		client: client,
		key:    "feed:latest-wins",
	}
}

// Get returns the cached feed body, or nil, nil on a miss.
func (c *FeedCache) Get(ctx context.Context) ([]byte, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis feed get: %w", err)
	}
	return val, nil
}

// Set stores the feed body with TTL.
func (c *FeedCache) Set(ctx context.Context, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis feed set: %w", err)
	}
	return nil
}
