package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	key := "bet:3b2a1c00-0000-4000-8000-000000000001"
	value := []byte(`{"balanceCents":9000,"transactionId":"abc"}`)

	// Get before set => nil
	result, err := cache.Get(ctx, key)
	assert.NoError(t, err)
	assert.Nil(t, result)

	// Set
	err = cache.Set(ctx, key, value, 24*time.Hour)
	require.NoError(t, err)

	// Get after set
	result, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, result)
}

func TestIdempotencyCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	key := "settle:3b2a1c00-0000-4000-8000-000000000002"
	value := []byte(`{"balanceCents":13000}`)

	err := cache.Set(ctx, key, value, 1*time.Second)
	require.NoError(t, err)

	// Fast-forward time in miniredis
	s.FastForward(2 * time.Second)

	result, err := cache.Get(ctx, key)
	assert.NoError(t, err)
	assert.Nil(t, result, "expired key should return nil")
}

func TestFeedCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewFeedCache(client)
	ctx := context.Background()

	// Miss before set
	result, err := cache.Get(ctx)
	assert.NoError(t, err)
	assert.Nil(t, result)

	body := []byte(`[{"displayName":"player one","amountCents":4000,"game":"Blackjack"}]`)
	require.NoError(t, cache.Set(ctx, body, 5*time.Second))

	result, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, body, result)

	// Stale feed entries must age out
	s.FastForward(6 * time.Second)
	result, err = cache.Get(ctx)
	assert.NoError(t, err)
	assert.Nil(t, result)
}
