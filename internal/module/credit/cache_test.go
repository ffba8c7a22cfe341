package credit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBalanceCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisBalanceCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()
	user := uuid.New()

	_, gen, err := cache.Get(ctx, user)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, cache.Set(ctx, user, -42, gen, time.Minute))
	got, _, err := cache.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), got)
	assert.Equal(t, time.Minute, mr.TTL(balanceKey(user)))

	require.NoError(t, cache.Invalidate(ctx, user))
	_, gen, err = cache.Get(ctx, user)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, int64(1), gen)
	assert.Equal(t, generationTTL, mr.TTL(generationKey(user)))
}

func TestRedisBalanceCache_SetAfterInvalidateIsDropped(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisBalanceCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()
	user := uuid.New()

	_, gen, err := cache.Get(ctx, user)
	require.ErrorIs(t, err, ErrCacheMiss)

	// A write lands between the reader's miss and its Set.
	require.NoError(t, cache.Invalidate(ctx, user))
	require.NoError(t, cache.Set(ctx, user, 100, gen, time.Minute))

	assert.False(t, mr.Exists(balanceKey(user)))
	_, _, err = cache.Get(ctx, user)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisBalanceCache_MissesDoNotTripBreaker(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisBalanceCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	for i := 0; i < 10; i++ {
		_, _, err := cache.Get(context.Background(), uuid.New())
		require.ErrorIs(t, err, ErrCacheMiss)
	}
	assert.Equal(t, gobreaker.StateClosed, cache.(*redisBalanceCache).breaker.State())
}

func TestRedisBalanceCache_BreakerOpens(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisBalanceCache(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	mr.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _, err := cache.Get(ctx, uuid.New())
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	_, _, err := cache.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, cache.Invalidate(ctx, uuid.New()), gobreaker.ErrOpenState)
}
