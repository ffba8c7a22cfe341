package credit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// BalanceCache stores derived balances. It is never the source of truth.
//
// Every invalidation bumps a per-user generation. A reader that missed
// passes the generation it saw to Set, and the value is only stored when no
// invalidation happened in between.
type BalanceCache interface {
	// Get returns ErrCacheMiss and the current generation when nothing is
	// cached.
	Get(ctx context.Context, userID uuid.UUID) (balance int64, generation int64, err error)
	Set(ctx context.Context, userID uuid.UUID, balance, generation int64, ttl time.Duration) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

const (
	balanceKeyPrefix    = "credits:balance:"
	generationKeyPrefix = "credits:balance:gen:"

	// Generations only need to outlive an in-flight read.
	generationTTL = 24 * time.Hour
)

// setIfGeneration stores ARGV[2] with a PX of ARGV[3] when the generation
// key still holds ARGV[1].
var setIfGeneration = redis.NewScript(`
local cur = redis.call('GET', KEYS[2]) or '0'
if cur ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

type redisBalanceCache struct {
	client  redis.UniversalClient
	breaker *gobreaker.CircuitBreaker[any]
}

// NewRedisBalanceCache creates a Redis-backed cache. Calls fail fast with
// gobreaker.ErrOpenState after five consecutive Redis errors.
func NewRedisBalanceCache(client redis.UniversalClient) BalanceCache {
	settings := gobreaker.Settings{
		Name:        "balance-cache",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &redisBalanceCache{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

var _ BalanceCache = (*redisBalanceCache)(nil)

// Both keys share a hash tag so the script runs on one cluster slot.
func balanceKey(userID uuid.UUID) string {
	return balanceKeyPrefix + "{" + userID.String() + "}"
}

func generationKey(userID uuid.UUID) string {
	return generationKeyPrefix + "{" + userID.String() + "}"
}

type cachedBalance struct {
	balance    int64
	generation int64
	found      bool
}

func (c *redisBalanceCache) Get(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		vals, err := c.client.MGet(ctx, balanceKey(userID), generationKey(userID)).Result()
		if err != nil {
			return nil, err
		}
		var out cachedBalance
		if raw, ok := vals[1].(string); ok {
			if out.generation, err = strconv.ParseInt(raw, 10, 64); err != nil {
				return nil, fmt.Errorf("parse generation: %w", err)
			}
		}
		if raw, ok := vals[0].(string); ok {
			if out.balance, err = strconv.ParseInt(raw, 10, 64); err != nil {
				return nil, fmt.Errorf("parse balance: %w", err)
			}
			out.found = true
		}
		return out, nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("get cached balance: %w", err)
	}
	got := res.(cachedBalance)
	if !got.found {
		// A miss is not a failure for the breaker.
		return 0, got.generation, ErrCacheMiss
	}
	return got.balance, got.generation, nil
}

func (c *redisBalanceCache) Set(ctx context.Context, userID uuid.UUID, balance, generation int64, ttl time.Duration) error {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		return nil
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, setIfGeneration.Run(ctx, c.client,
			[]string{balanceKey(userID), generationKey(userID)},
			strconv.FormatInt(generation, 10), balance, ms,
		).Err()
	})
	if err != nil {
		return fmt.Errorf("set cached balance: %w", err)
	}
	return nil
}

func (c *redisBalanceCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	_, err := c.breaker.Execute(func() (any, error) {
		_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, generationKey(userID))
			pipe.Expire(ctx, generationKey(userID), generationTTL)
			pipe.Del(ctx, balanceKey(userID))
			return nil
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("invalidate cached balance: %w", err)
	}
	return nil
}
