package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a per-queue requests-per-second budget using a
// Redis-backed fixed-window counter.
type RateLimiter struct {
	rdb *redis.Client
}

// NewRateLimiter wraps an existing Redis client. rdb may be nil, in which
// case Allow always permits (used in tests without a Redis dependency).
func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// Allow reports whether queue may admit one more execution this second,
// given limitPerSecond.
func (r *RateLimiter) Allow(ctx context.Context, queue Priority, limitPerSecond float64) (bool, error) {
	if r.rdb == nil || limitPerSecond <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("guardant:jobs:ratelimit:%s:%d", queue, time.Now().Unix())
	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("incrementing rate limit counter: %w", err)
	}
	if count == 1 {
		r.rdb.Expire(ctx, key, 2*time.Second)
	}

	return float64(count) <= limitPerSecond, nil
}
