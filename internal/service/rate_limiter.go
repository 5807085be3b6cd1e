package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prperemyshlev/kanah-health/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RateLimitError is returned when a key has used up its window.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, try again in %v", e.RetryAfter)
}

// RateLimiter is a sliding-window log limiter backed by a Redis sorted set per key.
type RateLimiter struct {
	redis *database.Redis
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis}
}

func rateLimitKey(key string) string {
	return "ratelimit:" + key
}

// Allow records one request for key and returns the requests left in the
// window. A *RateLimitError is returned when the limit is already reached.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	now := time.Now()
	redisKey := rateLimitKey(key)
	windowStart := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := r.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "0", windowStart)
		card = pipe.ZCard(ctx, redisKey)
		oldest = pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read rate limit window: %w", err)
	}

	count := int(card.Val())
	if count >= limit {
		retry := window
		if z := oldest.Val(); len(z) > 0 {
			retry = window - now.Sub(time.UnixMilli(int64(z[0].Score)))
		}
		return 0, &RateLimitError{RetryAfter: retry.Round(time.Second)}
	}

	_, err = r.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, redisKey, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: strconv.FormatInt(now.UnixNano(), 10),
		})
		pipe.Expire(ctx, redisKey, window+time.Minute)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record request: %w", err)
	}

	return limit - count - 1, nil
}
