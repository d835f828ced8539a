package redis

import (
	"context"
	"fmt"
	"time"

	"lexbrief/internal/domain/ports/repository"
)

var _ repository.RateLimiter = (*RateLimiter)(nil)

// RateLimiter counts calls per key in a fixed window that opens on the first call.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow admits at most limit calls per window. A non-positive limit disables the check.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	n, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate limit incr %s: %w", key, err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			// a counter without expiry would lock the user out for good
			_ = r.client.Del(ctx, key)
			return false, fmt.Errorf("rate limit expire %s: %w", key, err)
		}
	}
	return n <= int64(limit), nil
}

// StepSubmitKey is the per-user counter for onboarding step posts.
func StepSubmitKey(userID string) string {
	return "rate_limit:" + userID + ":step_submit"
}
