package repository

import (
	"context"
	"time"

	"lexbrief/internal/domain/model"
)

// SessionCache holds the signed-in user's view between requests.
// Get returns domain.ErrNotFound on a miss.
type SessionCache interface {
	Get(ctx context.Context, userID string) (*model.User, error)
	Put(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, userID string) error
}

// Locker guards a critical section across processes.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
