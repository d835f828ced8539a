package redis

import (
	"context"
	"encoding/json"
	"time"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/metrics"
)

var _ repository.SessionCache = (*SessionCache)(nil)

// SessionCache holds the user view of signed-in sessions under session:user:<id>.
// It shares nothing with the draft key space, so resetting a draft never
// touches the session and vice versa.
type SessionCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionCache(client RedisClient, ttl time.Duration) *SessionCache {
	return &SessionCache{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(userID string) string { return "session:user:" + userID }

func (c *SessionCache) Get(ctx context.Context, userID string) (*model.User, error) {
	data, err := c.client.Get(ctx, sessionKey(userID))
	if IsNil(err) {
		metrics.IncCacheRequest("session", "miss")
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var u model.User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		metrics.IncCacheRequest("session", "corrupt")
		return nil, domain.ErrNotFound
	}
	metrics.IncCacheRequest("session", "hit")
	return &u, nil
}

func (c *SessionCache) Put(ctx context.Context, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(u.ID), data, c.ttl)
}

func (c *SessionCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, sessionKey(userID))
}
