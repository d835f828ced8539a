//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"

	"lexbrief/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	cli := newFakeClient()
	l := NewLocker(cli)
	l.backoff = time.Millisecond
	key := "onboarding:submit:u1"

	token, err := l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = l.TryLock(ctx, key, time.Minute)
	assert.ErrorIs(t, err, domain.ErrSubmissionInProgress)

	require.NoError(t, l.Unlock(ctx, key, "someone-else"))
	_, held := cli.raw(key)
	assert.True(t, held, "a foreign token must not release the lock")

	require.NoError(t, l.Unlock(ctx, key, token))
	_, err = l.TryLock(ctx, key, time.Minute)
	assert.NoError(t, err)
}

func TestRedisLocker_ContextCancelled(t *testing.T) {
	cli := newFakeClient()
	l := NewLocker(cli)
	_, err := l.TryLock(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.TryLock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	cli := newFakeClient()
	rl := NewRateLimiter(cli)
	key := StepSubmitKey("u1")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "call %d should pass", i+1)
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, cli.ttls[key])

	ok, err = rl.Allow(ctx, StepSubmitKey("u2"), 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "a zero limit disables throttling")
	_, seen := cli.raw(StepSubmitKey("u2"))
	assert.False(t, seen, "a disabled limiter must not touch redis")
}
