package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "test:"), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLocker(t)

	release, err := l.TryLock(ctx, "quote:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:quote:1"))

	_, err = l.TryLock(ctx, "quote:1", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	release()
	assert.False(t, mr.Exists("test:quote:1"))

	again, err := l.TryLock(ctx, "quote:1", time.Minute)
	require.NoError(t, err)
	again()
}

func TestRedisLockerExpiredLeaseIsNotReleasedByOldHolder(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLocker(t)

	oldRelease, err := l.TryLock(ctx, "quote:2", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	newRelease, err := l.TryLock(ctx, "quote:2", time.Minute)
	require.NoError(t, err)

	oldRelease()
	assert.True(t, mr.Exists("test:quote:2"), "old holder must not delete the new lease")
	newRelease()
	assert.False(t, mr.Exists("test:quote:2"))
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	release, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	_, err = l.TryLock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	now = now.Add(2 * time.Minute)
	stolen, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err, "expired lease can be taken over")

	release()
	_, err = l.TryLock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired, "stale release must not free the new lease")

	stolen()
	_, err = l.TryLock(ctx, "k", time.Minute)
	assert.NoError(t, err)
}
