package lock

import (
	"context"
	"manifest-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, 5*time.Second, 50*time.Millisecond)

	release, err := l.Acquire(context.Background(), "vehicle:V1", "driver:D1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"vehicle:V1"))
	assert.True(t, mr.Exists(keyPrefix+"driver:D1"))

	_, err = l.Acquire(context.Background(), "vehicle:V1")
	assert.ErrorIs(t, err, domain.ErrResourceBusy)

	release()
	assert.False(t, mr.Exists(keyPrefix+"vehicle:V1"))
	assert.False(t, mr.Exists(keyPrefix+"driver:D1"))
}

func TestRedisLocker_PartialAcquireRollsBack(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, mr.Set(keyPrefix+"vehicle:V1", "someone-else"))

	_, err := l.Acquire(context.Background(), "driver:D1", "vehicle:V1")
	assert.ErrorIs(t, err, domain.ErrResourceBusy)
	assert.False(t, mr.Exists(keyPrefix+"driver:D1"))
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, time.Second, 50*time.Millisecond)

	release, err := l.Acquire(context.Background(), "trip:T1")
	require.NoError(t, err)

	// Our lock expires and another holder takes the key.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(keyPrefix+"trip:T1", "other"))

	release()
	got, err := mr.Get(keyPrefix + "trip:T1")
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}

func TestRedisLocker_ExpiredLockCanBeRetaken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, time.Second, 50*time.Millisecond)

	_, err := l.Acquire(context.Background(), "stop:S1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release, err := l.Acquire(context.Background(), "stop:S1")
	require.NoError(t, err)
	release()
}
