package lock

import (
	"context"
	"errors"
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/platform/logger"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "manifest:lock:"

// Deletes the key only while it still holds our token, so an expired lock
// re-taken by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds keys across processes with SET NX PX.
type RedisLocker struct {
	rdb   redis.UniversalClient
	ttl   time.Duration
	wait  time.Duration
	retry time.Duration
}

func NewRedisLocker(rdb redis.UniversalClient, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	waitCtx := ctx
	if l.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.take(waitCtx, keyPrefix+k, token); err != nil {
			l.release(ctx, held, token)
			return nil, fmt.Errorf("lock %q: %w", k, err)
		}
		held = append(held, keyPrefix+k)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(ctx, held, token) }) }, nil
}

func (l *RedisLocker) take(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return domain.ErrResourceBusy
		}
	}
}

func (l *RedisLocker) release(ctx context.Context, keys []string, token string) {
	// The request context may already be done; releasing must still happen.
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(relCtx, l.rdb, []string{keys[i]}, token).Err(); err != nil {
			lg := logger.FromContext(ctx)
			lg.Warn().Err(err).Str("key", keys[i]).Msg("release lock failed")
		}
	}
}
