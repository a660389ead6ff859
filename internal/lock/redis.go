package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by another request is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	retryInterval = 25 * time.Millisecond
	// DefaultTTL replaces a non-positive TTL; a lock key must always expire.
	DefaultTTL = 5 * time.Second
)

// RedisLocker is a single-instance Redis lock (SET NX PX with a random token).
// It serialises writers across API replicas for as long as TTL holds.
type RedisLocker struct {
	rdb  *redis.Client
	ttl  time.Duration
	wait time.Duration
	log  zerolog.Logger
}

// NewRedisLocker creates a RedisLocker. A non-positive ttl falls back to
// DefaultTTL and a negative wait to zero (a single attempt).
func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration, log zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if wait < 0 {
		wait = 0
	}
	return &RedisLocker{
		rdb:  rdb,
		ttl:  ttl,
		wait: wait,
		log:  log.With().Str("component", "redis_locker").Logger(),
	}
}

// Lock implements Locker.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	return func() {
		// Release must run even if the request context was cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("Lock release failed, key will expire")
		}
	}, nil
}
