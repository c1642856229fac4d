package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLocker hands out short lived per-key locks backed by SET NX.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Acquire tries once to take the lock. ok is false when another holder has
// it; release is always safe to call.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error) {
	k := l.prefix + key
	token := uuid.NewString()

	ok, err = l.client.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire lock %s: %w", k, err)
	}
	if !ok {
		return func() {}, false, nil
	}
	return func() {
		// the request context may already be done
		if err := releaseScript.Run(context.Background(), l.client, []string{k}, token).Err(); err != nil {
			slog.Warn("failed to release lock", "key", k, "error", err)
		}
	}, true, nil
}
