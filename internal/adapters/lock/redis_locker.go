package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carebridge/availability-sync/internal/domain/providers"
)

// RedisLocker implements AdvisoryLocker on a Redis key per lock name.
// Each acquisition writes a unique token so a holder only ever deletes
// its own lock, even after the TTL has let another instance in.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker whose keys expire after ttl
func NewRedisLocker(client *redis.Client, ttl time.Duration) providers.AdvisoryLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
	}
}

// TryWithLock runs fn while holding the named lock. It returns false
// without running fn when another holder has the lock.
func (l *RedisLocker) TryWithLock(ctx context.Context, name string, fn func(ctx context.Context) error) (bool, error) {
	key := fmt.Sprintf("lock:%s", name)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return false, nil
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	return true, fn(ctx)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *RedisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}
