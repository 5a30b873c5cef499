// internal/customer/lock.go
package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "onboarding:lock:"

// ErrLockHeld is returned when another onboarding for the same email is in
// flight.
var ErrLockHeld = errors.New("LOCK_HELD")

// Release only deletes the key while it still holds our token, so an expired
// lock taken over by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client   redis.Cmdable
	ttl      time.Duration
	newToken func() string
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:   client,
		ttl:      ttl,
		newToken: func() string { return uuid.New().String() },
	}
}

func lockKey(email string) string {
	return lockKeyPrefix + email
}

// Acquire takes the lock for email and returns the token needed to release it.
func (l *RedisLocker) Acquire(ctx context.Context, email string) (string, error) {
	token := l.newToken()
	ok, err := l.client.SetNX(ctx, lockKey(email), token, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire onboarding lock: %w", err)
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

func (l *RedisLocker) Release(ctx context.Context, email, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey(email)}, token).Err(); err != nil {
		return fmt.Errorf("release onboarding lock: %w", err)
	}
	return nil
}
