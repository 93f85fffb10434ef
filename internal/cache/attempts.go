package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const signInAttemptsPrefix = "auth:signin:failures:"

// AttemptLimiter counts failed sign-ins per username inside a fixed window.
// A nil limiter, or one with max <= 0, never blocks.
type AttemptLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewAttemptLimiter(client *redis.Client, max int, window time.Duration) *AttemptLimiter {
	if client == nil || max <= 0 || window <= 0 {
		return nil
	}
	return &AttemptLimiter{client: client, max: max, window: window}
}

func (l *AttemptLimiter) Blocked(ctx context.Context, username string) (bool, error) {
	if l == nil {
		return false, nil
	}
	count, err := l.client.Get(ctx, l.key(username)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "read sign-in attempts")
	}
	return count >= l.max, nil
}

// Fail records one failed attempt. The window starts at the first failure.
func (l *AttemptLimiter) Fail(ctx context.Context, username string) error {
	if l == nil {
		return nil
	}
	key := l.key(username)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return errors.Wrap(err, "record sign-in failure")
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return errors.Wrap(err, "expire sign-in failures")
		}
	}
	return nil
}

func (l *AttemptLimiter) Reset(ctx context.Context, username string) error {
	if l == nil {
		return nil
	}
	if err := l.client.Del(ctx, l.key(username)).Err(); err != nil {
		return errors.Wrap(err, "reset sign-in attempts")
	}
	return nil
}

func (l *AttemptLimiter) key(username string) string {
	return signInAttemptsPrefix + username
}
