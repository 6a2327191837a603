package infra

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("resource is locked")

// Locker hands out short-lived Redis locks. A Locker without Redis grants
// every lock, leaving exclusion to the database.
type Locker struct {
	client *redislock.Client
}

func NewLocker(rdb *redis.Client) *Locker {
	if rdb == nil {
		return &Locker{}
	}
	return &Locker{client: redislock.New(rdb)}
}

// Obtain acquires key for ttl without retrying. The returned release func is
// always non-nil and safe to defer.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return func() {}, ErrLocked
	}
	if err != nil {
		return func() {}, err
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", key).Msg("lock release failed")
		}
	}, nil
}
