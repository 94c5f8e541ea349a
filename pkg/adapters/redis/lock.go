package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/portlet/pkg/ports"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockHeld is the retryable outcome of a lock attempt that found the key taken.
var ErrLockHeld = errors.New("distributed lock is held")

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Locker implements ports.DistributedLocker with SET NX PX.
// Each acquisition stores a fresh token so only the holder can release it.
type Locker struct {
	client  *backend.Client
	prefix  string
	backoff func() backoff.BackOff
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithBackOff replaces the retry policy used while the lock is held elsewhere.
func WithBackOff(newBackOff func() backoff.BackOff) LockerOption {
	return func(l *Locker) { l.backoff = newBackOff }
}

// NewLocker creates a Redis locker.
func NewLocker(client *backend.Client, prefix string, opts ...LockerOption) *Locker {
	l := &Locker{
		client:  client,
		prefix:  prefix,
		backoff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 0
	return b
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	attempt := func() error {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return backoff.Permanent(fmt.Errorf("redis error acquiring lock: %w", err))
		}
		if !ok {
			return ErrLockHeld
		}
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(l.backoff(), ctx)); err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		return l.client.Eval(ctx, unlockScript, []string{lockKey}, token).Err()
	}, nil
}

var _ ports.DistributedLocker = (*Locker)(nil)
