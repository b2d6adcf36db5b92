package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when another holder owns the lock.
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when releasing a lock that expired or changed hands.
	ErrLockNotHeld = errors.New("lock not held")
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

type Lock struct {
	rdb    redis.UniversalClient
	logger ectologger.Logger
	key    string
	value  string
	ttl    time.Duration
}

// Locker hands out SET NX locks with owner tokens.
type Locker struct {
	rdb       redis.UniversalClient
	logger    ectologger.Logger
	keyPrefix string
	wait      time.Duration
}

// NewLocker builds a locker over rdb. wait bounds how long WithLock polls for a held
// lock; zero fails fast.
func NewLocker(rdb redis.UniversalClient, logger ectologger.Logger, keyPrefix string, wait time.Duration) *Locker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &Locker{
		rdb:       rdb,
		logger:    logger,
		keyPrefix: keyPrefix,
		wait:      wait,
	}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lockKey := l.keyPrefix + key
	lockValue := uuid.New().String()

	ok, err := l.rdb.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	l.logger.WithContext(ctx).Debugf("Acquired lock: %s", lockKey)

	return &Lock{
		rdb:    l.rdb,
		logger: l.logger,
		key:    lockKey,
		value:  lockValue,
		ttl:    ttl,
	}, nil
}

// TryAcquire retries Acquire with capped exponential backoff until timeout.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration, timeout time.Duration) (*Lock, error) {
	deadline := time.Now().Add(timeout)
	backoff := 10 * time.Millisecond

	for {
		lock, err := l.Acquire(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > 500*time.Millisecond {
				backoff = 500 * time.Millisecond
			}
		}
	}
}

func (lock *Lock) Key() string {
	return lock.key
}

// Release deletes the key only if this lock still owns it.
func (lock *Lock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, lock.rdb, []string{lock.key}, lock.value).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockNotHeld
	}

	lock.logger.WithContext(ctx).Debugf("Released lock: %s", lock.key)
	return nil
}

func (lock *Lock) Extend(ctx context.Context, ttl time.Duration) error {
	result, err := extendScript.Run(ctx, lock.rdb, []string{lock.key}, lock.value, ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockNotHeld
	}

	lock.ttl = ttl
	return nil
}

// WithLock runs fn while holding key, waiting up to the locker's wait duration for it.
// The lock is extended every third of its TTL while fn runs; if an extension finds the
// lock gone, fn's context is cancelled so a seed never commits without holding it.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lock, err := l.TryAcquire(ctx, key, ttl, l.wait)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go lock.keepAlive(runCtx, cancel, done)

	defer func() {
		close(done)
		cancel(nil)
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			l.logger.WithContext(ctx).WithError(releaseErr).Warnf("Failed to release lock %s", lock.key)
		}
	}()

	if err := fn(runCtx); err != nil {
		if cause := context.Cause(runCtx); errors.Is(cause, ErrLockNotHeld) {
			return fmt.Errorf("%w: %w", cause, err)
		}
		return err
	}
	return nil
}

func (lock *Lock) keepAlive(ctx context.Context, cancel context.CancelCauseFunc, done <-chan struct{}) {
	interval := lock.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Extend(ctx, lock.ttl); err != nil {
				if errors.Is(err, ErrLockNotHeld) {
					lock.logger.WithContext(ctx).Errorf("Lost lock %s while holding it", lock.key)
					cancel(ErrLockNotHeld)
					return
				}
				lock.logger.WithContext(ctx).WithError(err).Warnf("Failed to extend lock %s", lock.key)
			}
		}
	}
}
