package seeding

import (
	"context"
	"time"
)

// Locker serializes seeding runs.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// LocalLocker is the in-process fallback used when Redis is not configured. It only
// serializes seeds within one process.
type LocalLocker struct {
	sem chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

func (l *LocalLocker) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(ctx context.Context) error) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()

	return fn(ctx)
}
