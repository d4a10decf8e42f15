package redis

import (
	"context"
	"time"
)

// DistributedLock is a best-effort mutual exclusion primitive built on
// SETNX with a TTL. It guards background jobs against concurrent runs
// across worker instances. The TTL bounds how long a crashed holder
// can block other instances, so Release failures are tolerable.
type DistributedLock struct {
	cache *Cache
}

// NewDistributedLock creates a DistributedLock backed by the given cache.
func NewDistributedLock(cache *Cache) *DistributedLock {
	return &DistributedLock{cache: cache}
}

// Acquire attempts to take the named lock. It returns true when the lock
// was taken, false when another holder owns it.
func (l *DistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = TTLDistributedLock
	}
	return l.cache.SetNX(ctx, LockKey(name), "1", ttl)
}

// Release drops the named lock.
func (l *DistributedLock) Release(ctx context.Context, name string) error {
	return l.cache.Delete(ctx, LockKey(name))
}
