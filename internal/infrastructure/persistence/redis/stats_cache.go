package redis

import (
	"context"
	"errors"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/stats"
)

// StatsCache stores recently computed per-user stats snapshots.
// Snapshots are cheap to recompute, so the TTL is short and a miss
// is never an error for callers.
type StatsCache struct {
	cache      *Cache
	defaultTTL time.Duration
}

var _ stats.Cache = (*StatsCache)(nil)

// NewStatsCacheWithTTL creates a StatsCache whose Set falls back to the
// given TTL when the caller does not pass one.
func NewStatsCacheWithTTL(cache *Cache, defaultTTL time.Duration) *StatsCache {
	if defaultTTL <= 0 {
		defaultTTL = TTLStatsSnapshot
	}
	return &StatsCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached snapshot for a user.
// Returns (nil, nil) on a cache miss.
func (s *StatsCache) Get(ctx context.Context, userID string) (*stats.Snapshot, error) {
	var snapshot stats.Snapshot
	key := StatsKey(userID)

	err := s.cache.Get(ctx, key, &snapshot)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// Set stores a snapshot for a user.
func (s *StatsCache) Set(ctx context.Context, snapshot *stats.Snapshot, ttl time.Duration) error {
	if snapshot == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	key := StatsKey(string(snapshot.UserID))
	return s.cache.Set(ctx, key, snapshot, ttl)
}

// Invalidate removes the cached snapshot for a user. Called after an
// achievement check so the next stats read reflects the latest profile.
func (s *StatsCache) Invalidate(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, StatsKey(userID))
}
