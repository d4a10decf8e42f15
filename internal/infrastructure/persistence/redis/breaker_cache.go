package redis

import (
	"context"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
	"github.com/gamesphere/gamesphere-scoring/pkg/circuitbreaker"
)

// BreakerLeaderboardCache wraps a leaderboard.Cache with a circuit
// breaker. When Redis is flapping, the breaker opens and every cache
// call fails fast instead of adding a timeout to each read. The read
// path already treats cache errors as a miss, so an open breaker just
// shifts traffic to rebuilds and direct storage reads.
type BreakerLeaderboardCache struct {
	inner   leaderboard.Cache
	breaker *circuitbreaker.CircuitBreaker
}

var _ leaderboard.Cache = (*BreakerLeaderboardCache)(nil)

// NewBreakerLeaderboardCache wraps the given cache with a breaker.
func NewBreakerLeaderboardCache(inner leaderboard.Cache, breaker *circuitbreaker.CircuitBreaker) *BreakerLeaderboardCache {
	if breaker == nil {
		breaker = circuitbreaker.CacheBreaker(nil)
	}
	return &BreakerLeaderboardCache{inner: inner, breaker: breaker}
}

// GetSnapshot reads through the breaker. An open breaker reports a miss.
func (c *BreakerLeaderboardCache) GetSnapshot(ctx context.Context) (*leaderboard.Snapshot, leaderboard.Freshness, error) {
	var (
		snapshot  *leaderboard.Snapshot
		freshness = leaderboard.FreshnessMiss
	)

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		snapshot, freshness, innerErr = c.inner.GetSnapshot(ctx)
		return innerErr
	})
	if err != nil {
		return nil, leaderboard.FreshnessMiss, err
	}
	return snapshot, freshness, nil
}

// SetSnapshot writes through the breaker.
func (c *BreakerLeaderboardCache) SetSnapshot(ctx context.Context, snapshot *leaderboard.Snapshot, ttl time.Duration) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.inner.SetSnapshot(ctx, snapshot, ttl)
	})
}

// Invalidate drops the freshness flag through the breaker.
func (c *BreakerLeaderboardCache) Invalidate(ctx context.Context) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.inner.Invalidate(ctx)
	})
}
