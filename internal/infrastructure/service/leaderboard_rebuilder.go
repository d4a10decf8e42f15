// Package service contains application services that sit between the
// query/command layer and infrastructure.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// LeaderboardRebuilder rebuilds the full leaderboard snapshot from storage
// and populates the cache. A cache write failure is not a rebuild failure:
// the snapshot is still returned and the cache simply stays stale.
type LeaderboardRebuilder struct {
	repo      leaderboard.Repository
	cache     leaderboard.Cache
	publisher shared.EventPublisher
	ttl       time.Duration
	logger    *slog.Logger

	// Serializes concurrent rebuilds within this instance.
	mu sync.Mutex
}

// NewLeaderboardRebuilder creates a new LeaderboardRebuilder.
// cache and publisher may be nil.
func NewLeaderboardRebuilder(
	repo leaderboard.Repository,
	cache leaderboard.Cache,
	publisher shared.EventPublisher,
	ttl time.Duration,
	logger *slog.Logger,
) *LeaderboardRebuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardRebuilder{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		ttl:       ttl,
		logger:    logger.With("component", "leaderboard_rebuilder"),
	}
}

// Rebuild reads all scored users, assembles a sorted snapshot and writes it
// to the cache. Returns the snapshot even when the cache write fails.
func (s *LeaderboardRebuilder) Rebuild(ctx context.Context) (*leaderboard.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ranking := leaderboard.NewRanking()
	for _, e := range entries {
		if addErr := ranking.Add(e); addErr != nil {
			s.logger.Warn("skipping invalid leaderboard entry", "error", addErr)
		}
	}

	snapshot := leaderboard.NewSnapshot(ranking)

	if s.cache != nil {
		if cacheErr := s.cache.SetSnapshot(ctx, snapshot, s.ttl); cacheErr != nil {
			s.logger.Warn("leaderboard cache populate failed, snapshot stays stale", "error", cacheErr)
		}
	}

	duration := time.Since(start)
	s.logger.Info("leaderboard snapshot rebuilt",
		"entries", snapshot.TotalUsers,
		"duration", duration,
	)

	if s.publisher != nil {
		ev := shared.NewLeaderboardRebuiltEvent(snapshot.TotalUsers, duration)
		if pubErr := s.publisher.Publish(ev); pubErr != nil {
			s.logger.Warn("failed to publish rebuild event", "error", pubErr)
		}
	}

	return snapshot, nil
}
