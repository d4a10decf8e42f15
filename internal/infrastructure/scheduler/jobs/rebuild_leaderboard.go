// Package jobs contains implementations of scheduled jobs for the
// GameSphere scoring service. The jobs keep derived state (leaderboard
// snapshots, achievement awards) in step with the underlying profile data.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// Rebuilder produces a fresh leaderboard snapshot and repopulates the cache.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*leaderboard.Snapshot, error)
}

// Locker provides best-effort mutual exclusion across worker instances.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// RebuildLeaderboardJob periodically rebuilds the leaderboard snapshot so
// that read traffic is served from cache rather than from ad-hoc rebuilds
// on the request path. When a Locker is configured, only one worker
// instance performs the rebuild per tick.
type RebuildLeaderboardJob struct {
	rebuilder Rebuilder
	locker    Locker
	logger    *slog.Logger

	config RebuildLeaderboardConfig

	lastRebuildStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// Timeout is the maximum duration for a single rebuild.
	Timeout time.Duration

	// LockTTL bounds how long a crashed worker can hold the rebuild lock.
	LockTTL time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		Timeout: 2 * time.Minute,
		LockTTL: 3 * time.Minute,
	}
}

// RebuildStats contains statistics from the last rebuild run.
type RebuildStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	TotalUsers  int
	Skipped     bool // another instance held the lock
}

const rebuildLockName = "rebuild_leaderboard"

// NewRebuildLeaderboardJob creates a new rebuild job. The locker is
// optional; without one the job assumes a single worker instance.
func NewRebuildLeaderboardJob(
	rebuilder Rebuilder,
	locker Locker,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRebuildLeaderboardConfig().Timeout
	}

	return &RebuildLeaderboardJob{
		rebuilder: rebuilder,
		locker:    locker,
		logger:    logger.With("job", "rebuild_leaderboard"),
		config:    config,
	}
}

// Name returns the job name for scheduler registration.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the leaderboard snapshot and repopulates the cache"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	if j.locker != nil {
		acquired, err := j.locker.Acquire(ctx, rebuildLockName, j.config.LockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire rebuild lock: %w", err)
		}
		if !acquired {
			stats.Skipped = true
			stats.CompletedAt = time.Now()
			j.lastRebuildStats.Store(stats)
			j.logger.Info("rebuild skipped, another instance holds the lock")
			return nil
		}
		defer func() {
			if err := j.locker.Release(context.WithoutCancel(ctx), rebuildLockName); err != nil {
				j.logger.Warn("failed to release rebuild lock", "error", err)
			}
		}()
	}

	snapshot, err := j.rebuilder.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("leaderboard rebuild failed: %w", err)
	}

	stats.TotalUsers = snapshot.TotalUsers
	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRebuildStats.Store(stats)

	j.logger.Info("rebuild_leaderboard job completed",
		"duration", stats.Duration.String(),
		"total_users", stats.TotalUsers,
	)

	return nil
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	stats := j.lastRebuildStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
