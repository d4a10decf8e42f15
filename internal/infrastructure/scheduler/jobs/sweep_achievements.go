package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gamesphere/gamesphere-scoring/internal/application/saga"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// SWEEP ACHIEVEMENTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SweepAchievementsJob runs the award flow across every user. It is the
// safety net for awards missed by on-demand checks, for example when an
// achievement is added to the catalog after users already qualify for it.
// The award ledger keeps the sweep idempotent, so re-running it is safe.
type SweepAchievementsJob struct {
	profileRepo profile.Repository
	flow        *saga.AwardFlowSaga
	locker      Locker
	logger      *slog.Logger

	config SweepAchievementsConfig

	lastSweepStats atomic.Value // *SweepStats
}

// SweepAchievementsConfig contains configuration for the sweep job.
type SweepAchievementsConfig struct {
	// Concurrency is the number of users to evaluate in parallel.
	Concurrency int

	// Timeout is the maximum duration for the entire sweep.
	Timeout time.Duration

	// LockTTL bounds how long a crashed worker can hold the sweep lock.
	LockTTL time.Duration
}

// DefaultSweepAchievementsConfig returns sensible defaults.
func DefaultSweepAchievementsConfig() SweepAchievementsConfig {
	return SweepAchievementsConfig{
		Concurrency: 5,
		Timeout:     15 * time.Minute,
		LockTTL:     20 * time.Minute,
	}
}

// SweepStats contains statistics from a sweep run.
type SweepStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	TotalUsers    int
	AwardedUsers  int
	AwardsGranted int
	PointsGranted int64
	FailedCount   int
	Skipped       bool // another instance held the lock
	Errors        []SweepError
}

// SweepError records one failed user evaluation.
type SweepError struct {
	UserID     string
	Err        error
	OccurredAt time.Time
}

const sweepLockName = "sweep_achievements"

// NewSweepAchievementsJob creates a new sweep job. The locker is optional.
func NewSweepAchievementsJob(
	profileRepo profile.Repository,
	flow *saga.AwardFlowSaga,
	locker Locker,
	logger *slog.Logger,
	config SweepAchievementsConfig,
) *SweepAchievementsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultSweepAchievementsConfig().Concurrency
	}

	return &SweepAchievementsJob{
		profileRepo: profileRepo,
		flow:        flow,
		locker:      locker,
		logger:      logger.With("job", "sweep_achievements"),
		config:      config,
	}
}

// Name returns the job name for scheduler registration.
func (j *SweepAchievementsJob) Name() string {
	return "sweep_achievements"
}

// Description returns a human-readable description.
func (j *SweepAchievementsJob) Description() string {
	return "Runs the achievement award flow across all users"
}

// Run executes the sweep job.
func (j *SweepAchievementsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &SweepStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	if j.locker != nil {
		acquired, err := j.locker.Acquire(ctx, sweepLockName, j.config.LockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire sweep lock: %w", err)
		}
		if !acquired {
			stats.Skipped = true
			stats.CompletedAt = time.Now()
			j.lastSweepStats.Store(stats)
			j.logger.Info("sweep skipped, another instance holds the lock")
			return nil
		}
		defer func() {
			if err := j.locker.Release(context.WithoutCancel(ctx), sweepLockName); err != nil {
				j.logger.Warn("failed to release sweep lock", "error", err)
			}
		}()
	}

	userIDs, err := j.profileRepo.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	stats.TotalUsers = len(userIDs)
	j.logger.Info("starting sweep_achievements job", "total_users", stats.TotalUsers)

	correlationID := uuid.New().String()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, j.config.Concurrency)
	)

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := j.flow.Execute(ctx, saga.AwardFlowInput{
				UserID:        userID,
				CorrelationID: correlationID,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.FailedCount++
				stats.Errors = append(stats.Errors, SweepError{
					UserID:     userID,
					Err:        err,
					OccurredAt: time.Now(),
				})
				return
			}
			if result.HasNewAwards() {
				stats.AwardedUsers++
				stats.AwardsGranted += len(result.NewlyAwarded)
				stats.PointsGranted += result.TotalPointsAwarded
			}
		}(userID.String())
	}
	wg.Wait()

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastSweepStats.Store(stats)

	j.logger.Info("sweep_achievements job completed",
		"duration", stats.Duration.String(),
		"total_users", stats.TotalUsers,
		"awarded_users", stats.AwardedUsers,
		"awards_granted", stats.AwardsGranted,
		"points_granted", stats.PointsGranted,
		"failed", stats.FailedCount,
	)

	if stats.FailedCount > 0 {
		return fmt.Errorf("sweep completed with %d failures", stats.FailedCount)
	}
	return nil
}

// LastSweepStats returns statistics from the last sweep.
func (j *SweepAchievementsJob) LastSweepStats() *SweepStats {
	stats := j.lastSweepStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*SweepStats)
}
