// Package saga contains complex business processes that orchestrate
// multiple domain operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/achievement"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/profile"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/scoring"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/stats"
	"github.com/gamesphere/gamesphere-scoring/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD FLOW SAGA
// Complex business process: achievement evaluation and scoring
// Flow: Load Profile → Aggregate Stats → Load Awarded → Evaluate →
//
//	Persist Awards → Increment Score → Invalidate Caches → Publish Events
//
// The ledger insert is the commit point: an achievement forwarded to scoring
// is exactly the one whose ledger row was inserted by this run. Everything
// after the score increment is best-effort and never fails the flow.
// ══════════════════════════════════════════════════════════════════════════════

// AwardFlowInput contains data needed to run an achievement check.
type AwardFlowInput struct {
	// UserID - the user to evaluate achievements for.
	UserID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks if the input is valid.
func (i AwardFlowInput) Validate() error {
	if _, err := shared.NewUserID(i.UserID); err != nil {
		return err
	}
	return nil
}

// AwardedAchievement describes one achievement granted by this run.
type AwardedAchievement struct {
	ID          string
	Title       string
	Description string
	Points      int64
}

// AwardFlowResult contains the result of an achievement check.
type AwardFlowResult struct {
	// UserID - the user who was evaluated.
	UserID string

	// NewlyAwarded - achievements granted by this run, in catalog order.
	NewlyAwarded []AwardedAchievement

	// TotalPointsAwarded - sum of points from newly awarded achievements.
	TotalPointsAwarded int64

	// Score - the user's total score after this run.
	Score int64

	// Snapshot - the stats snapshot the evaluation was based on.
	Snapshot stats.Snapshot

	// ProcessedAt - when the flow completed.
	ProcessedAt time.Time
}

// HasNewAwards returns true if any achievements were granted.
func (r *AwardFlowResult) HasNewAwards() bool {
	return len(r.NewlyAwarded) > 0
}

// AwardFlowStep represents a step in the award flow.
type AwardFlowStep string

const (
	StepLoadProfile      AwardFlowStep = "load_profile"
	StepAggregateStats   AwardFlowStep = "aggregate_stats"
	StepLoadAwarded      AwardFlowStep = "load_awarded"
	StepEvaluate         AwardFlowStep = "evaluate"
	StepPersistAwards    AwardFlowStep = "persist_awards"
	StepIncrementScore   AwardFlowStep = "increment_score"
	StepInvalidateCaches AwardFlowStep = "invalidate_caches"
	StepPublishEvents    AwardFlowStep = "publish_events"
	StepComplete         AwardFlowStep = "complete"
)

// awardFlowState tracks the current state of the award flow saga.
type awardFlowState struct {
	CurrentStep  AwardFlowStep
	Input        AwardFlowInput
	UserID       shared.UserID
	Profile      *profile.Profile
	Snapshot     stats.Snapshot
	Awarded      achievement.AwardedSet
	Qualified    []achievement.Definition
	NewlyAwarded []achievement.Definition
	TotalPoints  shared.Points
	NewScore     shared.Score
	StartedAt    time.Time
	FailedStep   AwardFlowStep
}

// ══════════════════════════════════════════════════════════════════════════════
// AWARD FLOW SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AwardFlowSaga orchestrates the complete achievement check and scoring process.
type AwardFlowSaga struct {
	profileRepo profile.Repository
	awardRepo   scoring.AwardRepository
	scoreRepo   scoring.ScoreRepository
	catalog     *achievement.Catalog
	lbCache     leaderboard.Cache
	statsCache  stats.Cache
	publisher   shared.EventPublisher
	retrier     *retry.Retrier
	logger      *slog.Logger
}

// NewAwardFlowSaga creates a new award flow saga with all dependencies.
// lbCache, statsCache and publisher may be nil; the corresponding steps
// become no-ops.
func NewAwardFlowSaga(
	profileRepo profile.Repository,
	awardRepo scoring.AwardRepository,
	scoreRepo scoring.ScoreRepository,
	catalog *achievement.Catalog,
	lbCache leaderboard.Cache,
	statsCache stats.Cache,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *AwardFlowSaga {
	if logger == nil {
		logger = slog.Default()
	}

	return &AwardFlowSaga{
		profileRepo: profileRepo,
		awardRepo:   awardRepo,
		scoreRepo:   scoreRepo,
		catalog:     catalog,
		lbCache:     lbCache,
		statsCache:  statsCache,
		publisher:   publisher,
		retrier:     retry.DatabaseRetrier(retry.WithRetryIf(shared.IsRetryable)),
		logger:      logger,
	}
}

// Execute runs the complete achievement check and scoring process.
func (s *AwardFlowSaga) Execute(ctx context.Context, input AwardFlowInput) (*AwardFlowResult, error) {
	state := &awardFlowState{
		CurrentStep: StepLoadProfile,
		Input:       input,
		StartedAt:   time.Now().UTC(),
	}

	if err := input.Validate(); err != nil {
		state.FailedStep = StepLoadProfile
		return nil, s.wrapError(state, err)
	}
	if s.catalog == nil {
		state.FailedStep = StepEvaluate
		return nil, s.wrapError(state, ErrNilCatalog)
	}
	state.UserID = shared.UserID(input.UserID)

	// Step 1: Load profile
	if err := s.stepLoadProfile(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 2: Aggregate stats (pure recompute, no persisted counters)
	state.CurrentStep = StepAggregateStats
	state.Snapshot = stats.Aggregate(state.Profile)

	// Step 3: Load already awarded achievements
	state.CurrentStep = StepLoadAwarded
	if err := s.stepLoadAwarded(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 4: Evaluate catalog against the snapshot
	state.CurrentStep = StepEvaluate
	state.Qualified = achievement.Evaluate(s.catalog, state.Snapshot, state.Awarded)

	// If nothing qualified, report the current score and return early.
	if len(state.Qualified) == 0 {
		return s.buildResult(ctx, state)
	}

	// Step 5: Persist awards (insert-if-absent, first writer wins)
	state.CurrentStep = StepPersistAwards
	if err := s.stepPersistAwards(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 6: Increment score for newly inserted awards only
	state.CurrentStep = StepIncrementScore
	if err := s.stepIncrementScore(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 7: Invalidate caches (non-critical, readers fall back to storage)
	state.CurrentStep = StepInvalidateCaches
	s.stepInvalidateCaches(ctx, state)

	// Step 8: Publish domain events (non-critical)
	state.CurrentStep = StepPublishEvents
	s.stepPublishEvents(state)

	state.CurrentStep = StepComplete
	return s.buildResult(ctx, state)
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

// stepLoadProfile loads the user profile from the repository.
func (s *AwardFlowSaga) stepLoadProfile(ctx context.Context, state *awardFlowState) error {
	p, err := s.profileRepo.GetByUserID(ctx, state.UserID)
	if err != nil {
		state.FailedStep = StepLoadProfile
		return err
	}

	state.Profile = p
	return nil
}

// stepLoadAwarded loads the user's existing awards from the ledger.
func (s *AwardFlowSaga) stepLoadAwarded(ctx context.Context, state *awardFlowState) error {
	var ids []shared.AchievementID

	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var lerr error
		ids, lerr = s.awardRepo.ListAwarded(ctx, state.UserID)
		return lerr
	})
	if err != nil {
		state.FailedStep = StepLoadAwarded
		return err
	}

	state.Awarded = achievement.NewAwardedSet(ids)
	return nil
}

// stepPersistAwards inserts a ledger row per qualified achievement.
// Only achievements whose row was inserted by this run are forwarded to
// scoring: a concurrent check that lost the race is skipped here.
func (s *AwardFlowSaga) stepPersistAwards(ctx context.Context, state *awardFlowState) error {
	state.NewlyAwarded = make([]achievement.Definition, 0, len(state.Qualified))

	for _, def := range state.Qualified {
		record := scoring.AwardRecord{
			UserID:        state.UserID,
			AchievementID: def.ID,
			Points:        def.Points,
			AwardedAt:     time.Now().UTC(),
		}

		var inserted bool
		err := s.retrier.Do(ctx, func(ctx context.Context) error {
			var ierr error
			inserted, ierr = s.awardRepo.InsertIfAbsent(ctx, record)
			return ierr
		})
		if err != nil {
			state.FailedStep = StepPersistAwards
			return fmt.Errorf("persist award %s: %w", def.ID, err)
		}

		if inserted {
			state.NewlyAwarded = append(state.NewlyAwarded, def)
		} else {
			s.logger.Info("award already present, skipping scoring",
				"user_id", string(state.UserID),
				"achievement_id", string(def.ID),
			)
			if s.publisher != nil {
				ev := shared.NewAchievementSkippedEvent(string(state.UserID), string(def.ID))
				_ = s.publisher.Publish(ev)
			}
		}
	}

	return nil
}

// stepIncrementScore applies one atomic increment for the total of newly
// inserted awards. The increment is commutative, so concurrent checks for
// different achievements never conflict.
func (s *AwardFlowSaga) stepIncrementScore(ctx context.Context, state *awardFlowState) error {
	state.TotalPoints = achievement.TotalPoints(state.NewlyAwarded)

	if state.TotalPoints == 0 {
		return nil
	}

	var newScore shared.Score
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var ierr error
		newScore, ierr = s.scoreRepo.IncrementScore(ctx, state.UserID, state.TotalPoints)
		return ierr
	})
	if err != nil {
		state.FailedStep = StepIncrementScore
		return err
	}

	state.NewScore = newScore
	return nil
}

// stepInvalidateCaches marks the leaderboard snapshot stale and drops the
// user's cached stats. Failures are logged and swallowed: the flow already
// committed, readers will rebuild from storage.
func (s *AwardFlowSaga) stepInvalidateCaches(ctx context.Context, state *awardFlowState) {
	if state.TotalPoints == 0 {
		return
	}

	if s.lbCache != nil {
		if err := s.lbCache.Invalidate(ctx); err != nil {
			s.logger.Warn("leaderboard cache invalidation failed",
				"user_id", string(state.UserID),
				"error", err,
			)
		} else if s.publisher != nil {
			ev := shared.NewLeaderboardInvalidatedEvent(string(state.UserID), "score_increased")
			_ = s.publisher.Publish(ev)
		}
	}

	if s.statsCache != nil {
		if err := s.statsCache.Invalidate(ctx, string(state.UserID)); err != nil {
			s.logger.Warn("stats cache invalidation failed",
				"user_id", string(state.UserID),
				"error", err,
			)
		}
	}
}

// stepPublishEvents publishes domain events for each new award. Events
// carry the caller's correlation ID so log lines from the handlers can
// be tied back to the originating request.
func (s *AwardFlowSaga) stepPublishEvents(state *awardFlowState) {
	if s.publisher == nil {
		return
	}

	for _, def := range state.NewlyAwarded {
		ev := shared.NewAchievementAwardedEvent(
			string(state.UserID),
			string(def.ID),
			def.Points.Int64(),
		)
		ev.BaseEvent = ev.BaseEvent.WithCorrelationID(state.Input.CorrelationID)
		if err := s.publisher.Publish(ev); err != nil {
			s.logger.Warn("failed to publish award event",
				"achievement_id", string(def.ID),
				"error", err,
			)
		}
	}

	if state.TotalPoints > 0 {
		ev := shared.NewScoreIncreasedEvent(
			string(state.UserID),
			state.TotalPoints.Int64(),
			state.NewScore.Int64(),
			"achievement_check",
		)
		ev.BaseEvent = ev.BaseEvent.WithCorrelationID(state.Input.CorrelationID)
		if err := s.publisher.Publish(ev); err != nil {
			s.logger.Warn("failed to publish score event", "error", err)
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// buildResult assembles the final result. When no increment happened the
// current score is read from storage so the caller always sees the total.
func (s *AwardFlowSaga) buildResult(ctx context.Context, state *awardFlowState) (*AwardFlowResult, error) {
	score := state.NewScore
	if state.TotalPoints == 0 {
		current, err := s.scoreRepo.GetScore(ctx, state.UserID)
		if err != nil {
			s.logger.Warn("failed to read current score",
				"user_id", string(state.UserID),
				"error", err,
			)
		} else {
			score = current
		}
	}

	awarded := make([]AwardedAchievement, len(state.NewlyAwarded))
	for i, def := range state.NewlyAwarded {
		awarded[i] = AwardedAchievement{
			ID:          string(def.ID),
			Title:       def.Title,
			Description: def.Description,
			Points:      def.Points.Int64(),
		}
	}

	return &AwardFlowResult{
		UserID:             string(state.UserID),
		NewlyAwarded:       awarded,
		TotalPointsAwarded: state.TotalPoints.Int64(),
		Score:              score.Int64(),
		Snapshot:           state.Snapshot,
		ProcessedAt:        time.Now().UTC(),
	}, nil
}

// wrapError wraps an error with saga context.
func (s *AwardFlowSaga) wrapError(state *awardFlowState, err error) error {
	return &AwardFlowError{
		Step:    state.FailedStep,
		UserID:  state.Input.UserID,
		Cause:   err,
		Message: fmt.Sprintf("award flow failed at step '%s': %v", state.FailedStep, err),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// AwardFlowError represents an error during the award flow.
type AwardFlowError struct {
	Step    AwardFlowStep
	UserID  string
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *AwardFlowError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AwardFlowError) Unwrap() error {
	return e.Cause
}

var (
	// ErrNilCatalog - the saga requires a validated catalog.
	ErrNilCatalog = errors.New("award_flow: catalog is required")
)
