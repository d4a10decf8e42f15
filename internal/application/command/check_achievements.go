// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/application/saga"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK ACHIEVEMENTS COMMAND
// Evaluates the catalog against a user's recomputed stats and grants every
// achievement that qualifies. Re-running the command is safe: the award
// ledger makes each achievement one-shot per user.
// ══════════════════════════════════════════════════════════════════════════════

// CheckAchievementsCommand contains the data for an achievement check.
type CheckAchievementsCommand struct {
	// UserID is the user to evaluate.
	UserID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CheckAchievementsCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return shared.WrapError("command", "CheckAchievements", shared.ErrValidation, "invalid user id", err)
	}
	return nil
}

// AwardDTO describes one granted achievement.
type AwardDTO struct {
	// AchievementID is the catalog identifier.
	AchievementID string `json:"achievement_id"`

	// Title is the display name from the catalog.
	Title string `json:"title"`

	// Description explains how the achievement is earned.
	Description string `json:"description"`

	// Points is the score value of the achievement.
	Points int64 `json:"points"`
}

// StatsDTO mirrors the snapshot the evaluation was based on.
type StatsDTO struct {
	ReviewCount      int       `json:"review_count"`
	ConnectionCount  int       `json:"connection_count"`
	UniqueGenreCount int       `json:"unique_genre_count"`
	ComputedAt       time.Time `json:"computed_at"`
}

// CheckAchievementsResult contains the result of an achievement check.
type CheckAchievementsResult struct {
	// UserID is the evaluated user.
	UserID string `json:"user_id"`

	// NewlyAwarded lists achievements granted by this run, in catalog order.
	// Empty on a repeated check: already-awarded achievements never reappear.
	NewlyAwarded []AwardDTO `json:"newly_awarded"`

	// TotalPointsAwarded is the sum of points granted by this run.
	TotalPointsAwarded int64 `json:"total_points_awarded"`

	// Score is the user's total score after the check.
	Score int64 `json:"score"`

	// Stats is the snapshot used for evaluation.
	Stats StatsDTO `json:"stats"`

	// CheckedAt is when the check completed.
	CheckedAt time.Time `json:"checked_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CheckAchievementsHandler handles the CheckAchievementsCommand.
// Orchestration lives in the award flow saga; the handler owns input
// validation and DTO mapping.
type CheckAchievementsHandler struct {
	flow *saga.AwardFlowSaga
}

// NewCheckAchievementsHandler creates a new handler.
func NewCheckAchievementsHandler(flow *saga.AwardFlowSaga) *CheckAchievementsHandler {
	return &CheckAchievementsHandler{flow: flow}
}

// Handle executes the achievement check.
func (h *CheckAchievementsHandler) Handle(ctx context.Context, cmd CheckAchievementsCommand) (*CheckAchievementsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	res, err := h.flow.Execute(ctx, saga.AwardFlowInput{
		UserID:        cmd.UserID,
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	return toResult(res), nil
}

func toResult(res *saga.AwardFlowResult) *CheckAchievementsResult {
	awarded := make([]AwardDTO, len(res.NewlyAwarded))
	for i, a := range res.NewlyAwarded {
		awarded[i] = AwardDTO{
			AchievementID: a.ID,
			Title:         a.Title,
			Description:   a.Description,
			Points:        a.Points,
		}
	}

	return &CheckAchievementsResult{
		UserID:             res.UserID,
		NewlyAwarded:       awarded,
		TotalPointsAwarded: res.TotalPointsAwarded,
		Score:              res.Score,
		Stats:              toStatsDTO(res.Snapshot),
		CheckedAt:          res.ProcessedAt,
	}
}

func toStatsDTO(s stats.Snapshot) StatsDTO {
	return StatsDTO{
		ReviewCount:      s.ReviewCount,
		ConnectionCount:  s.ConnectionCount,
		UniqueGenreCount: s.UniqueGenreCount,
		ComputedAt:       s.ComputedAt,
	}
}
