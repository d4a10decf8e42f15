package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/scoring"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AwardRepository implements scoring.AwardRepository using PostgreSQL.
// The unique constraint on (user_id, achievement_id) makes InsertIfAbsent
// safe under concurrency without explicit locks.
type AwardRepository struct {
	conn *Connection
}

// NewAwardRepository creates a new AwardRepository.
func NewAwardRepository(conn *Connection) *AwardRepository {
	return &AwardRepository{conn: conn}
}

var _ scoring.AwardRepository = (*AwardRepository)(nil)

// InsertIfAbsent records an award. Returns true if the row was inserted,
// false if the (user, achievement) pair already exists. The unique
// constraint arbitrates concurrent inserts: the loser gets a 23505,
// which is the "already awarded" outcome, not an error.
func (r *AwardRepository) InsertIfAbsent(ctx context.Context, record scoring.AwardRecord) (bool, error) {
	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}
	awardedAt := record.AwardedAt
	if awardedAt.IsZero() {
		awardedAt = time.Now().UTC()
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO user_achievements (id, user_id, achievement_id, points, awarded_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		id,
		record.UserID.String(),
		record.AchievementID.String(),
		record.Points.Int64(),
		awardedAt,
	)
	if IsUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert award: %w", err)
	}

	return true, nil
}

// ListAwarded returns the IDs of every achievement the user earned.
func (r *AwardRepository) ListAwarded(ctx context.Context, userID shared.UserID) ([]shared.AchievementID, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT achievement_id
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY awarded_at ASC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query awards: %w", err)
	}
	defer rows.Close()

	var ids []shared.AchievementID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan award row: %w", err)
		}
		ids = append(ids, shared.AchievementID(id))
	}
	return ids, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ScoreRepository implements scoring.ScoreRepository using PostgreSQL.
type ScoreRepository struct {
	conn *Connection
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(conn *Connection) *ScoreRepository {
	return &ScoreRepository{conn: conn}
}

var _ scoring.ScoreRepository = (*ScoreRepository)(nil)

// IncrementScore atomically adds delta to the user's score and returns the
// new total. The upsert form makes the increment commutative: concurrent
// increments serialize on the row and both land.
func (r *ScoreRepository) IncrementScore(ctx context.Context, userID shared.UserID, delta shared.Points) (shared.Score, error) {
	if !delta.IsValid() {
		return 0, shared.ErrNegativeDelta
	}

	var newScore int64
	err := r.conn.QueryRow(ctx, `
		INSERT INTO user_scores (user_id, score, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET score = user_scores.score + EXCLUDED.score, updated_at = NOW()
		RETURNING score
	`, userID.String(), delta.Int64()).Scan(&newScore)
	if err != nil {
		return 0, fmt.Errorf("failed to increment score: %w", err)
	}

	return shared.Score(newScore), nil
}

// GetScore returns the user's current total. Users without a score row
// have a zero score, not an error.
func (r *ScoreRepository) GetScore(ctx context.Context, userID shared.UserID) (shared.Score, error) {
	var score int64
	err := r.conn.QueryRow(ctx, `
		SELECT score FROM user_scores WHERE user_id = $1
	`, userID.String()).Scan(&score)

	if IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get score: %w", err)
	}

	return shared.Score(score), nil
}
