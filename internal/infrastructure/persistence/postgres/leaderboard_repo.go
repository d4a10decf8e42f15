// Package postgres implements the PostgreSQL persistence layer for the
// GameSphere scoring engine.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
// It reads the user_scores table; writes go through ScoreRepository.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

var _ leaderboard.Repository = (*LeaderboardRepository)(nil)

// ListTop returns the first limit entries in leaderboard order:
// score DESC, user_id ASC. The ORDER BY matches idx_user_scores_leaderboard.
func (r *LeaderboardRepository) ListTop(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	if limit <= 0 {
		return nil, shared.ErrInvalidLimit
	}

	rows, err := r.conn.Query(ctx, `
		SELECT s.user_id, COALESCE(p.display_name, ''), s.score, s.updated_at
		FROM user_scores s
		LEFT JOIN user_profiles p ON p.user_id = s.user_id
		ORDER BY s.score DESC, s.user_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListAll returns every scored user in leaderboard order.
func (r *LeaderboardRepository) ListAll(ctx context.Context) ([]*leaderboard.Entry, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT s.user_id, COALESCE(p.display_name, ''), s.score, s.updated_at
		FROM user_scores s
		LEFT JOIN user_profiles p ON p.user_id = s.user_id
		ORDER BY s.score DESC, s.user_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all scores: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetUserEntry returns a single user's entry, or nil if the user has no score.
func (r *LeaderboardRepository) GetUserEntry(ctx context.Context, userID shared.UserID) (*leaderboard.Entry, error) {
	var (
		entry     leaderboard.Entry
		userIDStr string
		score     int64
		updatedAt time.Time
	)

	err := r.conn.QueryRow(ctx, `
		SELECT s.user_id, COALESCE(p.display_name, ''), s.score, s.updated_at
		FROM user_scores s
		LEFT JOIN user_profiles p ON p.user_id = s.user_id
		WHERE s.user_id = $1
	`, userID.String()).Scan(&userIDStr, &entry.DisplayName, &score, &updatedAt)

	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user entry: %w", err)
	}

	entry.UserID = shared.UserID(userIDStr)
	entry.Score = shared.Score(score)
	entry.UpdatedAt = updatedAt
	return &entry, nil
}

// CountUsers returns the number of users with a score row.
func (r *LeaderboardRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM user_scores`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scored users: %w", err)
	}
	return count, nil
}

// scanEntries converts rows into leaderboard entries.
// Rank is left unassigned; ranking is a domain concern (Ranking.Sort).
func scanEntries(rows pgx.Rows) ([]*leaderboard.Entry, error) {
	var entries []*leaderboard.Entry
	for rows.Next() {
		var (
			userID      string
			displayName string
			score       int64
			updatedAt   time.Time
		)
		if err := rows.Scan(&userID, &displayName, &score, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, &leaderboard.Entry{
			UserID:      shared.UserID(userID),
			DisplayName: displayName,
			Score:       shared.Score(score),
			UpdatedAt:   updatedAt,
		})
	}
	return entries, rows.Err()
}
