package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/profile"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements profile.Repository using PostgreSQL.
// The scoring engine is a read-only consumer of profile data.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

var _ profile.Repository = (*ProfileRepository)(nil)

// GetByUserID loads the full profile aggregate: the profile row plus its
// reviews, connections, and played games.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID shared.UserID) (*profile.Profile, error) {
	var (
		p         profile.Profile
		userIDStr string
	)

	err := r.conn.QueryRow(ctx, `
		SELECT user_id, display_name, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`, userID.String()).Scan(&userIDStr, &p.DisplayName, &p.UpdatedAt)

	if IsNoRows(err) {
		return nil, shared.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.UserID = shared.UserID(userIDStr)

	if p.Reviews, err = r.loadReviews(ctx, userID); err != nil {
		return nil, err
	}
	if p.Connections, err = r.loadConnections(ctx, userID); err != nil {
		return nil, err
	}
	if p.PlayedGames, err = r.loadPlayedGames(ctx, userID); err != nil {
		return nil, err
	}

	return &p, nil
}

// Exists checks for the profile row without loading collections.
func (r *ProfileRepository) Exists(ctx context.Context, userID shared.UserID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_profiles WHERE user_id = $1)
	`, userID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return exists, nil
}

// ListUserIDs returns the IDs of every user that has a profile row,
// in stable order. Used by the bulk achievement sweep.
func (r *ProfileRepository) ListUserIDs(ctx context.Context) ([]shared.UserID, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT user_id
		FROM user_profiles
		ORDER BY user_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ids: %w", err)
	}
	defer rows.Close()

	var ids []shared.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, shared.UserID(id))
	}
	return ids, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Collection loaders
// ─────────────────────────────────────────────────────────────────────────────

func (r *ProfileRepository) loadReviews(ctx context.Context, userID shared.UserID) ([]profile.Review, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, game_id, rating, created_at
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []profile.Review
	for rows.Next() {
		var rev profile.Review
		if err := rows.Scan(&rev.ID, &rev.GameID, &rev.Rating, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

func (r *ProfileRepository) loadConnections(ctx context.Context, userID shared.UserID) ([]profile.Connection, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, peer_id, status, created_at
		FROM connections
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	var conns []profile.Connection
	for rows.Next() {
		var (
			c      profile.Connection
			peerID string
			status string
		)
		if err := rows.Scan(&c.ID, &peerID, &status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		c.PeerID = shared.UserID(peerID)
		c.Status = profile.ConnectionStatus(status)
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

func (r *ProfileRepository) loadPlayedGames(ctx context.Context, userID shared.UserID) ([]profile.PlayedGame, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT game_id, title, genre, played_at
		FROM played_games
		WHERE user_id = $1
		ORDER BY played_at ASC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query played games: %w", err)
	}
	defer rows.Close()

	var games []profile.PlayedGame
	for rows.Next() {
		var (
			g        profile.PlayedGame
			genre    string
			playedAt time.Time
		)
		if err := rows.Scan(&g.GameID, &g.Title, &genre, &playedAt); err != nil {
			return nil, fmt.Errorf("failed to scan played game: %w", err)
		}
		g.Genre = shared.Genre(genre)
		g.PlayedAt = playedAt
		games = append(games, g)
	}
	return games, rows.Err()
}
