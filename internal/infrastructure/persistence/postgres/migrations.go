package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Migration is one versioned schema change. Applied versions are recorded
// in the schema_migrations table so startup is idempotent.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator applies the embedded schema migrations at startup. Both the
// server and the worker run it; the version ledger makes the race benign.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator over the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: embeddedMigrations()}
}

// Migrate applies every pending migration in version order. Each
// migration and its ledger row commit in one transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("postgres: failed to create migrations table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}

		err := m.conn.withTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("postgres: migration %d (%s) failed: %w", mig.Version, mig.Name, err)
		}
	}

	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan migration row: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func embeddedMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_profiles", SQL: migrationProfiles},
		{Version: 2, Name: "create_award_ledger", SQL: migrationAwardLedger},
		{Version: 3, Name: "create_user_scores", SQL: migrationUserScores},
	}
}

const migrationProfiles = `
-- Main user profiles table
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Game reviews written by users
CREATE TABLE IF NOT EXISTS reviews (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id VARCHAR(64) NOT NULL REFERENCES user_profiles(user_id) ON DELETE CASCADE,
    game_id VARCHAR(64) NOT NULL,
    rating INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_rating CHECK (rating >= 0 AND rating <= 5)
);

-- Social connections between users
CREATE TABLE IF NOT EXISTS connections (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id VARCHAR(64) NOT NULL REFERENCES user_profiles(user_id) ON DELETE CASCADE,
    peer_id VARCHAR(64) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_connection_status CHECK (status IN ('pending', 'accepted', 'declined')),
    CONSTRAINT no_self_connection CHECK (user_id != peer_id),
    CONSTRAINT unique_connection_pair UNIQUE (user_id, peer_id)
);

-- Games played by users, with genre for UNIQUE_GENRE_COUNT
CREATE TABLE IF NOT EXISTS played_games (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id VARCHAR(64) NOT NULL REFERENCES user_profiles(user_id) ON DELETE CASCADE,
    game_id VARCHAR(64) NOT NULL,
    title VARCHAR(200) NOT NULL DEFAULT '',
    genre VARCHAR(50) NOT NULL DEFAULT '',
    played_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT unique_played_game UNIQUE (user_id, game_id)
);

-- Indexes for profile aggregation queries
CREATE INDEX IF NOT EXISTS idx_reviews_user_id ON reviews(user_id);
CREATE INDEX IF NOT EXISTS idx_connections_user_id ON connections(user_id);
CREATE INDEX IF NOT EXISTS idx_connections_user_status ON connections(user_id, status);
CREATE INDEX IF NOT EXISTS idx_played_games_user_id ON played_games(user_id);
`

const migrationAwardLedger = `
-- Each row is one awarded achievement. The unique constraint on
-- (user_id, achievement_id) is the arbiter for concurrent awards:
-- a duplicate insert fails with 23505 and the saga treats it as
-- "already awarded".
CREATE TABLE IF NOT EXISTS user_achievements (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id VARCHAR(64) NOT NULL,
    achievement_id VARCHAR(64) NOT NULL,
    points BIGINT NOT NULL DEFAULT 0,
    awarded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_points CHECK (points >= 0),
    CONSTRAINT unique_user_achievement UNIQUE (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_user_achievements_user_id ON user_achievements(user_id);
CREATE INDEX IF NOT EXISTS idx_user_achievements_awarded_at ON user_achievements(awarded_at);
`

const migrationUserScores = `
-- One row per user with at least one awarded achievement.
-- Score grows by atomic in-place increments; the leaderboard reads
-- this table ordered by (score DESC, user_id ASC).
CREATE TABLE IF NOT EXISTS user_scores (
    user_id VARCHAR(64) PRIMARY KEY,
    score BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_score CHECK (score >= 0)
);

-- Composite index matches the leaderboard ordering contract exactly
CREATE INDEX IF NOT EXISTS idx_user_scores_leaderboard ON user_scores(score DESC, user_id ASC);
`
