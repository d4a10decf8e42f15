package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAreUsable(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, 100, cfg.Scoring.DefaultTopLimit)
	assert.Equal(t, "04:00", cfg.Scheduler.SweepTime)
	assert.True(t, cfg.Scoring.FreshnessTTL <= cfg.Scoring.SnapshotTTL)
	require.NotNil(t, cfg.Features)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("SCORING_STATS_CACHE_TTL", "45s")
	t.Setenv("SCHEDULER_SWEEP_TIME", "02:30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Database.MaxConns)
	assert.Equal(t, 45*time.Second, cfg.Scoring.StatsCacheTTL)
	assert.Equal(t, "02:30", cfg.Scheduler.SweepTime)
}

func TestLoad_MalformedValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")
	t.Setenv("SCORING_SNAPSHOT_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Scoring.SnapshotTTL)
}

func TestValidate_RejectsBadConfig(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("ADMIN_TOKEN_HASH", "")

	// В production без DATABASE_URL и ADMIN_TOKEN_HASH запуск запрещён.
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "ADMIN_TOKEN_HASH")
}

func TestValidate_FreshnessMustNotExceedSnapshotTTL(t *testing.T) {
	t.Setenv("SCORING_FRESHNESS_TTL", "1h")
	t.Setenv("SCORING_SNAPSHOT_TTL", "10m")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCORING_FRESHNESS_TTL")
}
