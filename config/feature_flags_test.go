package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_DefaultsAreFullyEnabled(t *testing.T) {
	ff := LoadFeatureFlags()

	for _, name := range []string{FeatureLeaderboardCache, FeatureStatsCache, FeatureAchievementSweep, FeatureDispatchEndpoint} {
		assert.True(t, ff.IsEnabled(name), name)
		assert.True(t, ff.IsEnabledFor(name, "player-1"), name)
	}
	assert.False(t, ff.IsEnabled("no.such.feature"))
}

func TestFeatureFlags_EnvOverrides(t *testing.T) {
	t.Setenv("FEATURE_API_DISPATCH", "false")
	t.Setenv("FEATURE_STATS_CACHE", "25")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureDispatchEndpoint))
	assert.True(t, ff.IsEnabled(FeatureStatsCache))
	assert.Equal(t, 25, ff.GetAllFeatures()[FeatureStatsCache].RolloutPercent)
}

func TestFeatureFlags_RolloutBucketsAreStable(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureDispatchEndpoint, 50))

	first := ff.IsEnabledFor(FeatureDispatchEndpoint, "player-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabledFor(FeatureDispatchEndpoint, "player-42"))
	}

	// Частичный rollout без идентификатора пользователя закрыт.
	assert.False(t, ff.IsEnabledFor(FeatureDispatchEndpoint, ""))
}

func TestFeatureFlags_SetRolloutPercent(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureStatsCache, 101), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.SetRolloutPercent("no.such.feature", 10), ErrFeatureNotFound)

	require.NoError(t, ff.SetRolloutPercent(FeatureStatsCache, 0))
	assert.False(t, ff.IsEnabled(FeatureStatsCache))

	require.NoError(t, ff.EnableFeature(FeatureStatsCache))
	assert.True(t, ff.IsEnabledFor(FeatureStatsCache, "anyone"))
}
