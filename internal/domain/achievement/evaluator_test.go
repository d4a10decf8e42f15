package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/stats"
)

func testSnapshot(reviews, connections, genres int) stats.Snapshot {
	return stats.Snapshot{
		UserID:           "user-1",
		ReviewCount:      reviews,
		ConnectionCount:  connections,
		UniqueGenreCount: genres,
	}
}

func TestEvaluate_SingleQualification(t *testing.T) {
	catalog := SeedCatalog()

	// 100 обзоров проходят порог GAME_MASTER, остальные метрики ниже порогов
	qualified := Evaluate(catalog, testSnapshot(100, 10, 3), nil)

	require.Len(t, qualified, 1)
	assert.Equal(t, shared.AchievementID("GAME_MASTER"), qualified[0].ID)
	assert.Equal(t, shared.Points(1000), TotalPoints(qualified))
}

func TestEvaluate_ExactThresholdQualifies(t *testing.T) {
	catalog := SeedCatalog()

	qualified := Evaluate(catalog, testSnapshot(0, 50, 0), nil)

	require.Len(t, qualified, 1)
	assert.Equal(t, shared.AchievementID("SOCIAL_BUTTERFLY"), qualified[0].ID)
}

func TestEvaluate_BelowThreshold(t *testing.T) {
	catalog := SeedCatalog()

	qualified := Evaluate(catalog, testSnapshot(99, 49, 9), nil)

	assert.Empty(t, qualified)
}

func TestEvaluate_ExcludesAlreadyAwarded(t *testing.T) {
	catalog := SeedCatalog()
	awarded := NewAwardedSet([]shared.AchievementID{"GAME_MASTER"})

	qualified := Evaluate(catalog, testSnapshot(100, 10, 3), awarded)

	assert.Empty(t, qualified)
}

func TestEvaluate_MultipleQualifications_CatalogOrder(t *testing.T) {
	catalog := SeedCatalog()

	qualified := Evaluate(catalog, testSnapshot(150, 60, 12), nil)

	require.Len(t, qualified, 3)
	assert.Equal(t, shared.AchievementID("GAME_MASTER"), qualified[0].ID)
	assert.Equal(t, shared.AchievementID("SOCIAL_BUTTERFLY"), qualified[1].ID)
	assert.Equal(t, shared.AchievementID("GENRE_EXPLORER"), qualified[2].ID)
	assert.Equal(t, shared.Points(1800), TotalPoints(qualified))
}

func TestEvaluate_Deterministic(t *testing.T) {
	catalog := SeedCatalog()
	snapshot := testSnapshot(150, 60, 12)
	awarded := NewAwardedSet([]shared.AchievementID{"SOCIAL_BUTTERFLY"})

	first := Evaluate(catalog, snapshot, awarded)
	second := Evaluate(catalog, snapshot, awarded)

	assert.Equal(t, first, second)
}

func TestEvaluate_DoesNotMutateInputs(t *testing.T) {
	catalog := SeedCatalog()
	awarded := NewAwardedSet([]shared.AchievementID{"GENRE_EXPLORER"})

	_ = Evaluate(catalog, testSnapshot(100, 50, 10), awarded)

	assert.Equal(t, 3, catalog.Count())
	assert.Len(t, awarded, 1)
	assert.True(t, awarded.Contains("GENRE_EXPLORER"))
}

func TestEvaluate_EmptyCatalog(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)

	qualified := Evaluate(catalog, testSnapshot(1000, 1000, 1000), nil)

	assert.Empty(t, qualified)
}

func TestEvaluate_NilAwardedSet(t *testing.T) {
	catalog := SeedCatalog()

	// nil множество означает "ничего не выдано"
	qualified := Evaluate(catalog, testSnapshot(0, 0, 10), nil)

	require.Len(t, qualified, 1)
	assert.Equal(t, shared.AchievementID("GENRE_EXPLORER"), qualified[0].ID)
}
