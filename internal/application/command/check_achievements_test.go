package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesphere/gamesphere-scoring/internal/application/saga"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/achievement"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/profile"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/scoring"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

type fakeProfileRepo struct {
	profiles map[shared.UserID]*profile.Profile
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID shared.UserID) (*profile.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) Exists(_ context.Context, userID shared.UserID) (bool, error) {
	_, ok := r.profiles[userID]
	return ok, nil
}

func (r *fakeProfileRepo) ListUserIDs(context.Context) ([]shared.UserID, error) {
	return nil, nil
}

type fakeAwardRepo struct {
	awarded map[shared.UserID]map[shared.AchievementID]bool
}

func (r *fakeAwardRepo) InsertIfAbsent(_ context.Context, record scoring.AwardRecord) (bool, error) {
	if r.awarded[record.UserID] == nil {
		r.awarded[record.UserID] = make(map[shared.AchievementID]bool)
	}
	if r.awarded[record.UserID][record.AchievementID] {
		return false, nil
	}
	r.awarded[record.UserID][record.AchievementID] = true
	return true, nil
}

func (r *fakeAwardRepo) ListAwarded(_ context.Context, userID shared.UserID) ([]shared.AchievementID, error) {
	ids := make([]shared.AchievementID, 0, len(r.awarded[userID]))
	for id := range r.awarded[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeScoreRepo struct {
	scores map[shared.UserID]shared.Score
}

func (r *fakeScoreRepo) IncrementScore(_ context.Context, userID shared.UserID, delta shared.Points) (shared.Score, error) {
	r.scores[userID] += shared.Score(delta)
	return r.scores[userID], nil
}

func (r *fakeScoreRepo) GetScore(_ context.Context, userID shared.UserID) (shared.Score, error) {
	return r.scores[userID], nil
}

func reviewHeavyProfile(userID string, reviews int) *profile.Profile {
	p := &profile.Profile{
		UserID:      shared.UserID(userID),
		DisplayName: "Player " + userID,
		UpdatedAt:   time.Now().UTC(),
	}
	for i := 0; i < reviews; i++ {
		p.Reviews = append(p.Reviews, profile.Review{
			ID:        "r",
			GameID:    "g",
			Rating:    5,
			CreatedAt: time.Now().UTC(),
		})
	}
	return p
}

func newHandler(profiles *fakeProfileRepo) *CheckAchievementsHandler {
	flow := saga.NewAwardFlowSaga(
		profiles,
		&fakeAwardRepo{awarded: make(map[shared.UserID]map[shared.AchievementID]bool)},
		&fakeScoreRepo{scores: make(map[shared.UserID]shared.Score)},
		achievement.SeedCatalog(),
		nil, nil, nil, nil,
	)
	return NewCheckAchievementsHandler(flow)
}

func TestCheckAchievements_AwardCarriesCatalogSummary(t *testing.T) {
	handler := newHandler(&fakeProfileRepo{profiles: map[shared.UserID]*profile.Profile{
		"u1": reviewHeavyProfile("u1", 100),
	}})

	result, err := handler.Handle(context.Background(), CheckAchievementsCommand{UserID: "u1"})
	require.NoError(t, err)

	// Ответ содержит полное описание достижения из каталога.
	require.Len(t, result.NewlyAwarded, 1)
	award := result.NewlyAwarded[0]
	assert.Equal(t, "GAME_MASTER", award.AchievementID)
	assert.Equal(t, "Game Master", award.Title)
	assert.Equal(t, "Write 100 game reviews", award.Description)
	assert.Equal(t, int64(1000), award.Points)
	assert.Equal(t, int64(1000), result.Score)
}

func TestCheckAchievements_InvalidUserID(t *testing.T) {
	handler := newHandler(&fakeProfileRepo{profiles: map[shared.UserID]*profile.Profile{}})

	_, err := handler.Handle(context.Background(), CheckAchievementsCommand{UserID: ""})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}
