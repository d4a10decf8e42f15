package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/profile"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/scoring"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/stats"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

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
	ids := make([]shared.UserID, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeAwardRepo struct {
	awarded map[shared.UserID][]shared.AchievementID
	failErr error
}

func (r *fakeAwardRepo) InsertIfAbsent(context.Context, scoring.AwardRecord) (bool, error) {
	return false, errors.New("not used by queries")
}

func (r *fakeAwardRepo) ListAwarded(_ context.Context, userID shared.UserID) ([]shared.AchievementID, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	return r.awarded[userID], nil
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

type fakeStatsCache struct {
	snapshots map[string]*stats.Snapshot
	getErr    error
	setCalls  int
}

func (c *fakeStatsCache) Get(_ context.Context, userID string) (*stats.Snapshot, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.snapshots[userID], nil
}

func (c *fakeStatsCache) Set(_ context.Context, snapshot *stats.Snapshot, _ time.Duration) error {
	c.setCalls++
	if c.snapshots == nil {
		c.snapshots = make(map[string]*stats.Snapshot)
	}
	c.snapshots[string(snapshot.UserID)] = snapshot
	return nil
}

func (c *fakeStatsCache) Invalidate(_ context.Context, userID string) error {
	delete(c.snapshots, userID)
	return nil
}

// statsProfile собирает профиль с заданными метриками.
func statsProfile(userID string, reviews, connections, genres int) *profile.Profile {
	p := &profile.Profile{
		UserID:      shared.UserID(userID),
		DisplayName: "Player " + userID,
		UpdatedAt:   time.Now().UTC(),
	}
	for i := 0; i < reviews; i++ {
		p.Reviews = append(p.Reviews, profile.Review{
			ID:        userID + "-r",
			GameID:    "game-1",
			Rating:    5,
			CreatedAt: time.Now().UTC(),
		})
	}
	for i := 0; i < connections; i++ {
		p.Connections = append(p.Connections, profile.Connection{
			ID:        "conn",
			PeerID:    "peer",
			Status:    profile.ConnectionAccepted,
			CreatedAt: time.Now().UTC(),
		})
	}
	genreNames := []shared.Genre{"RPG", "Strategy", "Shooter", "Puzzle", "Racing", "Horror", "Platformer", "Simulation", "Sports", "Fighting"}
	for i := 0; i < genres && i < len(genreNames); i++ {
		p.PlayedGames = append(p.PlayedGames, profile.PlayedGame{
			GameID:   "game",
			Title:    "Game",
			Genre:    genreNames[i],
			PlayedAt: time.Now().UTC(),
		})
	}
	return p
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestGetUserStats_ComputesFromProfile(t *testing.T) {
	profiles := &fakeProfileRepo{profiles: map[shared.UserID]*profile.Profile{
		"u1": statsProfile("u1", 100, 10, 3),
	}}
	awards := &fakeAwardRepo{awarded: map[shared.UserID][]shared.AchievementID{
		"u1": {"GAME_MASTER"},
	}}
	scores := &fakeScoreRepo{scores: map[shared.UserID]shared.Score{"u1": 1000}}

	handler := NewGetUserStatsHandler(profiles, awards, scores, nil, nil)

	result, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 100, result.ReviewCount)
	assert.Equal(t, 10, result.ConnectionCount)
	assert.Equal(t, 3, result.UniqueGenreCount)
	assert.Equal(t, int64(1000), result.Score)
	assert.Equal(t, []string{"GAME_MASTER"}, result.AwardedAchievements)
	assert.False(t, result.FromCache)
}

func TestGetUserStats_ServesCachedSnapshot(t *testing.T) {
	cached := &stats.Snapshot{
		UserID:           "u1",
		ReviewCount:      42,
		ConnectionCount:  7,
		UniqueGenreCount: 2,
		ComputedAt:       time.Now().UTC(),
	}
	cache := &fakeStatsCache{snapshots: map[string]*stats.Snapshot{"u1": cached}}
	// Профиль намеренно отсутствует: при попадании в кеш он не читается.
	profiles := &fakeProfileRepo{profiles: map[shared.UserID]*profile.Profile{}}
	awards := &fakeAwardRepo{awarded: map[shared.UserID][]shared.AchievementID{}}
	scores := &fakeScoreRepo{scores: map[shared.UserID]shared.Score{}}

	handler := NewGetUserStatsHandler(profiles, awards, scores, cache, nil)

	result, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.True(t, result.FromCache)
	assert.Equal(t, 42, result.ReviewCount)
	assert.Equal(t, 0, cache.setCalls)
}

func TestGetUserStats_MissPopulatesCache(t *testing.T) {
	cache := &fakeStatsCache{}
	profiles := &fakeProfileRepo{profiles: map[shared.UserID]*profile.Profile{
		"u1": statsProfile("u1", 5, 2, 1),
	}}
	awards := &fakeAwardRepo{awarded: map[shared.UserID][]shared.AchievementID{}}
	scores := &fakeScoreRepo{scores: map[shared.UserID]shared.Score{}}

	handler := NewGetUserStatsHandler(profiles, awards, scores, cache, nil)

	result, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	assert.Equal(t, 1, cache.setCalls)
	require.NotNil(t, cache.snapshots["u1"])
	assert.Equal(t, 5, cache.snapshots["u1"].ReviewCount)
}

func TestGetUserStats_CacheErrorFallsBackToProfile(t *testing.T) {
	cache := &fakeStatsCache{getErr: errors.New("connection refused")}
	profiles := &fakeProfileRepo{profiles: map[shared.UserID]*profile.Profile{
		"u1": statsProfile("u1", 3, 0, 0),
	}}
	awards := &fakeAwardRepo{awarded: map[shared.UserID][]shared.AchievementID{}}
	scores := &fakeScoreRepo{scores: map[shared.UserID]shared.Score{}}

	handler := NewGetUserStatsHandler(profiles, awards, scores, cache, nil)

	result, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ReviewCount)
	assert.False(t, result.FromCache)
}

func TestGetUserStats_ProfileNotFound(t *testing.T) {
	handler := NewGetUserStatsHandler(
		&fakeProfileRepo{profiles: map[shared.UserID]*profile.Profile{}},
		&fakeAwardRepo{},
		&fakeScoreRepo{scores: map[shared.UserID]shared.Score{}},
		nil, nil,
	)

	_, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: "ghost"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetUserStats_InvalidUserID(t *testing.T) {
	handler := NewGetUserStatsHandler(
		&fakeProfileRepo{},
		&fakeAwardRepo{},
		&fakeScoreRepo{},
		nil, nil,
	)

	_, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: "   "})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestGetUserStats_UserWithoutAwardsHasZeroScore(t *testing.T) {
	profiles := &fakeProfileRepo{profiles: map[shared.UserID]*profile.Profile{
		"u1": statsProfile("u1", 1, 0, 0),
	}}
	handler := NewGetUserStatsHandler(
		profiles,
		&fakeAwardRepo{awarded: map[shared.UserID][]shared.AchievementID{}},
		&fakeScoreRepo{scores: map[shared.UserID]shared.Score{}},
		nil, nil,
	)

	result, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Score)
	assert.Empty(t, result.AwardedAchievements)
}
