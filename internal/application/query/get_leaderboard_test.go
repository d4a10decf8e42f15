package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeLeaderboardRepo struct {
	entries []*leaderboard.Entry
	failAll error
}

func (r *fakeLeaderboardRepo) ListTop(_ context.Context, limit int) ([]*leaderboard.Entry, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return r.entries[:limit], nil
}

func (r *fakeLeaderboardRepo) ListAll(context.Context) ([]*leaderboard.Entry, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	return r.entries, nil
}

func (r *fakeLeaderboardRepo) GetUserEntry(_ context.Context, userID shared.UserID) (*leaderboard.Entry, error) {
	for _, e := range r.entries {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeLeaderboardRepo) CountUsers(context.Context) (int, error) {
	if r.failAll != nil {
		return 0, r.failAll
	}
	return len(r.entries), nil
}

type fakeCache struct {
	snapshot  *leaderboard.Snapshot
	freshness leaderboard.Freshness
	getErr    error
}

func (c *fakeCache) GetSnapshot(context.Context) (*leaderboard.Snapshot, leaderboard.Freshness, error) {
	if c.getErr != nil {
		return nil, leaderboard.FreshnessMiss, c.getErr
	}
	return c.snapshot, c.freshness, nil
}

func (c *fakeCache) SetSnapshot(context.Context, *leaderboard.Snapshot, time.Duration) error {
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error { return nil }

type fakeRebuilder struct {
	snapshot *leaderboard.Snapshot
	err      error
	calls    int
}

func (r *fakeRebuilder) Rebuild(context.Context) (*leaderboard.Snapshot, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.snapshot, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func entry(userID string, score int64) *leaderboard.Entry {
	e, _ := leaderboard.NewEntry(shared.UserID(userID), "Player "+userID, shared.Score(score))
	return e
}

func snapshotOf(entries ...*leaderboard.Entry) *leaderboard.Snapshot {
	ranking := leaderboard.NewRanking()
	for _, e := range entries {
		_ = ranking.Add(e)
	}
	return leaderboard.NewSnapshot(ranking)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestGetLeaderboard_ServesFreshSnapshot(t *testing.T) {
	cache := &fakeCache{
		snapshot:  snapshotOf(entry("u1", 1000), entry("u2", 500)),
		freshness: leaderboard.FreshnessFresh,
	}
	rebuilder := &fakeRebuilder{}
	handler := NewGetLeaderboardHandler(&fakeLeaderboardRepo{}, cache, rebuilder, nil)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, "cache", result.Source)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "u1", result.Entries[0].UserID)
	assert.Equal(t, int64(1000), result.Entries[0].Score)
	assert.Equal(t, 0, rebuilder.calls, "свежий кеш не должен запускать пересборку")
}

func TestGetLeaderboard_StaleTriggersRebuild(t *testing.T) {
	cache := &fakeCache{
		snapshot:  snapshotOf(entry("u1", 1000)),
		freshness: leaderboard.FreshnessStale,
	}
	rebuilder := &fakeRebuilder{
		snapshot: snapshotOf(entry("u1", 2000), entry("u2", 500)),
	}
	handler := NewGetLeaderboardHandler(&fakeLeaderboardRepo{}, cache, rebuilder, nil)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, "rebuild", result.Source)
	assert.Equal(t, 1, rebuilder.calls)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, int64(2000), result.Entries[0].Score)
}

func TestGetLeaderboard_RebuildFailureFallsBackToStorage(t *testing.T) {
	cache := &fakeCache{freshness: leaderboard.FreshnessMiss}
	rebuilder := &fakeRebuilder{err: errors.New("redis write failed")}
	repo := &fakeLeaderboardRepo{entries: []*leaderboard.Entry{
		entry("u1", 1000),
		entry("u2", 500),
		entry("u3", 100),
	}}
	handler := NewGetLeaderboardHandler(repo, cache, rebuilder, nil)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, "database", result.Source)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, 3, result.TotalUsers)
}

func TestGetLeaderboard_CacheErrorIsNotFatal(t *testing.T) {
	cache := &fakeCache{getErr: errors.New("connection refused")}
	rebuilder := &fakeRebuilder{snapshot: snapshotOf(entry("u1", 1000))}
	handler := NewGetLeaderboardHandler(&fakeLeaderboardRepo{}, cache, rebuilder, nil)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "rebuild", result.Source)
}

func TestGetLeaderboard_RejectsNonPositiveLimit(t *testing.T) {
	handler := NewGetLeaderboardHandler(&fakeLeaderboardRepo{}, &fakeCache{}, &fakeRebuilder{}, nil)

	for _, limit := range []int{0, -1, -100} {
		_, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: limit})
		require.Error(t, err, "limit %d", limit)
		assert.True(t, shared.IsValidation(err))
	}
}

func TestGetLeaderboard_LimitClampedToAvailable(t *testing.T) {
	cache := &fakeCache{
		snapshot:  snapshotOf(entry("u1", 1000), entry("u2", 500), entry("u3", 100)),
		freshness: leaderboard.FreshnessFresh,
	}
	handler := NewGetLeaderboardHandler(&fakeLeaderboardRepo{}, cache, &fakeRebuilder{}, nil)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 100000})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 3)
}

func TestGetLeaderboard_TiesShareRankOrderedByUserID(t *testing.T) {
	cache := &fakeCache{
		snapshot:  snapshotOf(entry("b", 500), entry("a", 500), entry("c", 1000)),
		freshness: leaderboard.FreshnessFresh,
	}
	handler := NewGetLeaderboardHandler(&fakeLeaderboardRepo{}, cache, &fakeRebuilder{}, nil)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "c", result.Entries[0].UserID)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, "a", result.Entries[1].UserID)
	assert.Equal(t, "b", result.Entries[2].UserID)
	assert.Equal(t, result.Entries[1].Rank, result.Entries[2].Rank)
}

func TestGetLeaderboard_StorageFailureIsUnavailable(t *testing.T) {
	cache := &fakeCache{freshness: leaderboard.FreshnessMiss}
	rebuilder := &fakeRebuilder{err: errors.New("rebuild failed")}
	repo := &fakeLeaderboardRepo{failAll: errors.New("db down")}
	handler := NewGetLeaderboardHandler(repo, cache, rebuilder, nil)

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.Error(t, err)
	assert.True(t, shared.IsUnavailable(err))
}
