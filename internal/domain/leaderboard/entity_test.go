package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

func mustEntry(t *testing.T, userID string, score int64) *Entry {
	t.Helper()
	e, err := NewEntry(shared.UserID(userID), userID, shared.Score(score))
	require.NoError(t, err)
	return e
}

func TestNewEntry_Validation(t *testing.T) {
	_, err := NewEntry("", "anon", 100)
	assert.ErrorIs(t, err, ErrInvalidEntryUserID)

	_, err = NewEntry("user-1", "Player", -1)
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestRanking_Sort_ScoreDescending(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(mustEntry(t, "alice", 500)))
	require.NoError(t, r.Add(mustEntry(t, "bob", 1500)))
	require.NoError(t, r.Add(mustEntry(t, "carol", 1000)))

	r.Sort()

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, shared.UserID("bob"), all[0].UserID)
	assert.Equal(t, shared.UserID("carol"), all[1].UserID)
	assert.Equal(t, shared.UserID("alice"), all[2].UserID)
}

func TestRanking_Sort_TiesByAscendingUserID(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(mustEntry(t, "zeta", 1000)))
	require.NoError(t, r.Add(mustEntry(t, "alpha", 1000)))
	require.NoError(t, r.Add(mustEntry(t, "mike", 1000)))

	r.Sort()

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, shared.UserID("alpha"), all[0].UserID)
	assert.Equal(t, shared.UserID("mike"), all[1].UserID)
	assert.Equal(t, shared.UserID("zeta"), all[2].UserID)
}

func TestRanking_Sort_SharedRankForEqualScores(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(mustEntry(t, "alice", 1000)))
	require.NoError(t, r.Add(mustEntry(t, "bob", 1000)))
	require.NoError(t, r.Add(mustEntry(t, "carol", 500)))

	r.Sort()

	all := r.All()
	assert.Equal(t, shared.Rank(1), all[0].Rank)
	assert.Equal(t, shared.Rank(1), all[1].Rank)
	assert.Equal(t, shared.Rank(3), all[2].Rank)
}

func TestRanking_Add_RejectsDuplicates(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(mustEntry(t, "alice", 100)))

	err := r.Add(mustEntry(t, "alice", 200))
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestRanking_Top_ClampsToSize(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(mustEntry(t, "alice", 300)))
	require.NoError(t, r.Add(mustEntry(t, "bob", 200)))
	require.NoError(t, r.Add(mustEntry(t, "carol", 100)))
	r.Sort()

	top := r.Top(100000)
	assert.Len(t, top, 3)

	top = r.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, shared.UserID("alice"), top[0].UserID)

	assert.Nil(t, r.Top(0))
}

func TestSnapshot_FromRanking(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(mustEntry(t, "bob", 500)))
	require.NoError(t, r.Add(mustEntry(t, "alice", 1000)))

	s := NewSnapshot(r)

	assert.Equal(t, 2, s.TotalUsers)
	require.Len(t, s.Entries, 2)
	assert.Equal(t, shared.UserID("alice"), s.Entries[0].UserID)
	assert.True(t, s.Covers(2))
	assert.True(t, s.Covers(100000)) // содержит всех пользователей
}

func TestSnapshot_Top(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(mustEntry(t, "alice", 1000)))
	require.NoError(t, r.Add(mustEntry(t, "bob", 500)))
	s := NewSnapshot(r)

	top := s.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, shared.UserID("alice"), top[0].UserID)

	assert.Len(t, s.Top(10), 2)
	assert.Nil(t, s.Top(0))
}
