package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/profile"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

func TestAggregate_EmptyProfile(t *testing.T) {
	p, err := profile.NewProfile("user-1", "Player One")
	require.NoError(t, err)

	s := Aggregate(p)

	assert.Equal(t, shared.UserID("user-1"), s.UserID)
	assert.True(t, s.IsZero())
	assert.True(t, s.IsValid())
}

func TestAggregate_NilProfile(t *testing.T) {
	s := Aggregate(nil)

	assert.True(t, s.IsZero())
}

func TestAggregate_CountsReviews(t *testing.T) {
	p, _ := profile.NewProfile("user-1", "Player One")
	p.Reviews = []profile.Review{
		{ID: "r1", GameID: "g1", Rating: 5},
		{ID: "r2", GameID: "g2", Rating: 3},
		{ID: "r3", GameID: "g3", Rating: 4},
	}

	s := Aggregate(p)

	assert.Equal(t, 3, s.ReviewCount)
}

func TestAggregate_CountsOnlyAcceptedConnections(t *testing.T) {
	p, _ := profile.NewProfile("user-1", "Player One")
	p.Connections = []profile.Connection{
		{ID: "c1", PeerID: "user-2", Status: profile.ConnectionAccepted},
		{ID: "c2", PeerID: "user-3", Status: profile.ConnectionPending},
		{ID: "c3", PeerID: "user-4", Status: profile.ConnectionDeclined},
		{ID: "c4", PeerID: "user-5", Status: profile.ConnectionAccepted},
	}

	s := Aggregate(p)

	assert.Equal(t, 2, s.ConnectionCount)
}

func TestAggregate_UniqueGenres_CaseInsensitive(t *testing.T) {
	p, _ := profile.NewProfile("user-1", "Player One")
	p.PlayedGames = []profile.PlayedGame{
		{GameID: "g1", Genre: "RPG"},
		{GameID: "g2", Genre: "rpg"},
		{GameID: "g3", Genre: " Rpg "},
		{GameID: "g4", Genre: "Strategy"},
	}

	s := Aggregate(p)

	assert.Equal(t, 2, s.UniqueGenreCount)
}

func TestAggregate_IgnoresBlankGenres(t *testing.T) {
	p, _ := profile.NewProfile("user-1", "Player One")
	p.PlayedGames = []profile.PlayedGame{
		{GameID: "g1", Genre: ""},
		{GameID: "g2", Genre: "   "},
		{GameID: "g3", Genre: "Shooter"},
	}

	s := Aggregate(p)

	assert.Equal(t, 1, s.UniqueGenreCount)
}

func TestAggregate_Deterministic(t *testing.T) {
	p, _ := profile.NewProfile("user-1", "Player One")
	p.Reviews = []profile.Review{{ID: "r1"}}
	p.Connections = []profile.Connection{{ID: "c1", Status: profile.ConnectionAccepted}}
	p.PlayedGames = []profile.PlayedGame{{GameID: "g1", Genre: "RPG"}}

	first := Aggregate(p)
	second := Aggregate(p)

	assert.Equal(t, first.ReviewCount, second.ReviewCount)
	assert.Equal(t, first.ConnectionCount, second.ConnectionCount)
	assert.Equal(t, first.UniqueGenreCount, second.UniqueGenreCount)
}
