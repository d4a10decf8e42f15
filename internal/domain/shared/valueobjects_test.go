package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    UserID
		wantErr bool
	}{
		{name: "simple", input: "u1", want: "u1"},
		{name: "trims whitespace", input: "  player-42  ", want: "player-42"},
		{name: "underscores allowed", input: "user_name", want: "user_name"},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "blank rejected", input: "   ", wantErr: true},
		{name: "leading dash rejected", input: "-user", wantErr: true},
		{name: "spaces inside rejected", input: "user name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLimit(t *testing.T) {
	limit, err := NewLimit(50)
	require.NoError(t, err)
	assert.Equal(t, 50, limit.Int())

	for _, n := range []int{0, -1, -100} {
		_, err := NewLimit(n)
		require.Error(t, err, "limit %d", n)
		assert.True(t, errors.Is(err, ErrInvalidLimit))
	}
}

func TestNewPoints(t *testing.T) {
	p, err := NewPoints(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.Int64())

	p, err = NewPoints(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Int64())

	_, err = NewPoints(-1)
	require.Error(t, err)
}

func TestScoreAdd(t *testing.T) {
	var s Score
	s = s.Add(Points(1000))
	s = s.Add(Points(500))
	assert.Equal(t, int64(1500), s.Int64())
	assert.True(t, s.IsValid())
}

func TestGenreNormalize(t *testing.T) {
	assert.Equal(t, Genre("rpg"), Genre("  RPG ").Normalize())
	assert.Equal(t, Genre("strategy"), Genre("Strategy").Normalize())
	assert.True(t, Genre("   ").IsBlank())
	assert.True(t, Genre("").IsBlank())
	assert.False(t, Genre("rpg").IsBlank())
}

func TestNewAction(t *testing.T) {
	tests := []struct {
		input string
		want  Action
	}{
		{input: "GET_LEADERBOARD", want: ActionGetLeaderboard},
		{input: "check_achievements", want: ActionCheckAchievements},
		{input: "  Get_User_Stats  ", want: ActionGetUserStats},
	}
	for _, tt := range tests {
		got, err := NewAction(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewAction_Unsupported(t *testing.T) {
	for _, input := range []string{"DELETE_USER", "", "get leaderboard"} {
		_, err := NewAction(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, errors.Is(err, ErrUnsupportedAction))
		assert.True(t, IsValidation(err))
	}
}

func TestErrorPredicates(t *testing.T) {
	notFound := WrapError("profile", "GetByUserID", ErrNotFound, "profile missing", ErrProfileNotFound)
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsRetryable(notFound))

	conflict := NewDomainError("scoring", "IncrementScore", ErrConcurrentModification, "concurrent update")
	assert.True(t, IsConflict(conflict))
	assert.True(t, IsRetryable(conflict))

	unavailable := NewDomainError("leaderboard", "ListTop", ErrServiceUnavailable, "storage down")
	assert.True(t, IsUnavailable(unavailable))
	assert.True(t, IsRetryable(unavailable))

	validation := NewDomainError("shared", "NewLimit", ErrValidation, "bad limit")
	assert.True(t, IsValidation(validation))
	assert.False(t, IsRetryable(validation))
}
