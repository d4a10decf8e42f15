package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(10*time.Minute), s.Next(now))
	assert.Equal(t, "@every 10m0s", s.String())
}

func TestDailySchedule_NextSameDay(t *testing.T) {
	s, err := NewDailySchedule(4, 0, time.UTC)
	require.NoError(t, err)

	now := time.Date(2026, 8, 29, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 29, 4, 0, 0, 0, time.UTC), s.Next(now))
}

func TestDailySchedule_RollsToNextDay(t *testing.T) {
	s, err := NewDailySchedule(4, 0, time.UTC)
	require.NoError(t, err)

	// Точное совпадение и более позднее время переносятся на завтра.
	at := time.Date(2026, 8, 29, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 30, 4, 0, 0, 0, time.UTC), s.Next(at))

	after := time.Date(2026, 8, 29, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 30, 4, 0, 0, 0, time.UTC), s.Next(after))
}

func TestParseDailyTime(t *testing.T) {
	s, err := ParseDailyTime("04:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Hour)
	assert.Equal(t, 30, s.Minute)
	assert.Equal(t, "daily at 04:30", s.String())

	for _, spec := range []string{"", "4", "25:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := ParseDailyTime(spec, time.UTC)
		assert.Error(t, err, "spec %q", spec)
	}
}
