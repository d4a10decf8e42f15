package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDo_RetriesUntilSuccess(t *testing.T) {
	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
	)

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_TerminalErrorStopsImmediately(t *testing.T) {
	terminal := errors.New("terminal")
	r := New(
		WithMaxAttempts(5),
		WithInitialDelay(time.Millisecond),
		WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
	)

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return terminal
	})

	require.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, attempts)
}

func TestDo_ExhaustedAttemptsReturnLastError(t *testing.T) {
	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithRetryIf(func(error) bool { return true }),
	)

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, attempts)
}

func TestDo_NoPredicateMeansNoRetries(t *testing.T) {
	r := New(WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
}

func TestDatabaseRetrier_ExtraOptionsOverridePreset(t *testing.T) {
	r := DatabaseRetrier(
		WithInitialDelay(time.Millisecond),
		WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
	)

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts == 1 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}
