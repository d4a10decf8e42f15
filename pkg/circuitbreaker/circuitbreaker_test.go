package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func failing(context.Context) error    { return errBackend }
func succeeding(context.Context) error { return nil }

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), failing)
		require.ErrorIs(t, err, errBackend)
	}

	assert.Equal(t, StateOpen, cb.State())
	err := cb.Execute(context.Background(), succeeding)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), failing)
	require.NoError(t, cb.Execute(context.Background(), succeeding))
	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), failing)

	assert.Equal(t, StateClosed, cb.State())
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	transitions := make([]State, 0, 4)
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithCooldown(5*time.Millisecond),
		WithMaxHalfOpenCalls(2),
		WithOnStateChange(func(_ string, _, to State) {
			transitions = append(transitions, to)
		}),
	)

	_ = cb.Execute(context.Background(), failing)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(10 * time.Millisecond)

	require.NoError(t, cb.Execute(context.Background(), succeeding))
	require.NoError(t, cb.Execute(context.Background(), succeeding))

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestFailedProbeReopens(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithCooldown(5*time.Millisecond),
	)

	_ = cb.Execute(context.Background(), failing)
	time.Sleep(10 * time.Millisecond)

	err := cb.Execute(context.Background(), failing)
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, StateOpen, cb.State())
}
