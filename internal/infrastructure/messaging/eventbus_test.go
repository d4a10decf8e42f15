package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestEventBus_DeliversToTypedAndWildcardHandlers(t *testing.T) {
	bus := newSyncBus()

	var typed, wildcard int
	require.NoError(t, bus.Subscribe(shared.EventAchievementAwarded, func(shared.Event) error {
		typed++
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		wildcard++
		return nil
	}))

	event := shared.NewLeaderboardRebuiltEvent(10, time.Second)
	require.NoError(t, bus.Publish(event))

	assert.Equal(t, 0, typed, "typed handler must not see other event types")
	assert.Equal(t, 1, wildcard)
}

func TestEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := newSyncBus()

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		return errors.New("projection down")
	}))

	err := bus.Publish(shared.NewLeaderboardRebuiltEvent(1, time.Millisecond))
	assert.NoError(t, err)
}

func TestEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewLeaderboardRebuiltEvent(1, time.Millisecond)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.NoError(t, bus.Close(), "double close is a no-op")
}

func TestEventBus_CloseWaitsForAsyncHandlers(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var mu sync.Mutex
	handled := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLeaderboardRebuiltEvent(1, time.Millisecond)))
	require.NoError(t, bus.Publish(shared.NewLeaderboardRebuiltEvent(2, time.Millisecond)))
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, handled)
}
