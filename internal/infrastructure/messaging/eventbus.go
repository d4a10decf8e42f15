// Package messaging implements the in-process event bus for the GameSphere
// scoring service. Award and scoring events fan out to handlers here; the
// cache freshness flag, not pub/sub, carries cross-instance signals.
package messaging

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ErrEventBusClosed is returned when publishing or subscribing on a closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")

var (
	eventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamesphere",
		Subsystem: "eventbus",
		Name:      "events_published_total",
		Help:      "Events published to the in-process bus, by event type.",
	}, []string{"event_type"})

	handlerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamesphere",
		Subsystem: "eventbus",
		Name:      "handler_failures_total",
		Help:      "Event handler invocations that returned an error, by event type.",
	}, []string{"event_type"})
)

// InMemoryEventBusConfig configures the bus.
type InMemoryEventBusConfig struct {
	// AsyncMode dispatches handlers on the worker pool instead of inline.
	AsyncMode bool

	// WorkerPoolSize bounds concurrent async handler invocations.
	WorkerPoolSize int

	// Logger for handler errors and lifecycle events.
	Logger *slog.Logger
}

// DefaultInMemoryEventBusConfig returns the production defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
	}
}

// InMemoryEventBus fans events out to subscribed handlers. Handler errors
// are logged and counted, never propagated to the publisher: a failing
// projection must not fail the award that triggered it.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[shared.EventType][]shared.EventHandler
	wildcard []shared.EventHandler
	closed   bool

	async   bool
	sem     chan struct{}
	closeCh chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewInMemoryEventBus creates a bus from the given configuration.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	return &InMemoryEventBus{
		byType:  make(map[shared.EventType][]shared.EventHandler),
		async:   config.AsyncMode,
		sem:     make(chan struct{}, config.WorkerPoolSize),
		closeCh: make(chan struct{}),
		logger:  config.Logger,
	}
}

// Subscribe registers a handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.byType[eventType] = append(b.byType[eventType], handler)
	return nil
}

// SubscribeAll registers a handler that receives every event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.wildcard = append(b.wildcard, handler)
	return nil
}

// Publish delivers the event to every matching handler.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.byType[event.EventType()])+len(b.wildcard))
	handlers = append(handlers, b.byType[event.EventType()]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	eventsPublishedTotal.WithLabelValues(string(event.EventType())).Inc()

	if len(handlers) == 0 {
		return nil
	}

	for _, handler := range handlers {
		if b.async {
			b.dispatchAsync(event, handler)
		} else {
			b.invoke(event, handler)
		}
	}
	return nil
}

// Close stops accepting events and waits for in-flight handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus closed")
	return nil
}

func (b *InMemoryEventBus) dispatchAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case b.sem <- struct{}{}:
			defer func() { <-b.sem }()
		case <-b.closeCh:
			return
		}

		b.invoke(event, handler)
	}()
}

func (b *InMemoryEventBus) invoke(event shared.Event, handler shared.EventHandler) {
	start := time.Now()
	if err := handler(event); err != nil {
		handlerFailuresTotal.WithLabelValues(string(event.EventType())).Inc()
		b.logger.Error("event handler failed",
			"event_type", event.EventType(),
			"duration", time.Since(start),
			"error", err,
		)
	}
}
