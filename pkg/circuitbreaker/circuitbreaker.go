// Package circuitbreaker implements the Circuit Breaker pattern for fault tolerance.
// It protects read paths from a flapping cache: once Redis starts failing,
// reads short-circuit straight to the database instead of paying the
// timeout on every request.
// No external dependencies - uses only standard library.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed is the normal state, calls pass through.
	StateClosed State = iota
	// StateOpen blocks calls until the cooldown elapses.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls test recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned while the circuit blocks calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget is spent.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config holds circuit breaker behaviour.
type Config struct {
	// Name identifies the breaker in state-change callbacks.
	Name string

	// FailureThreshold is how many consecutive failures open the circuit.
	FailureThreshold int

	// SuccessThreshold is how many half-open successes close it again.
	SuccessThreshold int

	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration

	// MaxHalfOpenCalls bounds concurrent probes in the half-open state.
	MaxHalfOpenCalls int

	// OnStateChange is called on every state transition.
	OnStateChange func(name string, from, to State)
}

// Option mutates the Config during construction.
type Option func(*Config)

// WithFailureThreshold sets the consecutive-failure limit.
func WithFailureThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FailureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the successes needed to close from half-open.
func WithSuccessThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SuccessThreshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open.
func WithCooldown(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Cooldown = d
		}
	}
}

// WithMaxHalfOpenCalls sets the half-open probe budget.
func WithMaxHalfOpenCalls(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxHalfOpenCalls = n
		}
	}
}

// WithOnStateChange installs the transition callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *Config) {
		c.OnStateChange = fn
	}
}

// CircuitBreaker tracks consecutive failures and gates calls accordingly.
type CircuitBreaker struct {
	config Config

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	halfOpenCalls int
	openedAt      time.Time
}

// New creates a CircuitBreaker. Defaults: open after 5 consecutive failures,
// close after 2 half-open successes, 30s cooldown, 1 probe at a time.
func New(name string, opts ...Option) *CircuitBreaker {
	config := Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
		MaxHalfOpenCalls: 1,
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute runs fn if the circuit allows it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// allow decides whether a call may proceed, moving to half-open when the
// cooldown has elapsed.
func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(cb.openedAt) < cb.config.Cooldown {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.halfOpenCalls = 1
		return nil

	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.config.MaxHalfOpenCalls {
			return ErrTooManyRequests
		}
		cb.halfOpenCalls++
		return nil

	default:
		return ErrCircuitOpen
	}
}

// record updates the counters after a call and drives transitions.
func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.successes = 0

		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.config.FailureThreshold {
				cb.transition(StateOpen)
			}
		case StateHalfOpen:
			// A failed probe reopens the circuit immediately.
			cb.transition(StateOpen)
		}
		return
	}

	cb.failures = 0
	cb.successes++

	if cb.state == StateHalfOpen && cb.successes >= cb.config.SuccessThreshold {
		cb.transition(StateClosed)
	}
}

// transition switches state and fires the callback. Caller holds the lock.
func (cb *CircuitBreaker) transition(newState State) {
	if cb.state == newState {
		return
	}

	oldState := cb.state
	cb.state = newState
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenCalls = 0

	if newState == StateOpen {
		cb.openedAt = time.Now()
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, oldState, newState)
	}
}

// CacheBreaker returns a circuit breaker tuned for Redis cache access.
// Opens quickly: every read has a database fallback, so there is no reason
// to keep hammering a failing cache.
func CacheBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(
		"leaderboard-cache",
		WithFailureThreshold(3),
		WithSuccessThreshold(2),
		WithCooldown(15*time.Second),
		WithMaxHalfOpenCalls(1),
		WithOnStateChange(onStateChange),
	)
}
