// Package resilience wraps region lock acquisition in a circuit breaker so
// that, once acquisition keeps returning errors, later instrumentation calls
// fail fast instead of trying the lock again each time. A lock that is merely
// held by another process blocks the caller and is not counted as a failure.
package resilience

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig defines configuration for a circuit breaker.
type CircuitBreakerConfig struct {
	Name          string
	MaxRequests   uint32
	Interval      time.Duration
	Timeout       time.Duration
	MaxFailures   uint32
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultConfig returns sensible defaults for a circuit breaker guarding a
// shared region's lock acquisition.
func DefaultConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		MaxFailures: 5,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("[CircuitBreaker:%s] state changed: %s -> %s", name, from, to)
		},
	}
}

// CircuitBreaker wraps gobreaker with logging and configuration.
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	config CircuitBreakerConfig
}

// NewCircuitBreaker creates a new circuit breaker with the given config.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && (counts.ConsecutiveFailures >= config.MaxFailures || failureRatio >= 0.6)
		},
		OnStateChange: config.OnStateChange,
	}

	return &CircuitBreaker{
		cb:     gobreaker.NewCircuitBreaker[any](settings),
		name:   config.Name,
		config: config,
	}
}

// NewRegionBreaker returns a breaker pre-configured for guarding a single
// shared region's lock acquisition, named after the region.
func NewRegionBreaker(regionName string) *CircuitBreaker {
	return NewCircuitBreaker(DefaultConfig("region:" + regionName))
}

// Execute runs the given function with circuit breaker protection.
func (cb *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	result, err := cb.cb.Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("circuit breaker %s: %w", cb.name, err)
	}
	return result, nil
}

// ExecuteVoid runs fn, a region operation that returns only an error, through
// the breaker. This is the shape sharedtable.Table's lock acquisition uses.
func (cb *CircuitBreaker) ExecuteVoid(fn func() error) error {
	_, err := cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// ExecuteWithContext runs the given function with context and circuit breaker
// protection.
func (cb *CircuitBreaker) ExecuteWithContext(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := cb.Execute(fn)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.cb.State()
}

// Counts returns the current counts.
func (cb *CircuitBreaker) Counts() gobreaker.Counts {
	return cb.cb.Counts()
}

// Name returns the circuit breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
