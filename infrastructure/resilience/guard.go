// Package resilience wraps outbound calls with fortify bulkhead, circuit
// breaker and retry policies.
package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ErrRejected is returned when the guard refuses a call without running it,
// because the bulkhead is full or the circuit is open.
var ErrRejected = errors.New("call rejected by resilience guard")

// Config configures a Guard.
type Config struct {
	// MaxConcurrent limits calls in flight.
	MaxConcurrent int

	// CircuitBreakerThreshold is the number of consecutive tripping
	// failures before the circuit opens.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// Timeout bounds each call. Zero leaves the caller's deadline alone.
	Timeout time.Duration

	// Trips reports whether an error counts against the circuit. Nil
	// counts every error.
	Trips func(error) bool
}

// DefaultConfig returns the configuration used for the generation client.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:           1,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
}

// Guard composes a bulkhead around a circuit breaker.
type Guard[T any] struct {
	bulkhead bulkhead.Bulkhead[T]
	breaker  circuitbreaker.CircuitBreaker[T]
	timeout  time.Duration
	trips    func(error) bool
	openFor  time.Duration
	openedAt atomic.Int64
}

// NewGuard creates a guard.
func NewGuard[T any](config Config) *Guard[T] {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	threshold := config.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	openFor := config.CircuitBreakerTimeout
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	trips := config.Trips
	if trips == nil {
		trips = func(error) bool { return true }
	}

	g := &Guard[T]{
		timeout: config.Timeout,
		trips:   trips,
		openFor: openFor,
	}
	g.bulkhead = bulkhead.New[T](bulkhead.Config{
		MaxConcurrent: maxConcurrent,
	})
	g.breaker = circuitbreaker.New[T](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    openFor,
		Timeout:     openFor,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			if trip {
				g.openedAt.Store(time.Now().UnixNano())
			}
			return trip
		},
	})
	return g
}

// Execute runs fn through the bulkhead, the timeout and the breaker.
// Errors that do not trip the circuit are recorded as successes by the
// breaker and returned unchanged.
func (g *Guard[T]) Execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var ran bool
	var passthrough error

	result, err := g.bulkhead.Execute(ctx, func(ctx context.Context) (T, error) {
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		return g.breaker.Execute(ctx, func(ctx context.Context) (T, error) {
			ran = true
			v, err := fn(ctx)
			if err != nil && !g.trips(err) {
				passthrough = err
				return v, nil
			}
			if err == nil {
				g.openedAt.Store(0)
			}
			return v, err
		})
	})

	if passthrough != nil {
		return result, passthrough
	}
	if err != nil && !ran && ctx.Err() == nil {
		return result, errors.Join(ErrRejected, err)
	}
	return result, err
}

// Open reports whether the circuit tripped and has not yet had time to
// recover.
func (g *Guard[T]) Open() bool {
	at := g.openedAt.Load()
	return at != 0 && time.Since(time.Unix(0, at)) < g.openFor
}

// State returns the circuit state name.
func (g *Guard[T]) State() string {
	return g.breaker.State().String()
}

// Retrier retries a call with exponential backoff.
type Retrier[T any] struct {
	retry retry.Retry[T]
}

// RetryConfig configures a Retrier.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// NewRetrier creates a retrier.
func NewRetrier[T any](config RetryConfig) *Retrier[T] {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 2.0
	}
	return &Retrier[T]{
		retry: retry.New[T](retry.Config{
			MaxAttempts:   config.MaxAttempts,
			InitialDelay:  config.InitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.Multiplier,
		}),
	}
}

// Do runs fn until it succeeds, the attempts run out or ctx is done.
func (r *Retrier[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	return r.retry.Do(ctx, fn)
}
