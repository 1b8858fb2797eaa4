package resilience

import "time"

// Option configures a Guard.
type Option func(*Config)

// WithMaxConcurrent sets the maximum calls in flight.
func WithMaxConcurrent(n int) Option {
	return func(c *Config) {
		c.MaxConcurrent = n
	}
}

// WithCircuitBreakerThreshold sets the failure threshold for the circuit breaker.
func WithCircuitBreakerThreshold(n int) Option {
	return func(c *Config) {
		c.CircuitBreakerThreshold = n
	}
}

// WithCircuitBreakerTimeout sets how long the circuit stays open.
func WithCircuitBreakerTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CircuitBreakerTimeout = d
	}
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithTrips sets the predicate deciding which errors count against the circuit.
func WithTrips(trips func(error) bool) Option {
	return func(c *Config) {
		c.Trips = trips
	}
}

// NewGuardWithOptions creates a guard from DefaultConfig and opts.
func NewGuardWithOptions[T any](opts ...Option) *Guard[T] {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewGuard[T](config)
}
