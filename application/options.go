package application

import (
	"time"

	"github.com/felixgeelhaar/chartgen/domain/chart"
	"github.com/felixgeelhaar/chartgen/domain/session"
	"github.com/felixgeelhaar/chartgen/infrastructure/telemetry"
)

// Option configures the workbench.
type Option func(*WorkbenchConfig)

// WithGenerator sets the data generator.
func WithGenerator(g Generator) Option {
	return func(c *WorkbenchConfig) {
		c.Generator = g
	}
}

// WithStore sets the session store backing the hand-off slot.
func WithStore(s session.Store) Option {
	return func(c *WorkbenchConfig) {
		c.Store = s
	}
}

// WithTTL expires generated data after d.
func WithTTL(d time.Duration) Option {
	return func(c *WorkbenchConfig) {
		c.TTL = d
	}
}

// WithIdleTimeout evicts idle sessions without a live chart after d.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *WorkbenchConfig) {
		c.IdleTimeout = d
	}
}

// WithRegistry replaces the chart builder registry.
func WithRegistry(r *chart.Registry) Option {
	return func(c *WorkbenchConfig) {
		c.Registry = r
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *WorkbenchConfig) {
		c.Metrics = m
	}
}

// WithIDGenerator sets how chart handle ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(c *WorkbenchConfig) {
		c.NewID = fn
	}
}

// New creates a workbench from options.
func New(opts ...Option) (*Workbench, error) {
	var config WorkbenchConfig
	for _, opt := range opts {
		opt(&config)
	}
	return NewWorkbench(config)
}
