// Package session holds the per-session hand-off of generated data between
// the generation step and the chart step.
package session

import (
	"context"
	"time"
)

// Store is a byte-oriented key/value store. Implementations may be
// in-memory, embedded, or backed by a shared database.
type Store interface {
	// Get retrieves a value by key.
	// Returns the value, whether it was found, and any error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given key and options.
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error

	// Delete removes an entry by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in the store.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the backend.
	Close() error
}

// SetOptions configures how a value is stored.
type SetOptions struct {
	// TTL is the time-to-live for the entry.
	// Zero means no expiration.
	TTL time.Duration
}

// Stats provides store statistics.
type Stats struct {
	Hits    int64
	Misses  int64
	Size    int64
	MaxSize int64
}

// StatsProvider is an optional interface for stores that keep statistics.
type StatsProvider interface {
	Stats() Stats
}
