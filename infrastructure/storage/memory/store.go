// Package memory provides an in-process session store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/chartgen/domain/session"
)

// entry holds a stored value with expiration.
type entry struct {
	value     []byte
	expiresAt time.Time
	accessAt  time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Store is an in-memory session.Store. It expires entries by TTL and evicts
// the least recently used entry when full.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxSize int
	hits    int64
	misses  int64
	now     func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithMaxSize bounds the number of entries. Zero means unlimited.
func WithMaxSize(size int) Option {
	return func(s *Store) {
		s.maxSize = size
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		if ok {
			delete(s.entries, key)
		}
		s.misses++
		return nil, false, nil
	}
	e.accessAt = now
	s.hits++
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte, opts session.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return session.ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, exists := s.entries[key]; !exists && s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evict(now)
		if len(s.entries) >= s.maxSize {
			return session.ErrStoreFull
		}
	}

	e := &entry{value: append([]byte(nil), value...), accessAt: now}
	if opts.TTL > 0 {
		e.expiresAt = now.Add(opts.TTL)
	}
	s.entries[key] = e
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Exists reports whether key holds an unexpired value.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return ok && !e.expired(s.now()), nil
}

// Close drops every entry.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	return nil
}

// Stats returns store statistics.
func (s *Store) Stats() session.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return session.Stats{
		Hits:    s.hits,
		Misses:  s.misses,
		Size:    int64(len(s.entries)),
		MaxSize: int64(s.maxSize),
	}
}

// evict drops expired entries, then the least recently used one if still
// full. Must be called with the lock held.
func (s *Store) evict(now time.Time) {
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
	if len(s.entries) < s.maxSize {
		return
	}

	var oldestKey string
	var oldest time.Time
	for k, e := range s.entries {
		if oldestKey == "" || e.accessAt.Before(oldest) {
			oldestKey, oldest = k, e.accessAt
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

var (
	_ session.Store         = (*Store)(nil)
	_ session.StatsProvider = (*Store)(nil)
)
