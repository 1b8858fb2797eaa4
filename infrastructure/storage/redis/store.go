package redis

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/chartgen/domain/session"
)

const namespace = "session:"

// Store is a Redis-backed session.Store. Expiry is delegated to Redis.
type Store struct {
	client    *redis.Client
	keyPrefix string
	owned     bool
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewStore connects to Redis and verifies the connection with PING.
func NewStore(cfg Config, opts ...ConfigOption) (*Store, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(cfg.clientOptions())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(session.ErrConnectionFailed, err)
	}

	return &Store{client: client, keyPrefix: cfg.Prefix, owned: true}, nil
}

// NewStoreFromClient wraps an existing client. Close leaves the client open.
func NewStoreFromClient(client *redis.Client, keyPrefix string) *Store {
	return &Store{client: client, keyPrefix: keyPrefix}
}

func (s *Store) key(key string) string {
	return s.keyPrefix + namespace + key
}

// Get retrieves a value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapError(err)
	}

	s.hits.Add(1)
	return value, true, nil
}

// Set stores a value. A zero TTL keeps the key until it is deleted.
func (s *Store) Set(ctx context.Context, key string, value []byte, opts session.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return session.ErrInvalidKey
	}

	return wrapError(s.client.Set(ctx, s.key(key), value, opts.TTL).Err())
}

// Delete removes a value.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapError(s.client.Del(ctx, s.key(key)).Err())
}

// Exists reports whether key holds a value.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, wrapError(err)
	}
	return n > 0, nil
}

// Stats returns hit and miss counts. Size is not tracked.
func (s *Store) Stats() session.Stats {
	return session.Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return wrapError(s.client.Ping(ctx).Err())
}

// Close closes the client when the store created it.
func (s *Store) Close() error {
	if !s.owned || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return errors.Join(session.ErrConnectionFailed, err)
	}
	return err
}

var (
	_ session.Store         = (*Store)(nil)
	_ session.StatsProvider = (*Store)(nil)
)
