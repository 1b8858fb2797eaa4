package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/chartgen/domain/session"
)

// Store is a PostgreSQL-backed session.Store.
type Store struct {
	pool      *pgxpool.Pool
	owned     bool
	table     string
	keyPrefix string
	now       func() time.Time
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewStore connects, creates the session table if missing and returns a
// store that owns the pool.
func NewStore(ctx context.Context, cfg Config, opts ...ConfigOption) (*Store, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	table, err := cfg.qualifiedTable()
	if err != nil {
		return nil, err
	}

	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, errors.Join(session.ErrConnectionFailed, err)
	}

	s := &Store{pool: pool, owned: true, table: table, keyPrefix: cfg.KeyPrefix, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewStoreFromPool wraps an existing pool. Close leaves the pool open.
func NewStoreFromPool(pool *pgxpool.Pool, cfg Config) (*Store, error) {
	table, err := cfg.qualifiedTable()
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, table: table, keyPrefix: cfg.KeyPrefix, now: time.Now}, nil
}

// Migrate creates the session table.
func (s *Store) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			expires_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

func (s *Store) key(key string) string {
	return s.keyPrefix + key
}

// Get retrieves a live value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	query := fmt.Sprintf(`
		SELECT value FROM %s
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)
	`, s.table)

	var value []byte
	err := s.pool.QueryRow(ctx, query, s.key(key), s.now()).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapError(err)
	}

	s.hits.Add(1)
	return value, true, nil
}

// Set upserts a value.
func (s *Store) Set(ctx context.Context, key string, value []byte, opts session.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return session.ErrInvalidKey
	}
	if value == nil {
		value = []byte{}
	}

	now := s.now()
	var expiresAt *time.Time
	if opts.TTL > 0 {
		t := now.Add(opts.TTL)
		expiresAt = &t
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`, s.table)

	_, err := s.pool.Exec(ctx, query, s.key(key), value, expiresAt, now)
	return wrapError(err)
}

// Delete removes a value.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.table), s.key(key))
	return wrapError(err)
}

// Exists reports whether key holds a live value.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)
		)
	`, s.table)

	var exists bool
	if err := s.pool.QueryRow(ctx, query, s.key(key), s.now()).Scan(&exists); err != nil {
		return false, wrapError(err)
	}
	return exists, nil
}

// Cleanup removes expired rows.
func (s *Store) Cleanup(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= $1", s.table),
		s.now(),
	)
	if err != nil {
		return 0, wrapError(err)
	}
	return tag.RowsAffected(), nil
}

// Stats returns hit and miss counts.
func (s *Store) Stats() session.Stats {
	return session.Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}
}

// Close closes the pool when the store created it.
func (s *Store) Close() error {
	if s.owned && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return errors.Join(session.ErrConnectionFailed, err)
}

var (
	_ session.Store         = (*Store)(nil)
	_ session.StatsProvider = (*Store)(nil)
)
