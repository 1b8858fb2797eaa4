// Package redis provides a Redis-backed session store for deployments
// that run more than one chartgen server.
package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the Redis session store.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every session key.
	Prefix string

	// PoolSize caps open connections; MinIdleConns is clamped to it.
	PoolSize     int
	MinIdleConns int
	MaxRetries   int

	// DialTimeout also bounds the PING issued by NewStore.
	DialTimeout time.Duration
	// IOTimeout bounds each socket read and write.
	IOTimeout time.Duration
}

// DefaultConfig returns the configuration used by a single local server.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Prefix:       "chartgen:",
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		IOTimeout:    3 * time.Second,
	}
}

func (c Config) clientOptions() *redis.Options {
	idle := c.MinIdleConns
	if c.PoolSize > 0 && idle > c.PoolSize {
		idle = c.PoolSize
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.IOTimeout,
		WriteTimeout: c.IOTimeout,
		PoolSize:     c.PoolSize,
		MinIdleConns: idle,
	}
}

// ConfigOption adjusts a Config before the client is built.
type ConfigOption func(*Config)

// WithAddress points the store at host:port.
func WithAddress(addr string) ConfigOption {
	return func(c *Config) { c.Addr = addr }
}

// WithPassword authenticates with password.
func WithPassword(password string) ConfigOption {
	return func(c *Config) { c.Password = password }
}

// WithDB selects the database number.
func WithDB(db int) ConfigOption {
	return func(c *Config) { c.DB = db }
}

// WithKeyPrefix replaces the key namespace. An empty prefix is allowed.
func WithKeyPrefix(prefix string) ConfigOption {
	return func(c *Config) { c.Prefix = prefix }
}

// WithPoolSize caps the connection pool. Non-positive sizes keep the
// go-redis default.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		if size > 0 {
			c.PoolSize = size
		}
	}
}

// WithDialTimeout bounds connection setup.
func WithDialTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.DialTimeout = d
		}
	}
}

// WithIOTimeout bounds socket reads and writes.
func WithIOTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.IOTimeout = d
		}
	}
}

// WithMaxRetries sets command retries; -1 disables them.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) { c.MaxRetries = n }
}
