// Package badger provides an embedded BadgerDB session store.
package badger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/chartgen/infrastructure/logging"
)

// ErrOpenFailed is returned when the database cannot be opened.
var ErrOpenFailed = errors.New("badger: open failed")

// Config configures the Badger session store.
type Config struct {
	Dir      string
	InMemory bool
	// SyncWrites fsyncs every Set; off trades the last writes for speed.
	SyncWrites bool
	// Prefix namespaces every session key.
	Prefix string

	// ValueLogFileSize caps each value log file in bytes.
	ValueLogFileSize int64
	// GCInterval runs value-log GC on a ticker. Zero disables it.
	GCInterval     time.Duration
	GCDiscardRatio float64

	// Logger receives badger's own logs. Nil silences them.
	Logger badger.Logger
}

// DefaultConfig returns the configuration used for the CLI cache.
func DefaultConfig() Config {
	return Config{
		ValueLogFileSize: 1 << 26, // 64MB
		GCInterval:       5 * time.Minute,
		GCDiscardRatio:   0.5,
	}
}

// options maps the configuration onto badger. Sessions are overwritten in
// place, so only the latest version of a key is kept.
func (c Config) options() badger.Options {
	opts := badger.DefaultOptions(c.Dir).
		WithInMemory(c.InMemory).
		WithSyncWrites(c.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(c.Logger)
	if c.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}
	if c.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(c.ValueLogFileSize)
	}
	return opts
}

func openDB(c Config) (*badger.DB, error) {
	db, err := badger.Open(c.options())
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	return db, nil
}

// Option adjusts a Config before the database is opened.
type Option func(*Config)

// WithDir stores data under dir.
func WithDir(dir string) Option {
	return func(c *Config) { c.Dir = dir }
}

// WithInMemory keeps the database off disk.
func WithInMemory() Option {
	return func(c *Config) { c.InMemory = true }
}

// WithSyncWrites toggles fsync on every write.
func WithSyncWrites(sync bool) Option {
	return func(c *Config) { c.SyncWrites = sync }
}

// WithGCInterval sets how often value-log GC runs. Zero disables it.
func WithGCInterval(d time.Duration) Option {
	return func(c *Config) { c.GCInterval = d }
}

// WithKeyPrefix replaces the key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) { c.Prefix = prefix }
}

// WithLogger routes badger's logs to l.
func WithLogger(l badger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Logger forwards badger's logs to the process logger. Badger's info
// chatter is demoted to debug.
type Logger struct{}

var _ badger.Logger = Logger{}

func (Logger) Errorf(format string, args ...any) {
	logging.Error().Add(logging.Component("badger")).Msg(line(format, args))
}

func (Logger) Warningf(format string, args ...any) {
	logging.Warn().Add(logging.Component("badger")).Msg(line(format, args))
}

func (Logger) Infof(format string, args ...any) {
	logging.Debug().Add(logging.Component("badger")).Msg(line(format, args))
}

func (Logger) Debugf(format string, args ...any) {
	logging.Debug().Add(logging.Component("badger")).Msg(line(format, args))
}

func line(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
