// Package storage opens the session store selected by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/chartgen/domain/config"
	"github.com/felixgeelhaar/chartgen/domain/session"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage/badger"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage/memory"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage/postgres"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage/redis"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage/sqlite"
)

// Open returns the store for cfg.Backend. An empty backend is memory.
func Open(ctx context.Context, cfg config.StorageConfig) (session.Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return memory.NewStore(memory.WithMaxSize(cfg.MaxEntries)), nil

	case config.BackendBadger:
		return opened(badger.NewStore(badger.DefaultConfig(), badgerOptions(cfg)...))

	case config.BackendRedis:
		return opened(redis.NewStore(redis.DefaultConfig(), redisOptions(cfg)...))

	case config.BackendSQLite:
		var opts []sqlite.Option
		if cfg.Path != "" {
			opts = append(opts, sqlite.WithDSN("file:"+cfg.Path+"?cache=shared&mode=rwc"))
		}
		if cfg.Table != "" {
			opts = append(opts, sqlite.WithTable(cfg.Table))
		}
		return opened(sqlite.NewStore(sqlite.DefaultConfig(), opts...))

	case config.BackendPostgres:
		return opened(postgres.NewStore(ctx, postgres.DefaultConfig(), postgresOptions(cfg)...))
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func badgerOptions(cfg config.StorageConfig) []badger.Option {
	opts := []badger.Option{
		badger.WithDir(cfg.Path),
		badger.WithKeyPrefix(cfg.Prefix),
		badger.WithSyncWrites(cfg.SyncWrites),
		badger.WithLogger(badger.Logger{}),
	}
	if cfg.InMemory {
		opts = append(opts, badger.WithInMemory())
	}
	if cfg.GCInterval > 0 {
		opts = append(opts, badger.WithGCInterval(cfg.GCInterval.Duration()))
	}
	return opts
}

func postgresOptions(cfg config.StorageConfig) []postgres.ConfigOption {
	opts := []postgres.ConfigOption{postgres.WithDSN(cfg.DSN)}
	if cfg.Table != "" {
		opts = append(opts, postgres.WithTable(cfg.Table))
	}
	if cfg.PoolSize > 0 {
		minConns := min(int32(cfg.PoolSize), postgres.DefaultConfig().MinConns)
		opts = append(opts, postgres.WithPoolSize(minConns, int32(cfg.PoolSize)))
	}
	return opts
}

func redisOptions(cfg config.StorageConfig) []redis.ConfigOption {
	opts := []redis.ConfigOption{
		redis.WithPassword(cfg.Password),
		redis.WithDB(cfg.DB),
		redis.WithPoolSize(cfg.PoolSize),
		redis.WithDialTimeout(cfg.DialTimeout.Duration()),
		redis.WithIOTimeout(cfg.IOTimeout.Duration()),
	}
	if cfg.Addr != "" {
		opts = append(opts, redis.WithAddress(cfg.Addr))
	}
	if cfg.Prefix != "" {
		opts = append(opts, redis.WithKeyPrefix(cfg.Prefix))
	}
	return opts
}

// opened keeps a failed constructor from yielding a non-nil interface.
func opened[S session.Store](s S, err error) (session.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
