package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/chartgen/application"
	"github.com/felixgeelhaar/chartgen/domain/config"
	"github.com/felixgeelhaar/chartgen/domain/session"
	infraconfig "github.com/felixgeelhaar/chartgen/infrastructure/config"
	"github.com/felixgeelhaar/chartgen/infrastructure/datagen"
	"github.com/felixgeelhaar/chartgen/infrastructure/logging"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage"
	"github.com/felixgeelhaar/chartgen/infrastructure/telemetry"
)

// runtime is everything a command needs, built from configuration.
type runtime struct {
	config    *config.AppConfig
	client    *datagen.Client
	store     session.Store
	telemetry *telemetry.Provider
	workbench *application.Workbench
}

// loadConfig resolves the configuration file and applies the global flags.
func (a *App) loadConfig() (*config.AppConfig, error) {
	cfg, err := infraconfig.NewLoader().Resolve(a.globals.configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if a.globals.serviceURL != "" {
		cfg.Service.BaseURL = a.globals.serviceURL
	}
	if a.globals.logLevel != "" {
		cfg.Logging.Level = a.globals.logLevel
	}
	return cfg, nil
}

// persistentStorage points an in-memory configuration at an on-disk badger
// store so one-shot commands share data across invocations.
func (a *App) persistentStorage(cfg *config.StorageConfig) error {
	if cfg.Backend != "" && cfg.Backend != config.BackendMemory {
		return nil
	}
	dir := a.globals.dataDir
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("locate cache directory: %w", err)
		}
		dir = filepath.Join(cache, "chartgen")
	}
	cfg.Backend = config.BackendBadger
	cfg.Path = dir
	cfg.InMemory = false
	return nil
}

// setup builds the runtime. persist selects the on-disk store for memory
// configurations.
func (a *App) setup(ctx context.Context, persist bool) (*runtime, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: a.stderr,
	})
	logging.SetLevel(cfg.Logging.Level)

	if persist {
		if err := a.persistentStorage(&cfg.Storage); err != nil {
			return nil, err
		}
	}

	tp, err := telemetry.Setup(ctx, cfg.Telemetry,
		telemetry.WithTraceWriter(a.stderr),
		telemetry.WithServiceVersion(Version),
	)
	if err != nil {
		return nil, fmt.Errorf("set up telemetry: %w", err)
	}
	metrics := telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("open %s session store: %w", backendName(cfg.Storage.Backend), err)
	}
	logging.Debug().Add(logging.Backend(backendName(cfg.Storage.Backend))).Msg("session store opened")

	rt := &runtime{config: cfg, store: store, telemetry: tp}

	gen := a.generator
	if gen == nil {
		rt.client = datagen.NewClient(datagen.ConfigFrom(cfg), datagen.WithMetrics(metrics))
		gen = rt.client
	}

	rt.workbench, err = application.New(
		application.WithGenerator(gen),
		application.WithStore(store),
		application.WithTTL(cfg.Storage.TTL.Duration()),
		application.WithMetrics(metrics),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// serviceURL is the configured generation service address.
func (r *runtime) serviceURL() string {
	if r.client != nil {
		return r.client.BaseURL()
	}
	return datagen.ConfigFrom(r.config).BaseURL
}

// Close releases the workbench, the store and telemetry.
func (r *runtime) Close() {
	if r.workbench != nil {
		r.workbench.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if err := r.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session store: %w", err))
	}
	if err := r.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shut down telemetry: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		logging.Warn().Add(logging.ErrorField(err)).Msg("shutdown incomplete")
	}
}

func backendName(b string) string {
	if b == "" {
		return config.BackendMemory
	}
	return b
}
