package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/chartgen/domain/config"
	"github.com/felixgeelhaar/chartgen/infrastructure/logging"
)

// Watcher reloads a configuration file when it changes on disk.
type Watcher struct {
	loader *Loader
	path   string
	fs     *fsnotify.Watcher
}

// Watch starts watching path. The parent directory is watched because
// editors usually replace a file rather than write it in place.
func (l *Loader) Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if _, err := FormatOf(abs); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch path: %w", err)
	}
	return &Watcher{loader: l, path: abs, fs: fw}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run calls onChange with every configuration that loads cleanly after a
// write. A file that fails to load is logged and skipped, leaving the
// previous configuration in effect. Run returns when ctx is done and
// closes the watcher.
func (w *Watcher) Run(ctx context.Context, onChange func(*config.AppConfig)) error {
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := w.loader.LoadFile(w.path)
			if err != nil {
				logging.Warn().Add(
					logging.Component("config"),
					logging.Str("path", w.path),
					logging.ErrorField(err),
				).Msg("config reload skipped")
				continue
			}
			logging.Debug().Add(logging.Component("config"), logging.Str("path", w.path)).Msg("config reloaded")
			onChange(cfg)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logging.Warn().Add(logging.Component("config"), logging.ErrorField(err)).Msg("config watch error")
		}
	}
}

// Close stops watching without waiting for Run.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
