package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartgen/domain/config"
	infraconfig "github.com/felixgeelhaar/chartgen/infrastructure/config"
	"github.com/felixgeelhaar/chartgen/infrastructure/logging"
	"github.com/felixgeelhaar/chartgen/interfaces/api"
)

type serveOptions struct {
	addr string
	wait bool
}

func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart workbench over HTTP",
		Long: `Serve the workbench API. Sessions are keyed by the X-Session-ID header or
a session cookie, and stored in the configured backend.

Edits to the --config file change the log level without a restart.

Examples:
  # Serve on :9090 once the generation service is up
  chartgen serve --addr :9090 --wait`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if opts.wait && rt.client != nil {
				if err := rt.client.WaitHealthy(cmd.Context()); err != nil {
					return fmt.Errorf("wait for data generation service: %w", err)
				}
			} else if !rt.workbench.Health(cmd.Context()) {
				logging.Warn().Add(logging.URL(rt.serviceURL())).Msg("data generation service unreachable")
			}

			if err := a.watchConfig(cmd.Context()); err != nil {
				logging.Warn().Add(logging.ErrorField(err)).Msg("config hot reload disabled")
			}

			cfg := api.ConfigFrom(rt.config)
			if opts.addr != "" {
				cfg.Addr = opts.addr
			}
			return api.NewServer(rt.workbench, cfg).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default from configuration)")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "Wait for the data generation service before serving")

	return cmd
}

// watchConfig applies log level changes from the config file until ctx is
// done. A --log-level flag pins the level.
func (a *App) watchConfig(ctx context.Context) error {
	if a.globals.configPath == "" || a.globals.logLevel != "" {
		return nil
	}
	w, err := infraconfig.NewLoader().Watch(a.globals.configPath)
	if err != nil {
		return err
	}
	go func() {
		_ = w.Run(ctx, func(cfg *config.AppConfig) {
			logging.SetLevel(cfg.Logging.Level)
			logging.Info().Add(logging.Component("config"), logging.Str("level", cfg.Logging.Level)).Msg("log level reloaded")
		})
	}()
	return nil
}
