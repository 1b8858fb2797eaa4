package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	infraconfig "github.com/felixgeelhaar/chartgen/infrastructure/config"
)

type validateOptions struct {
	strict     bool
	showSchema bool
}

func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:     "validate-config",
		Aliases: []string{"validate"},
		Short:   "Validate a configuration file",
		Long: `Validate a chartgen configuration file.

This command checks:
  - File format (YAML or JSON)
  - Field types and constraints
  - Storage backend requirements
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  chartgen validate-config -c chartgen.yaml

  # Strict validation (fail on missing env vars)
  chartgen validate-config -c chartgen.yaml --strict

  # Show the JSON schema for configuration
  chartgen validate-config --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showConfigSchema()
			}
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")

	return cmd
}

func (a *App) validateConfig(opts *validateOptions) error {
	if a.globals.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	loader := infraconfig.NewLoaderWithOptions(infraconfig.WithStrictEnv(opts.strict))
	cfg, err := loader.LoadFile(a.globals.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	if cfg.Name != "" {
		fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	}

	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Service: %s\n", cfg.Service.BaseURL)
	fmt.Fprintf(a.stdout, "  Storage: %s\n", backendName(cfg.Storage.Backend))
	if ttl := cfg.Storage.TTL.Duration(); ttl > 0 {
		fmt.Fprintf(a.stdout, "  Session TTL: %s\n", ttl)
	}
	fmt.Fprintf(a.stdout, "  Server: %s\n", cfg.Server.Addr)
	fmt.Fprintf(a.stdout, "  Logging: %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Telemetry.Enabled {
		exporter := cfg.Telemetry.Exporter
		if exporter == "" {
			exporter = "stdout"
		}
		if cfg.Telemetry.Endpoint != "" {
			exporter += " " + cfg.Telemetry.Endpoint
		}
		fmt.Fprintf(a.stdout, "  Telemetry: %s (sample ratio %.2f)\n", exporter, cfg.Telemetry.SampleRatio)
	}
	if cb := cfg.Resilience.CircuitBreaker; cb.Threshold > 0 {
		fmt.Fprintf(a.stdout, "  Circuit breaker: %d failures, %s open\n", cb.Threshold, cb.Timeout.Duration())
	}
	return nil
}

func (a *App) showConfigSchema() error {
	schemaJSON, err := infraconfig.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}
