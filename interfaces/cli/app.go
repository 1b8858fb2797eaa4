// Package cli provides the chartgen command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartgen"
	"github.com/felixgeelhaar/chartgen/application"
)

// Version information set at build time.
var (
	Version   = chartgen.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	session    string
	serviceURL string
	logLevel   string
	dataDir    string
}

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	globals   globalOptions
	generator application.Generator
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "chartgen",
		Short: "Generate datasets and chart them",
		Long: `chartgen requests synthetic datasets from the data generation service and
turns them into charts. Describe the input axes, choose one of sixteen chart
types, map axes to X, Y, size, color and group, window the data and render
the result as HTML, ECharts options or an XLSX workbook.

Generated data is kept per session, so "generate" and "chart" can run as
separate invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := app.root.PersistentFlags()
	pf.StringVarP(&app.globals.configPath, "config", "c", "", "Path to configuration file (YAML or JSON)")
	pf.StringVar(&app.globals.session, "session", "", "Session id (default \"default\")")
	pf.StringVar(&app.globals.serviceURL, "service-url", "", "Data generation service URL")
	pf.StringVar(&app.globals.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&app.globals.dataDir, "data-dir", "", "Directory for session data between invocations")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newHealthCmd(),
		app.newGenerateCmd(),
		app.newDataCmd(),
		app.newChartCmd(),
		app.newExportCmd(),
		app.newChartTypesCmd(),
		app.newServeCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// WithGenerator replaces the data generation client.
func (a *App) WithGenerator(g application.Generator) *App {
	a.generator = g
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "chartgen version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
