// Package commands implements CLI command handlers for v8cov.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/v8cov/pkg/config"
	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/report"
	"github.com/Sumatoshi-tech/v8cov/pkg/version"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	LogJSON    bool
}

// NewRootCommand creates the v8cov root command with all subcommands.
func NewRootCommand() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "v8cov",
		Short: "v8cov - merge and inspect V8 block coverage",
		Long: `v8cov merges the block coverage reports written by the V8 JavaScript engine
(NODE_V8_COVERAGE, Profiler.takePreciseCoverage) and inspects the result.

Commands:
  merge      Merge coverage reports into one
  normalize  Rewrite a report in canonical form
  validate   Check reports against the schema and range-tree rules
  summary    Per-script coverage statistics
  query      Execution count at a source offset
  diff       Compare two reports
  serve      HTTP merge service
  mcp        MCP server for AI agents`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default .v8cov.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "JSON log output")

	rootCmd.AddCommand(
		NewMergeCommand(opts),
		NewNormalizeCommand(opts),
		NewValidateCommand(opts),
		NewSummaryCommand(opts),
		NewQueryCommand(opts),
		NewDiffCommand(opts),
		NewServeCommand(opts),
		NewMCPCommand(opts),
		NewVersionCommand(),
	)

	return rootCmd
}

// env is the loaded configuration and telemetry of one command run.
type env struct {
	cfg          *config.Config
	providers    observability.Providers
	logger       *slog.Logger
	mergeMetrics *observability.MergeMetrics
}

// setup loads the configuration and initializes observability for mode.
func setup(cmd *cobra.Command, opts *GlobalOptions, mode observability.AppMode) (*env, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observabilityConfig(cfg, opts, mode)
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, err
	}

	mergeMetrics, err := observability.NewMergeMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:          cfg,
		providers:    providers,
		logger:       providers.Logger,
		mergeMetrics: mergeMetrics,
	}, nil
}

// close flushes telemetry.
func (e *env) close() {
	shutdownErr := e.providers.Shutdown(context.Background())
	if shutdownErr != nil {
		e.logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

func (e *env) readOptions() report.ReadOptions {
	return report.ReadOptions{
		MaxBytes: e.cfg.Input.MaxBytes,
		Validate: e.cfg.Input.Validate,
	}
}

func observabilityConfig(cfg *config.Config, opts *GlobalOptions, mode observability.AppMode) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.LogLevel = cfg.Logging.SlogLevel()
	obsCfg.LogJSON = cfg.Logging.JSON || opts.LogJSON
	obsCfg.Prometheus = mode == observability.ModeServe

	if obsCfg.OTLPEndpoint == "" {
		obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	switch {
	case opts.Quiet:
		obsCfg.LogLevel = slog.LevelError
	case opts.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
	}

	return obsCfg
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
