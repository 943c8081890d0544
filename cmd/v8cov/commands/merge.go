package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/merge"
	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/report"
)

// ErrNoInputs is returned when merge gets neither files nor a directory.
var ErrNoInputs = errors.New("no input reports: pass files or --dir")

// MergeCommand holds the flags of the merge command.
type MergeCommand struct {
	global   *GlobalOptions
	dir      string
	pattern  string
	output   string
	format   string
	compress bool
	workers  int
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(global *GlobalOptions) *cobra.Command {
	mc := &MergeCommand{global: global}

	cmd := &cobra.Command{
		Use:   "merge [files...]",
		Short: "Merge coverage reports into one",
		Long: `Merge V8 process coverage reports by summing execution counts.

Reports are read from the given files ("-" for stdin) or from every file of
--dir matching the input pattern (coverage-*.json by default). Files ending
in .lz4 are decompressed, .yaml and .yml files are read as YAML.`,
		RunE: mc.run,
	}

	cmd.Flags().StringVarP(&mc.dir, "dir", "d", "", "read every report of a coverage directory")
	cmd.Flags().StringVar(&mc.pattern, "pattern", "", "file pattern within --dir (default from config)")
	cmd.Flags().StringVarP(&mc.output, "output", "o", report.StdioPath, "output file, - for stdout")
	cmd.Flags().StringVarP(&mc.format, "format", "f", "", "output format: json, yaml (default from extension)")
	cmd.Flags().BoolVar(&mc.compress, "compress", false, "LZ4-compress the output")
	cmd.Flags().IntVarP(&mc.workers, "workers", "w", 0, "merge goroutines, 0 for one per CPU (default from config)")

	return cmd
}

func (mc *MergeCommand) run(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, mc.global, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer e.close()

	if cmd.Flags().Changed("workers") {
		e.cfg.Merge.Workers = mc.workers
	}

	processes, err := mc.readInputs(e, args)
	if err != nil {
		return err
	}

	ctx, span := e.providers.Tracer.Start(cmd.Context(), "v8cov.merge")
	defer span.End()

	start := time.Now()

	merged, err := merge.MergeProcessCovsConcurrent(ctx, processes, e.cfg.Merge.Workers)
	if err != nil {
		return err
	}

	if e.cfg.Merge.Normalize {
		merge.DeepNormalizeProcessCov(&merged)
	}

	stats := observability.MergeStats{
		Level:     observability.LevelProcess,
		Inputs:    len(processes),
		Scripts:   len(merged.Result),
		Functions: countFunctions(merged),
		Duration:  time.Since(start),
	}

	span.SetAttributes(
		attribute.Int("merge.inputs", stats.Inputs),
		attribute.Int("merge.scripts", stats.Scripts),
	)
	e.mergeMetrics.RecordMerge(ctx, stats)
	e.logger.InfoContext(ctx, "merged coverage",
		"inputs", stats.Inputs, "scripts", stats.Scripts, "functions", stats.Functions, "duration", stats.Duration)

	return e.writeReport(cmd.OutOrStdout(), mc.output, mc.format, mc.compress, merged)
}

func (mc *MergeCommand) readInputs(e *env, args []string) ([]coverage.ProcessCov, error) {
	opts := e.readOptions()

	switch {
	case mc.dir != "":
		pattern := mc.pattern
		if pattern == "" {
			pattern = e.cfg.Input.Pattern
		}

		processes, err := report.LoadDir(mc.dir, pattern, opts)
		if err != nil {
			return nil, err
		}

		fromFiles, err := report.ReadProcessCovs(args, opts)
		if err != nil {
			return nil, err
		}

		return append(processes, fromFiles...), nil
	case len(args) > 0:
		return report.ReadProcessCovs(args, opts)
	default:
		return nil, ErrNoInputs
	}
}

func countFunctions(process coverage.ProcessCov) int {
	total := 0
	for _, script := range process.Result {
		total += len(script.Functions)
	}

	return total
}
