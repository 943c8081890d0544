package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/report"
	"github.com/Sumatoshi-tech/v8cov/pkg/summary"
)

// Summary output formats.
const (
	summaryFormatTable = "table"
	summaryFormatJSON  = "json"
	summaryFormatYAML  = "yaml"
)

// ErrUnknownSummaryFormat is returned for an unsupported --format value.
var ErrUnknownSummaryFormat = errors.New("unknown summary format")

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(global *GlobalOptions) *cobra.Command {
	var (
		format  string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Per-script coverage statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, global, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			process, err := report.ReadProcessCov(args[0], e.readOptions())
			if err != nil {
				return err
			}

			rep := summary.Summarize(process)

			switch format {
			case summaryFormatTable:
				return summary.Render(cmd.OutOrStdout(), rep, summary.RenderOptions{NoColor: noColor})
			case summaryFormatJSON:
				return summary.RenderJSON(cmd.OutOrStdout(), rep)
			case summaryFormatYAML:
				return summary.RenderYAML(cmd.OutOrStdout(), rep)
			default:
				return fmt.Errorf("%w: %q", ErrUnknownSummaryFormat, format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", summaryFormatTable, "output format: table, json, yaml")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}
