package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/v8cov/pkg/merge"
	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/report"
)

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(global *GlobalOptions) *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Rewrite a report in canonical form",
		Long: `Deep-normalize a report: scripts sorted by URL with dense ids, functions
sorted by root range and every range tree in normal form.`,
		Args: cobra.ExactArgs(1),
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

			merge.DeepNormalizeProcessCov(&process)

			return e.writeReport(cmd.OutOrStdout(), output, format, false, process)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", report.StdioPath, "output file, - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: json, yaml (default from extension)")

	return cmd
}
