package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/report"
	"github.com/Sumatoshi-tech/v8cov/pkg/reportdiff"
)

// ErrReportsDiffer is returned by diff when the reports are not equivalent.
var ErrReportsDiffer = errors.New("reports differ")

// NewDiffCommand creates the diff command.
func NewDiffCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Compare two reports",
		Long: `Compare two reports after deep normalization. Prints the differing
range listings and exits with status 1 when the reports differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, global, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			covs, err := report.ReadProcessCovs(args, e.readOptions())
			if err != nil {
				return err
			}

			diff := reportdiff.Diff(covs[0], covs[1])
			if diff == "" {
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), diff)

			return ErrReportsDiffer
		},
	}
}
