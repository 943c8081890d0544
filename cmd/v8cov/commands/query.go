package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/v8cov/pkg/covindex"
	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/report"
)

// ErrNotCovered is returned when no function of the script spans the offset.
var ErrNotCovered = errors.New("offset is not covered by any function")

// NewQueryCommand creates the query command.
func NewQueryCommand(global *GlobalOptions) *cobra.Command {
	var (
		url    string
		offset int
	)

	cmd := &cobra.Command{
		Use:   "query <file>",
		Short: "Execution count at a source offset",
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

			count, found := covindex.Build(process).CountAt(url, offset)
			if !found {
				return fmt.Errorf("%w: %s:%d", ErrNotCovered, url, offset)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", count)

			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "script URL")
	cmd.Flags().IntVar(&offset, "offset", 0, "source offset")

	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("offset")

	return cmd
}
