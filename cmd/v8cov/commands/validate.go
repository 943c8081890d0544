package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/report"
)

// ErrValidationFailed is returned when at least one report is invalid.
var ErrValidationFailed = errors.New("validation failed")

// NewValidateCommand creates the validate command.
func NewValidateCommand(global *GlobalOptions) *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "validate <file...>",
		Short: "Check reports against the schema and range-tree rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, global, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			okLabel := color.New(color.FgGreen).Sprint("ok")
			failLabel := color.New(color.FgRed, color.Bold).Sprint("FAIL")

			if noColor {
				okLabel, failLabel = "ok", "FAIL"
			}

			opts := e.readOptions()
			opts.Validate = true

			failed := 0

			for _, path := range args {
				_, readErr := report.ReadProcessCov(path, opts)
				if readErr != nil {
					failed++

					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", failLabel, readErr)

					continue
				}

				if !global.Quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okLabel, path)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d reports", ErrValidationFailed, failed, len(args))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}
