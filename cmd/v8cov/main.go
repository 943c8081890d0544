// Package main provides the entry point for the v8cov CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/v8cov/cmd/v8cov/commands"
	"github.com/Sumatoshi-tech/v8cov/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		// The diff was already printed.
		if !errors.Is(err, commands.ErrReportsDiffer) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		os.Exit(1)
	}
}
