package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/v8cov/pkg/mcp"
	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the coverage engine as tools that AI agents can
discover and invoke:
  - coverage_merge: merge process coverages
  - coverage_summary: per-script statistics of a report
  - coverage_query: execution count at a source offset`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Stdout carries the protocol; logs go to stderr as JSON.
			global.LogJSON = true

			e, err := setup(cmd, global, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer e.close()

			red, err := observability.NewREDMetrics(e.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:       e.logger,
				Metrics:      red,
				MergeMetrics: e.mergeMetrics,
				Tracer:       e.providers.Tracer,
				Workers:      e.cfg.Merge.Workers,
			})

			return srv.Run(contextOrBackground(cmd.Context()))
		},
	}
}
