package mcp

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/covindex"
	"github.com/Sumatoshi-tech/v8cov/pkg/merge"
	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/summary"
)

// handleMerge processes coverage_merge tool calls.
func (s *Server) handleMerge(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input MergeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Processes) == 0 {
		return errorResult(ErrNoProcesses)
	}

	err := validateProcesses(input.Processes)
	if err != nil {
		return errorResult(err)
	}

	start := time.Now()

	merged, err := merge.MergeProcessCovsConcurrent(ctx, input.Processes, s.workers)
	if err != nil {
		return errorResult(err)
	}

	if input.Normalize {
		merge.DeepNormalizeProcessCov(&merged)
	}

	stats := observability.MergeStats{
		Level:    observability.LevelProcess,
		Inputs:   len(input.Processes),
		Scripts:  len(merged.Result),
		Duration: time.Since(start),
	}

	for _, script := range merged.Result {
		stats.Functions += len(script.Functions)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("merge.inputs", stats.Inputs),
		attribute.Int("merge.scripts", stats.Scripts),
	)

	s.mergeMetrics.RecordMerge(ctx, stats)
	s.logger.DebugContext(ctx, "mcp merge done", "inputs", stats.Inputs, "scripts", stats.Scripts)

	return jsonResult(merged)
}

// handleSummary processes coverage_summary tool calls.
func (s *Server) handleSummary(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input SummaryInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := coverage.ValidateProcessCov(&input.Process)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(summary.Summarize(input.Process))
}

// handleQuery processes coverage_query tool calls.
func (s *Server) handleQuery(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input QueryInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.URL == "" {
		return errorResult(ErrEmptyURL)
	}

	if input.Offset < 0 {
		return errorResult(ErrNegativeOffset)
	}

	err := coverage.ValidateProcessCov(&input.Process)
	if err != nil {
		return errorResult(err)
	}

	count, found := covindex.Build(input.Process).CountAt(input.URL, input.Offset)

	return jsonResult(QueryResult{
		URL:    input.URL,
		Offset: input.Offset,
		Count:  count,
		Found:  found,
	})
}
