package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
)

// Tool name constants.
const (
	ToolNameMerge   = "coverage_merge"
	ToolNameSummary = "coverage_summary"
	ToolNameQuery   = "coverage_query"
)

// Sentinel errors for tool input validation.
var (
	// ErrNoProcesses indicates coverage_merge was called without reports.
	ErrNoProcesses = errors.New("processes parameter is required and must not be empty")
	// ErrEmptyURL indicates the url parameter is empty.
	ErrEmptyURL = errors.New("url parameter is required and must not be empty")
	// ErrNegativeOffset indicates a negative offset parameter.
	ErrNegativeOffset = errors.New("offset must not be negative")
)

// Input types (auto-generate JSON schemas via struct tags).

// MergeInput is the input schema for the coverage_merge tool.
type MergeInput struct {
	Processes []coverage.ProcessCov `json:"processes"           jsonschema:"process coverages to merge"`
	Normalize bool                  `json:"normalize,omitempty" jsonschema:"deep-normalize the merged report"`
}

// SummaryInput is the input schema for the coverage_summary tool.
type SummaryInput struct {
	Process coverage.ProcessCov `json:"process" jsonschema:"process coverage to summarize"`
}

// QueryInput is the input schema for the coverage_query tool.
type QueryInput struct {
	Process coverage.ProcessCov `json:"process" jsonschema:"process coverage to query"`
	URL     string              `json:"url"     jsonschema:"script URL"`
	Offset  int                 `json:"offset"  jsonschema:"source offset within the script"`
}

// QueryResult is the data of a coverage_query response.
type QueryResult struct {
	URL    string `json:"url"`
	Offset int    `json:"offset"`
	Count  int64  `json:"count"`
	// Found is false when no function of the script covers the offset.
	Found bool `json:"found"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateProcesses checks every process report structurally.
func validateProcesses(processes []coverage.ProcessCov) error {
	for idx := range processes {
		err := coverage.ValidateProcessCov(&processes[idx])
		if err != nil {
			return fmt.Errorf("process %d: %w", idx, err)
		}
	}

	return nil
}
