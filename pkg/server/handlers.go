package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/merge"
	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
	"github.com/Sumatoshi-tech/v8cov/pkg/safeconv"
)

// ErrorResponse is the body of every non-2xx merge response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleMergeProcesses(rw http.ResponseWriter, hr *http.Request) {
	var processes []coverage.ProcessCov

	if !s.decodeBody(rw, hr, &processes) {
		return
	}

	for idx := range processes {
		if !s.validate(rw, hr, fmt.Sprintf("process %d", idx), func() error {
			return coverage.ValidateProcessCov(&processes[idx])
		}) {
			return
		}
	}

	start := time.Now()

	merged, err := merge.MergeProcessCovsConcurrent(hr.Context(), processes, s.opts.Workers)
	if err != nil {
		s.writeError(rw, hr, http.StatusServiceUnavailable, err)

		return
	}

	s.recordMerge(hr, observability.MergeStats{
		Level:     observability.LevelProcess,
		Inputs:    len(processes),
		Scripts:   len(merged.Result),
		Functions: countFunctions(merged.Result),
		Duration:  time.Since(start),
	})

	s.writeJSON(rw, hr, merged)
}

func (s *Server) handleMergeScripts(rw http.ResponseWriter, hr *http.Request) {
	var scripts []coverage.ScriptCov

	if !s.decodeBody(rw, hr, &scripts) {
		return
	}

	for idx := range scripts {
		if !s.validate(rw, hr, fmt.Sprintf("script %d", idx), func() error {
			return coverage.ValidateScriptCov(&scripts[idx])
		}) {
			return
		}
	}

	start := time.Now()

	merged, ok := merge.MergeScriptCovs(scripts)
	if !ok {
		s.writeJSON(rw, hr, nil)

		return
	}

	s.recordMerge(hr, observability.MergeStats{
		Level:     observability.LevelScript,
		Inputs:    len(scripts),
		Scripts:   1,
		Functions: len(merged.Functions),
		Duration:  time.Since(start),
	})

	s.writeJSON(rw, hr, merged)
}

func (s *Server) handleMergeFunctions(rw http.ResponseWriter, hr *http.Request) {
	var funcs []coverage.FunctionCov

	if !s.decodeBody(rw, hr, &funcs) {
		return
	}

	for idx := range funcs {
		if !s.validate(rw, hr, fmt.Sprintf("function %d", idx), func() error {
			return coverage.ValidateFunctionCov(&funcs[idx])
		}) {
			return
		}
	}

	start := time.Now()

	merged, ok := merge.MergeFunctionCovs(funcs)
	if !ok {
		s.writeJSON(rw, hr, nil)

		return
	}

	s.recordMerge(hr, observability.MergeStats{
		Level:     observability.LevelFunction,
		Inputs:    len(funcs),
		Functions: 1,
		Duration:  time.Since(start),
	})

	s.writeJSON(rw, hr, merged)
}

// decodeBody reads the JSON request body into dst. It writes the error
// response and returns false on failure.
func (s *Server) decodeBody(rw http.ResponseWriter, hr *http.Request, dst any) bool {
	body := hr.Body
	if s.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(rw, hr.Body, safeconv.ClampUint64ToInt64(s.opts.MaxBodyBytes))
	}

	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(rw, hr, http.StatusRequestEntityTooLarge, fmt.Errorf("request body: %w", err))

		return false
	}

	s.writeError(rw, hr, http.StatusBadRequest, fmt.Errorf("decode request body: %w", err))

	return false
}

func (s *Server) validate(rw http.ResponseWriter, hr *http.Request, what string, check func() error) bool {
	if !s.opts.Validate {
		return true
	}

	err := check()
	if err != nil {
		s.writeError(rw, hr, http.StatusBadRequest, fmt.Errorf("%s: %w", what, err))

		return false
	}

	return true
}

func (s *Server) recordMerge(hr *http.Request, stats observability.MergeStats) {
	ctx := hr.Context()

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("merge.level", stats.Level),
		attribute.Int("merge.inputs", stats.Inputs),
		attribute.Int("merge.functions", stats.Functions),
	)

	s.opts.MergeMetrics.RecordMerge(ctx, stats)

	s.opts.Logger.DebugContext(ctx, "merged coverage",
		"level", stats.Level, "inputs", stats.Inputs, "duration", stats.Duration)
}

func (s *Server) writeJSON(rw http.ResponseWriter, hr *http.Request, value any) {
	rw.Header().Set("Content-Type", "application/json")

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		s.opts.Logger.ErrorContext(hr.Context(), "failed to encode JSON response", "error", encodeErr)
	}
}

func (s *Server) writeError(rw http.ResponseWriter, hr *http.Request, status int, err error) {
	s.opts.Logger.WarnContext(hr.Context(), "merge request rejected",
		"path", hr.URL.Path, "status", status, "error", err)

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	encodeErr := json.NewEncoder(rw).Encode(ErrorResponse{Error: err.Error()})
	if encodeErr != nil {
		s.opts.Logger.ErrorContext(hr.Context(), "failed to encode error response", "error", encodeErr)
	}
}

func countFunctions(scripts []coverage.ScriptCov) int {
	total := 0
	for _, script := range scripts {
		total += len(script.Functions)
	}

	return total
}
