package server

import (
	"context"
	"errors"
	"slices"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/merge"
	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
)

// Names of the built-in readiness checks.
const (
	CheckServing = "serving"
	CheckMerge   = "merge"
)

// Readiness errors.
var (
	// ErrDraining is reported once shutdown has begun.
	ErrDraining = errors.New("server is draining")
	// ErrMergeSelfCheck is reported when the merge engine gives a wrong
	// result on a known input.
	ErrMergeSelfCheck = errors.New("merge self-check failed")
)

// selfCheckWant is the merge of selfCheckInputs.
var selfCheckWant = []coverage.RangeCov{
	{StartOffset: 0, EndOffset: 8, Count: 3},
	{StartOffset: 2, EndOffset: 6, Count: 1},
	{StartOffset: 4, EndOffset: 6, Count: 2},
}

func selfCheckInputs() []coverage.FunctionCov {
	return []coverage.FunctionCov{
		{Ranges: []coverage.RangeCov{
			{StartOffset: 0, EndOffset: 8, Count: 2},
			{StartOffset: 2, EndOffset: 6, Count: 0},
		}},
		{Ranges: []coverage.RangeCov{
			{StartOffset: 0, EndOffset: 8, Count: 1},
			{StartOffset: 4, EndOffset: 6, Count: 2},
		}},
	}
}

// readyChecks returns the built-in checks followed by the configured ones.
func (s *Server) readyChecks() []observability.ReadyCheck {
	builtin := []observability.ReadyCheck{
		{Name: CheckServing, Check: s.checkServing},
		{Name: CheckMerge, Check: checkMerge},
	}

	return append(builtin, s.opts.ReadyChecks...)
}

func (s *Server) checkServing(context.Context) error {
	if s.draining.Load() {
		return ErrDraining
	}

	return nil
}

// checkMerge runs the merge engine on a small fixed input.
func checkMerge(context.Context) error {
	merged, ok := merge.MergeFunctionCovs(selfCheckInputs())
	if !ok || !slices.Equal(merged.Ranges, selfCheckWant) {
		return ErrMergeSelfCheck
	}

	return nil
}
