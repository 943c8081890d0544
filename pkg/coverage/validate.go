package coverage

import (
	"errors"
	"fmt"
)

// Sentinel validation errors. The merge engine assumes none of them occur;
// readers call the Validate functions before handing data to it.
var (
	// ErrEmptyRanges indicates a function without a root range.
	ErrEmptyRanges = errors.New("function has no ranges")
	// ErrInvalidRange indicates a range whose end precedes its start, a
	// negative start, or an empty range other than the root.
	ErrInvalidRange = errors.New("invalid range offsets")
	// ErrNegativeCount indicates a range with a negative execution count.
	ErrNegativeCount = errors.New("negative range count")
	// ErrUnsorted indicates ranges that are not in pre-order.
	ErrUnsorted = errors.New("ranges are not sorted in pre-order")
	// ErrRangeOutsideRoot indicates a sub-range not contained in the root range.
	ErrRangeOutsideRoot = errors.New("range is not contained in the root range")
	// ErrPartialOverlap indicates two ranges that overlap without nesting.
	ErrPartialOverlap = errors.New("ranges overlap without nesting")
)

// ValidateFunctionCov checks that fn is a well-formed range tree in
// pre-order: non-empty, root first, every range nested in exactly one
// enclosing range and siblings disjoint. Only the root may be empty.
func ValidateFunctionCov(fn *FunctionCov) error {
	if len(fn.Ranges) == 0 {
		return ErrEmptyRanges
	}

	root := fn.Ranges[0]

	// Ends of the currently open ancestors, innermost last.
	open := make([]int, 0, len(fn.Ranges))

	for idx, rng := range fn.Ranges {
		if rng.StartOffset < 0 || rng.EndOffset < rng.StartOffset {
			return fmt.Errorf("%w: range %d [%d,%d)", ErrInvalidRange, idx, rng.StartOffset, rng.EndOffset)
		}

		if idx > 0 && rng.EndOffset == rng.StartOffset {
			return fmt.Errorf("%w: range %d [%d,%d) is empty", ErrInvalidRange, idx, rng.StartOffset, rng.EndOffset)
		}

		if rng.Count < 0 {
			return fmt.Errorf("%w: range %d count %d", ErrNegativeCount, idx, rng.Count)
		}

		if idx > 0 {
			if CompareRanges(fn.Ranges[idx-1], rng) > 0 {
				return fmt.Errorf("%w: range %d [%d,%d)", ErrUnsorted, idx, rng.StartOffset, rng.EndOffset)
			}

			if rng.StartOffset < root.StartOffset || rng.EndOffset > root.EndOffset {
				return fmt.Errorf("%w: range %d [%d,%d)", ErrRangeOutsideRoot, idx, rng.StartOffset, rng.EndOffset)
			}
		}

		for len(open) > 0 && open[len(open)-1] <= rng.StartOffset {
			open = open[:len(open)-1]
		}

		if len(open) > 0 && rng.EndOffset > open[len(open)-1] {
			return fmt.Errorf("%w: range %d [%d,%d)", ErrPartialOverlap, idx, rng.StartOffset, rng.EndOffset)
		}

		open = append(open, rng.EndOffset)
	}

	return nil
}

// ValidateScriptCov validates every function of the script.
func ValidateScriptCov(script *ScriptCov) error {
	for idx := range script.Functions {
		err := ValidateFunctionCov(&script.Functions[idx])
		if err != nil {
			return fmt.Errorf("script %q function %d (%s): %w",
				script.URL, idx, script.Functions[idx].FunctionName, err)
		}
	}

	return nil
}

// ValidateProcessCov validates every script of the process.
func ValidateProcessCov(process *ProcessCov) error {
	for idx := range process.Result {
		err := ValidateScriptCov(&process.Result[idx])
		if err != nil {
			return err
		}
	}

	return nil
}
