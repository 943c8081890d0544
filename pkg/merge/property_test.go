package merge_test

import (
	"context"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/merge"
)

// Property test parameters.
const (
	propertyIterations = 200
	propertyRootEnd    = 64
	propertyMaxDepth   = 4
	propertyMaxCount   = 4
	propertyMaxInputs  = 4
	propertyWorkers    = 3

	propertyPermutations = 4
)

// scriptRoots are the root ranges of the functions of a generated script.
// Functions may nest inside each other like closures do.
var scriptRoots = []coverage.Span{{Start: 0, End: 128}, {Start: 0, End: 64}, {Start: 64, End: 128}, {Start: 70, End: 90}}

// randomRanges generates a well-formed pre-order range list spanning
// [start, end).
func randomRanges(rnd *rand.Rand, start, end, depth int) []coverage.RangeCov {
	ranges := []coverage.RangeCov{rng(start, end, rnd.Int64N(propertyMaxCount))}

	if depth == 0 || end-start < 2 {
		return ranges
	}

	pos := start
	for pos < end {
		childStart := pos + rnd.IntN(end-pos)
		childEnd := childStart + 1 + rnd.IntN(end-childStart)

		if childEnd-childStart < end-start && rnd.IntN(2) == 0 {
			ranges = append(ranges, randomRanges(rnd, childStart, childEnd, depth-1)...)
		}

		pos = childEnd
	}

	return ranges
}

func randomFunctions(rnd *rand.Rand) [][]coverage.RangeCov {
	inputs := make([][]coverage.RangeCov, 1+rnd.IntN(propertyMaxInputs))
	for idx := range inputs {
		inputs[idx] = randomRanges(rnd, 0, propertyRootEnd, propertyMaxDepth)
	}

	return inputs
}

// permute returns inputs in a random order.
func permute[T any](rnd *rand.Rand, inputs []T) []T {
	shuffled := make([]T, 0, len(inputs))
	for _, idx := range rnd.Perm(len(inputs)) {
		shuffled = append(shuffled, inputs[idx])
	}

	return shuffled
}

// randomScripts generates coverages of one script. Every input holds the
// functions of scriptRoots in the same order, so the merged function order
// and the kept id do not depend on which input comes first.
func randomScripts(rnd *rand.Rand) [][][]coverage.RangeCov {
	inputs := make([][][]coverage.RangeCov, 1+rnd.IntN(propertyMaxInputs))
	for idx := range inputs {
		inputs[idx] = make([][]coverage.RangeCov, 0, len(scriptRoots))
		for _, root := range scriptRoots {
			inputs[idx] = append(inputs[idx], randomRanges(rnd, root.Start, root.End, propertyMaxDepth))
		}
	}

	return inputs
}

func toScripts(inputs [][][]coverage.RangeCov) []coverage.ScriptCov {
	scripts := make([]coverage.ScriptCov, 0, len(inputs))
	for _, functions := range inputs {
		scripts = append(scripts, script("1", testURLMain, toFunctions(functions)...))
	}

	return scripts
}

func toFunctions(inputs [][]coverage.RangeCov) []coverage.FunctionCov {
	funcs := make([]coverage.FunctionCov, 0, len(inputs))
	for _, ranges := range inputs {
		funcs = append(funcs, fn(testFnName, slices.Clone(ranges)...))
	}

	return funcs
}

func TestMergeFunctionCovs_ConservesCounts(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewPCG(1, 2))

	for range propertyIterations {
		inputs := randomFunctions(rnd)

		merged, ok := merge.MergeFunctionCovs(toFunctions(inputs))
		require.True(t, ok)

		assertWellFormed(t, merged)
		assertConserved(t, merged.Ranges, inputs...)
	}
}

func TestMergeFunctionCovs_Commutative(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewPCG(3, 4))

	for range propertyIterations {
		inputs := randomFunctions(rnd)

		want, ok := merge.MergeFunctionCovs(toFunctions(inputs))
		require.True(t, ok)

		for range propertyPermutations {
			shuffled := permute(rnd, inputs)

			got, ok := merge.MergeFunctionCovs(toFunctions(shuffled))
			require.True(t, ok)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("merge depends on input order (-original +shuffled):\n%s", diff)
			}
		}
	}
}

func TestMergeScriptCovs_Commutative(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewPCG(9, 10))

	for range propertyIterations {
		inputs := randomScripts(rnd)

		want, ok := merge.MergeScriptCovs(toScripts(inputs))
		require.True(t, ok)

		for range propertyPermutations {
			got, ok := merge.MergeScriptCovs(toScripts(permute(rnd, inputs)))
			require.True(t, ok)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("script merge depends on input order (-original +shuffled):\n%s", diff)
			}
		}
	}
}

func TestMergeFunctionCovs_ResultIsNormalized(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewPCG(5, 6))

	for range propertyIterations {
		merged, ok := merge.MergeFunctionCovs(toFunctions(randomFunctions(rnd)))
		require.True(t, ok)

		again := merged
		again.Ranges = slices.Clone(merged.Ranges)
		merge.NormalizeFunctionCov(&again)

		if diff := cmp.Diff(merged.Ranges, again.Ranges); diff != "" {
			t.Fatalf("merged ranges are not normalized (-merged +renormalized):\n%s", diff)
		}
	}
}

func TestMergeProcessCovsConcurrent_MatchesSequential(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewPCG(7, 8))
	urls := []string{testURLMain, testURLLib, "file:///app/util.js"}

	build := func() []coverage.ProcessCov {
		processes := make([]coverage.ProcessCov, 1+rnd.IntN(propertyMaxInputs))
		for idx := range processes {
			for _, url := range urls {
				if rnd.IntN(2) == 0 {
					continue
				}

				ranges := randomRanges(rnd, 0, propertyRootEnd, propertyMaxDepth)
				processes[idx].Result = append(processes[idx].Result, script("0", url, fn("", ranges...)))
			}
		}

		return processes
	}

	for range propertyIterations / 10 {
		processes := build()

		sequential := merge.MergeProcessCovs(cloneProcesses(processes))

		concurrent, err := merge.MergeProcessCovsConcurrent(context.Background(), cloneProcesses(processes), propertyWorkers)
		require.NoError(t, err)

		if diff := cmp.Diff(sequential, concurrent); diff != "" {
			t.Fatalf("concurrent merge differs (-sequential +concurrent):\n%s", diff)
		}
	}
}

func cloneProcesses(processes []coverage.ProcessCov) []coverage.ProcessCov {
	clones := make([]coverage.ProcessCov, len(processes))

	for idx, process := range processes {
		for _, sc := range process.Result {
			functions := make([]coverage.FunctionCov, len(sc.Functions))
			for fnIdx, f := range sc.Functions {
				f.Ranges = slices.Clone(f.Ranges)
				functions[fnIdx] = f
			}

			sc.Functions = functions
			clones[idx].Result = append(clones[idx].Result, sc)
		}
	}

	return clones
}
