// Package merge combines V8 coverage collected from several runs of the
// same program into one report.
//
// Processes are merged by grouping their scripts by URL, scripts by
// grouping their functions by root range, and functions by merging their
// range trees. Every merger consumes its inputs: the slices and range
// trees passed in may be mutated and must not be used afterwards.
package merge

import (
	"strconv"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/rangetree"
)

// firstScriptID is the id given to the first script of a merged process.
const firstScriptID = 1

// MergeProcessCovs merges process coverages. Scripts are matched by URL
// and keep the order in which their URL first appears; their ids are
// reassigned as "1", "2", ... in that order. Merging no process yields an
// empty process.
func MergeProcessCovs(processes []coverage.ProcessCov) coverage.ProcessCov {
	groups := groupScripts(processes)
	result := make([]coverage.ScriptCov, 0, len(groups))

	for _, group := range groups {
		merged, ok := MergeScriptCovs(group)
		if !ok {
			continue
		}

		result = append(result, merged)
	}

	assignScriptIDs(result)

	return coverage.ProcessCov{Result: result}
}

// MergeScriptCovs merges the coverages of one script. The URL and id of
// the first script are kept. Functions are matched by root range and keep
// the order in which their root range first appears. It reports false for
// an empty list. A single script is returned with its functions
// normalized.
func MergeScriptCovs(scripts []coverage.ScriptCov) (coverage.ScriptCov, bool) {
	switch len(scripts) {
	case 0:
		return coverage.ScriptCov{}, false
	case 1:
		script := scripts[0]
		for idx := range script.Functions {
			normalizeFunction(&script.Functions[idx])
		}

		return script, true
	}

	groups := groupFunctions(scripts)
	functions := make([]coverage.FunctionCov, 0, len(groups))

	for _, group := range groups {
		merged, ok := MergeFunctionCovs(group)
		if !ok {
			continue
		}

		functions = append(functions, merged)
	}

	first := scripts[0]

	return coverage.ScriptCov{
		ScriptID:  first.ScriptID,
		URL:       first.URL,
		Functions: functions,
	}, true
}

// MergeFunctionCovs merges the coverages of one function. All functions
// must share the same root range. The name of the first function is kept.
// The result is block coverage unless it collapsed into a single
// never-executed range. It reports false for an empty list. A single
// function is returned with its ranges normalized.
func MergeFunctionCovs(funcs []coverage.FunctionCov) (coverage.FunctionCov, bool) {
	switch len(funcs) {
	case 0:
		return coverage.FunctionCov{}, false
	case 1:
		fn := funcs[0]
		normalizeFunction(&fn)

		return fn, true
	}

	trees := make([]*rangetree.Node, 0, len(funcs))

	for idx := range funcs {
		tree := rangetree.FromSortedRanges(funcs[idx].Ranges)
		if tree == nil {
			continue
		}

		trees = append(trees, tree)
	}

	merged := MergeRangeTrees(trees)
	if merged == nil {
		return coverage.FunctionCov{FunctionName: funcs[0].FunctionName}, true
	}

	ranges := merged.ToRanges()

	return coverage.FunctionCov{
		FunctionName:    funcs[0].FunctionName,
		Ranges:          ranges,
		IsBlockCoverage: !isUncalled(ranges),
	}, true
}

// isUncalled reports whether ranges is a single range that never ran.
func isUncalled(ranges []coverage.RangeCov) bool {
	return len(ranges) == 1 && ranges[0].Count == 0
}

// normalizeFunction rewrites the ranges of fn into their canonical form.
func normalizeFunction(fn *coverage.FunctionCov) {
	tree := rangetree.FromSortedRanges(fn.Ranges)
	if tree == nil {
		return
	}

	tree.Normalize()
	fn.Ranges = tree.ToRanges()
}

// groupScripts partitions the scripts of all processes by URL, in order of
// first appearance.
func groupScripts(processes []coverage.ProcessCov) [][]coverage.ScriptCov {
	index := make(map[string]int)

	var groups [][]coverage.ScriptCov

	for _, process := range processes {
		for _, script := range process.Result {
			idx, ok := index[script.URL]
			if !ok {
				idx = len(groups)
				index[script.URL] = idx
				groups = append(groups, nil)
			}

			groups[idx] = append(groups[idx], script)
		}
	}

	return groups
}

// groupFunctions partitions the functions of all scripts by root range, in
// order of first appearance.
func groupFunctions(scripts []coverage.ScriptCov) [][]coverage.FunctionCov {
	index := make(map[coverage.Span]int)

	var groups [][]coverage.FunctionCov

	for _, script := range scripts {
		for _, fn := range script.Functions {
			key := fn.RootRange()

			idx, ok := index[key]
			if !ok {
				idx = len(groups)
				index[key] = idx
				groups = append(groups, nil)
			}

			groups[idx] = append(groups[idx], fn)
		}
	}

	return groups
}

// assignScriptIDs numbers scripts densely from firstScriptID.
func assignScriptIDs(scripts []coverage.ScriptCov) {
	for idx := range scripts {
		scripts[idx].ScriptID = strconv.Itoa(firstScriptID + idx)
	}
}
