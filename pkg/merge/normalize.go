package merge

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
)

// NormalizeFunctionCov sorts the ranges of fn and rewrites them into
// their canonical form.
func NormalizeFunctionCov(fn *coverage.FunctionCov) {
	slices.SortStableFunc(fn.Ranges, coverage.CompareRanges)
	normalizeFunction(fn)
}

// NormalizeScriptCov sorts the functions of script by root range.
func NormalizeScriptCov(script *coverage.ScriptCov) {
	slices.SortStableFunc(script.Functions, func(a, b coverage.FunctionCov) int {
		return coverage.CompareSpans(a.RootRange(), b.RootRange())
	})
}

// DeepNormalizeScriptCov normalizes every function of script, then the
// script itself.
func DeepNormalizeScriptCov(script *coverage.ScriptCov) {
	for idx := range script.Functions {
		NormalizeFunctionCov(&script.Functions[idx])
	}

	NormalizeScriptCov(script)
}

// NormalizeProcessCov sorts the scripts of process by URL and renumbers
// them.
func NormalizeProcessCov(process *coverage.ProcessCov) {
	slices.SortStableFunc(process.Result, func(a, b coverage.ScriptCov) int {
		return strings.Compare(a.URL, b.URL)
	})

	assignScriptIDs(process.Result)
}

// DeepNormalizeProcessCov normalizes every script of process, then the
// process itself.
func DeepNormalizeProcessCov(process *coverage.ProcessCov) {
	for idx := range process.Result {
		DeepNormalizeScriptCov(&process.Result[idx])
	}

	NormalizeProcessCov(process)
}
