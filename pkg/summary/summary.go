// Package summary computes per-script coverage statistics of a report and
// renders them for humans or machines.
package summary

import (
	"net/url"
	"path"
	"slices"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/covindex"
)

const percentScale = 100

// totalLabel is the URL column of the aggregate row.
const totalLabel = "total"

// ScriptSummary holds the statistics of one script.
type ScriptSummary struct {
	URL             string `json:"url"                yaml:"url"`
	Language        string `json:"language,omitempty" yaml:"language,omitempty"`
	Functions       int    `json:"functions"          yaml:"functions"`
	FunctionsCalled int    `json:"functionsCalled"    yaml:"functionsCalled"`
	BlockCoverage   int    `json:"blockCoverage"      yaml:"blockCoverage"`
	CoveredBytes    int    `json:"coveredBytes"       yaml:"coveredBytes"`
	TotalBytes      int    `json:"totalBytes"         yaml:"totalBytes"`
}

// Percent returns the share of covered bytes, 0 for an empty script.
func (s ScriptSummary) Percent() float64 {
	if s.TotalBytes == 0 {
		return 0
	}

	return float64(s.CoveredBytes) * percentScale / float64(s.TotalBytes)
}

// Report is the summary of a whole process.
type Report struct {
	Scripts []ScriptSummary `json:"scripts" yaml:"scripts"`
	Total   ScriptSummary   `json:"total"   yaml:"total"`
}

// Summarize computes the statistics of every script of process. Bytes are
// counted over the offsets covered by at least one function; an offset is
// covered when the innermost range containing it has a positive count.
func Summarize(process coverage.ProcessCov) Report {
	idx := covindex.Build(process)

	rep := Report{
		Scripts: make([]ScriptSummary, 0, len(process.Result)),
		Total:   ScriptSummary{URL: totalLabel},
	}

	seen := make(map[string]int, len(process.Result))
	// Range boundaries of every script, indexed like rep.Scripts.
	var bounds [][]int

	for _, script := range process.Result {
		pos, ok := seen[script.URL]
		if !ok {
			pos = len(rep.Scripts)
			seen[script.URL] = pos

			rep.Scripts = append(rep.Scripts, ScriptSummary{
				URL:      script.URL,
				Language: detectLanguage(script.URL),
			})
			bounds = append(bounds, nil)
		}

		sum := &rep.Scripts[pos]
		countFunctions(sum, script.Functions)
		bounds[pos] = appendBounds(bounds[pos], script.Functions)
	}

	for pos := range rep.Scripts {
		sum := &rep.Scripts[pos]
		sum.CoveredBytes, sum.TotalBytes = countBytes(idx, sum.URL, bounds[pos])

		rep.Total.Functions += sum.Functions
		rep.Total.FunctionsCalled += sum.FunctionsCalled
		rep.Total.BlockCoverage += sum.BlockCoverage
		rep.Total.CoveredBytes += sum.CoveredBytes
		rep.Total.TotalBytes += sum.TotalBytes
	}

	return rep
}

func countFunctions(sum *ScriptSummary, functions []coverage.FunctionCov) {
	for idx := range functions {
		fn := &functions[idx]

		sum.Functions++

		if fn.Count() > 0 {
			sum.FunctionsCalled++
		}

		if fn.IsBlockCoverage {
			sum.BlockCoverage++
		}
	}
}

func appendBounds(bounds []int, functions []coverage.FunctionCov) []int {
	for _, fn := range functions {
		for _, rng := range fn.Ranges {
			bounds = append(bounds, rng.StartOffset, rng.EndOffset)
		}
	}

	return bounds
}

// countBytes walks the elementary segments between the range boundaries of
// a script. The innermost count is constant inside each segment.
func countBytes(idx *covindex.Index, scriptURL string, bounds []int) (covered, total int) {
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	for i := 1; i < len(bounds); i++ {
		start, end := bounds[i-1], bounds[i]

		count, found := idx.CountAt(scriptURL, start)
		if !found {
			continue
		}

		total += end - start

		if count > 0 {
			covered += end - start
		}
	}

	return covered, total
}

// detectLanguage guesses the language of a script from the file name of
// its URL.
func detectLanguage(scriptURL string) string {
	name := scriptURL

	parsed, err := url.Parse(scriptURL)
	if err == nil {
		name = parsed.Path
		if name == "" {
			name = parsed.Opaque
		}
	}

	return enry.GetLanguage(path.Base(name), nil)
}
