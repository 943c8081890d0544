package reportdiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/reportdiff"
)

const testURL = "file:///app/main.js"

func process(counts ...int64) coverage.ProcessCov {
	ranges := []coverage.RangeCov{{StartOffset: 0, EndOffset: 100, Count: counts[0]}}
	for idx, count := range counts[1:] {
		start := 10 * (idx + 1)
		ranges = append(ranges, coverage.RangeCov{StartOffset: start, EndOffset: start + 5, Count: count})
	}

	return coverage.ProcessCov{Result: []coverage.ScriptCov{{
		ScriptID:  "7",
		URL:       testURL,
		Functions: []coverage.FunctionCov{{FunctionName: "main", Ranges: ranges, IsBlockCoverage: true}},
	}}}
}

func TestDiff_Identical(t *testing.T) {
	t.Parallel()

	assert.Empty(t, reportdiff.Diff(process(1, 0, 2), process(1, 0, 2)))
}

func TestDiff_IgnoresScriptIDsAndShape(t *testing.T) {
	t.Parallel()

	a := process(1, 0)
	b := process(1, 0)
	b.Result[0].ScriptID = "99"
	b.Result[0].Functions[0].Ranges = append(b.Result[0].Functions[0].Ranges[:1:1],
		coverage.RangeCov{StartOffset: 0, EndOffset: 100, Count: 1},
		coverage.RangeCov{StartOffset: 10, EndOffset: 15, Count: 0},
	)

	assert.Empty(t, reportdiff.Diff(a, b))
}

func TestDiff_ChangedCount(t *testing.T) {
	t.Parallel()

	diff := reportdiff.Diff(process(1, 0, 2), process(1, 3, 2))

	assert.Equal(t,
		"-"+testURL+" main [10,15)=0\n+"+testURL+" main [10,15)=3\n",
		diff)
}

func TestListing_AnonymousFunction(t *testing.T) {
	t.Parallel()

	cov := process(4)
	cov.Result[0].Functions[0].FunctionName = ""

	assert.Equal(t, testURL+" (anonymous) [0,100)=4\n", reportdiff.Listing(cov))
}
