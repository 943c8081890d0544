package summary_test

import (
	"bytes"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/summary"
)

// Test constants.
const (
	testURLMain = "file:///app/main.js"
	testURLLib  = "file:///app/lib.ts"
)

func rng(start, end int, count int64) coverage.RangeCov {
	return coverage.RangeCov{StartOffset: start, EndOffset: end, Count: count}
}

func testProcess() coverage.ProcessCov {
	return coverage.ProcessCov{Result: []coverage.ScriptCov{
		{ScriptID: "1", URL: testURLMain, Functions: []coverage.FunctionCov{
			{Ranges: []coverage.RangeCov{rng(0, 100, 1), rng(50, 70, 0)}, IsBlockCoverage: true},
			{FunctionName: "never", Ranges: []coverage.RangeCov{rng(10, 20, 0)}},
		}},
		{ScriptID: "2", URL: testURLLib, Functions: []coverage.FunctionCov{
			{Ranges: []coverage.RangeCov{rng(0, 40, 2)}, IsBlockCoverage: true},
		}},
	}}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	rep := summary.Summarize(testProcess())

	require.Len(t, rep.Scripts, 2)

	main := rep.Scripts[0]
	assert.Equal(t, testURLMain, main.URL)
	assert.Equal(t, "JavaScript", main.Language)
	assert.Equal(t, 2, main.Functions)
	assert.Equal(t, 1, main.FunctionsCalled)
	assert.Equal(t, 1, main.BlockCoverage)
	assert.Equal(t, 100, main.TotalBytes)
	assert.Equal(t, 70, main.CoveredBytes)
	assert.InDelta(t, 70.0, main.Percent(), 0.001)

	lib := rep.Scripts[1]
	assert.Equal(t, 40, lib.CoveredBytes)

	assert.Equal(t, 3, rep.Total.Functions)
	assert.Equal(t, 140, rep.Total.TotalBytes)
	assert.Equal(t, 110, rep.Total.CoveredBytes)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	rep := summary.Summarize(coverage.ProcessCov{})

	assert.Empty(t, rep.Scripts)
	assert.Zero(t, rep.Total.Percent())
}

func TestSummarize_ScriptSplitAcrossEntries(t *testing.T) {
	t.Parallel()

	rep := summary.Summarize(coverage.ProcessCov{Result: []coverage.ScriptCov{
		{ScriptID: "1", URL: testURLMain, Functions: []coverage.FunctionCov{
			{Ranges: []coverage.RangeCov{rng(0, 100, 1)}, IsBlockCoverage: true},
		}},
		{ScriptID: "2", URL: testURLLib, Functions: []coverage.FunctionCov{
			{Ranges: []coverage.RangeCov{rng(0, 40, 0)}},
		}},
		{ScriptID: "3", URL: testURLMain, Functions: []coverage.FunctionCov{
			{FunctionName: "inner", Ranges: []coverage.RangeCov{rng(20, 30, 0)}},
		}},
	}})

	require.Len(t, rep.Scripts, 2)

	main := rep.Scripts[0]
	assert.Equal(t, 2, main.Functions)
	assert.Equal(t, 1, main.FunctionsCalled)
	assert.Equal(t, 100, main.TotalBytes)
	assert.Equal(t, 90, main.CoveredBytes)

	lib := rep.Scripts[1]
	assert.Equal(t, 40, lib.TotalBytes)
	assert.Zero(t, lib.CoveredBytes)
}

func TestSummarize_ManyScripts(t *testing.T) {
	t.Parallel()

	const scripts = 2000

	process := coverage.ProcessCov{Result: make([]coverage.ScriptCov, 0, scripts)}
	for idx := range scripts {
		process.Result = append(process.Result, coverage.ScriptCov{
			ScriptID:  strconv.Itoa(idx),
			URL:       "file:///app/mod" + strconv.Itoa(idx) + ".js",
			Functions: []coverage.FunctionCov{{Ranges: []coverage.RangeCov{rng(0, 10, 1), rng(2, 4, 0)}}},
		})
	}

	rep := summary.Summarize(process)

	require.Len(t, rep.Scripts, scripts)
	assert.Equal(t, scripts*10, rep.Total.TotalBytes)
	assert.Equal(t, scripts*8, rep.Total.CoveredBytes)
}

func TestRender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, summary.Render(&buf, summary.Summarize(testProcess()), summary.RenderOptions{NoColor: true}))

	out := buf.String()
	assert.Contains(t, out, testURLMain)
	assert.Contains(t, out, "70.0%")
	assert.Contains(t, out, "100 B")
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, summary.RenderJSON(&buf, summary.Summarize(testProcess())))

	var decoded summary.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 110, decoded.Total.CoveredBytes)
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, summary.RenderYAML(&buf, summary.Summarize(testProcess())))
	assert.Contains(t, buf.String(), "coveredBytes: 110")
}
