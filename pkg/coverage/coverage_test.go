package coverage_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
)

func rng(start, end int, count int64) coverage.RangeCov {
	return coverage.RangeCov{StartOffset: start, EndOffset: end, Count: count}
}

func TestCompareRanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b coverage.RangeCov
		want int
	}{
		{name: "earlier start first", a: rng(0, 5, 0), b: rng(1, 5, 0), want: -1},
		{name: "later start last", a: rng(2, 5, 0), b: rng(1, 9, 0), want: 1},
		{name: "longer first on same start", a: rng(0, 10, 0), b: rng(0, 5, 0), want: -1},
		{name: "shorter last on same start", a: rng(0, 5, 0), b: rng(0, 10, 0), want: 1},
		{name: "count ignored", a: rng(0, 5, 1), b: rng(0, 5, 9), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, coverage.CompareRanges(tt.a, tt.b))
		})
	}
}

func TestSpan(t *testing.T) {
	t.Parallel()

	span := rng(3, 7, 1).Span()

	assert.Equal(t, 4, span.Len())
	assert.True(t, span.Contains(3))
	assert.True(t, span.Contains(6))
	assert.False(t, span.Contains(7))
	assert.False(t, span.Contains(2))
}

func TestFunctionCov_RootRangeAndCount(t *testing.T) {
	t.Parallel()

	fn := coverage.FunctionCov{Ranges: []coverage.RangeCov{rng(0, 10, 3), rng(1, 2, 0)}}

	assert.Equal(t, coverage.Span{Start: 0, End: 10}, fn.RootRange())
	assert.Equal(t, int64(3), fn.Count())

	empty := coverage.FunctionCov{}
	assert.Equal(t, coverage.Span{}, empty.RootRange())
	assert.Equal(t, int64(0), empty.Count())
}

func TestProcessCov_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(coverage.ProcessCov{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result": []}`, string(data))

	input := `{"result":[{"scriptId":"12","url":"file:///a.js","functions":[
		{"functionName":"","ranges":[{"startOffset":0,"endOffset":9,"count":1}],"isBlockCoverage":true}]}]}`

	var process coverage.ProcessCov
	require.NoError(t, json.Unmarshal([]byte(input), &process))

	require.Len(t, process.Result, 1)
	assert.Equal(t, "12", process.Result[0].ScriptID)
	assert.Equal(t, []coverage.RangeCov{rng(0, 9, 1)}, process.Result[0].Functions[0].Ranges)

	data, err = json.Marshal(process)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(data))
}

func TestValidateFunctionCov(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ranges  []coverage.RangeCov
		wantErr error
	}{
		{name: "valid", ranges: []coverage.RangeCov{rng(0, 10, 1), rng(1, 5, 2), rng(2, 3, 0), rng(6, 9, 1)}},
		{name: "empty", ranges: nil, wantErr: coverage.ErrEmptyRanges},
		{name: "inverted", ranges: []coverage.RangeCov{rng(5, 1, 1)}, wantErr: coverage.ErrInvalidRange},
		{name: "negative count", ranges: []coverage.RangeCov{rng(0, 5, -1)}, wantErr: coverage.ErrNegativeCount},
		{name: "unsorted", ranges: []coverage.RangeCov{rng(0, 10, 1), rng(5, 6, 1), rng(1, 2, 1)}, wantErr: coverage.ErrUnsorted},
		{name: "outside root", ranges: []coverage.RangeCov{rng(0, 10, 1), rng(5, 12, 1)}, wantErr: coverage.ErrRangeOutsideRoot},
		{name: "partial overlap", ranges: []coverage.RangeCov{rng(0, 10, 1), rng(1, 5, 1), rng(3, 7, 1)}, wantErr: coverage.ErrPartialOverlap},
		{name: "empty root", ranges: []coverage.RangeCov{rng(3, 3, 0)}},
		{name: "empty child", ranges: []coverage.RangeCov{rng(0, 10, 1), rng(4, 4, 2)}, wantErr: coverage.ErrInvalidRange},
		{name: "empty child at root end", ranges: []coverage.RangeCov{rng(0, 10, 1), rng(10, 10, 5)}, wantErr: coverage.ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fn := coverage.FunctionCov{Ranges: tt.ranges}

			err := coverage.ValidateFunctionCov(&fn)
			if tt.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateProcessCov_WrapsLocation(t *testing.T) {
	t.Parallel()

	process := coverage.ProcessCov{Result: []coverage.ScriptCov{{
		URL:       "file:///bad.js",
		Functions: []coverage.FunctionCov{{FunctionName: "broken"}},
	}}}

	err := coverage.ValidateProcessCov(&process)
	require.ErrorIs(t, err, coverage.ErrEmptyRanges)
	assert.Contains(t, err.Error(), "file:///bad.js")
	assert.Contains(t, err.Error(), "broken")
}
