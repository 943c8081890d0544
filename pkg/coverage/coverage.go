// Package coverage defines the block-coverage records produced by the V8
// JavaScript engine (Profiler.takePreciseCoverage) and the helpers shared by
// every layer that reads, merges or writes them.
package coverage

import "encoding/json"

// RangeCov is the execution count of the half-open source span
// [StartOffset, EndOffset).
type RangeCov struct {
	StartOffset int   `json:"startOffset" yaml:"startOffset"`
	EndOffset   int   `json:"endOffset"   yaml:"endOffset"`
	Count       int64 `json:"count"       yaml:"count"`
}

// Span returns the offsets of the range without its count.
func (r RangeCov) Span() Span {
	return Span{Start: r.StartOffset, End: r.EndOffset}
}

// Span is a half-open offset interval. It is the matching key of a
// function: two functions are the same function when their root spans are
// equal.
type Span struct {
	Start int
	End   int
}

// Len returns the number of offsets covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset < s.End
}

// FunctionCov is the coverage of a single function. Ranges are sorted in
// pre-order and Ranges[0] is the root range spanning the whole function.
type FunctionCov struct {
	FunctionName    string     `json:"functionName"    yaml:"functionName"`
	Ranges          []RangeCov `json:"ranges"          yaml:"ranges"`
	IsBlockCoverage bool       `json:"isBlockCoverage" yaml:"isBlockCoverage"`
}

// RootRange returns the span of the root range, the function's matching
// key. It returns the zero Span when the function has no ranges.
func (f *FunctionCov) RootRange() Span {
	if len(f.Ranges) == 0 {
		return Span{}
	}

	return f.Ranges[0].Span()
}

// Count returns the number of calls to the function (the root count).
func (f *FunctionCov) Count() int64 {
	if len(f.Ranges) == 0 {
		return 0
	}

	return f.Ranges[0].Count
}

// ScriptCov is the coverage of one script, identified by URL.
type ScriptCov struct {
	ScriptID  string        `json:"scriptId"  yaml:"scriptId"`
	URL       string        `json:"url"       yaml:"url"`
	Functions []FunctionCov `json:"functions" yaml:"functions"`
}

// ProcessCov is the coverage of a whole process.
type ProcessCov struct {
	Result []ScriptCov `json:"result" yaml:"result"`
}

// MarshalJSON encodes a nil Result as an empty array, matching what the
// engine emits for a process without scripts.
func (p ProcessCov) MarshalJSON() ([]byte, error) {
	type plain ProcessCov

	if p.Result == nil {
		p.Result = []ScriptCov{}
	}

	return json.Marshal(plain(p))
}
