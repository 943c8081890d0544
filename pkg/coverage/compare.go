package coverage

import "cmp"

// CompareRanges orders ranges by ascending start offset and, for equal
// starts, by descending end offset. This is the pre-order of a range tree:
// a parent always sorts before the ranges it contains.
func CompareRanges(a, b RangeCov) int {
	if a.StartOffset != b.StartOffset {
		return cmp.Compare(a.StartOffset, b.StartOffset)
	}

	return cmp.Compare(b.EndOffset, a.EndOffset)
}

// CompareSpans orders spans the same way as CompareRanges.
func CompareSpans(a, b Span) int {
	if a.Start != b.Start {
		return cmp.Compare(a.Start, b.Start)
	}

	return cmp.Compare(b.End, a.End)
}
