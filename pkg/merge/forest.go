package merge

import (
	"slices"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/rangetree"
)

// MergeRangeTrees merges trees that share the same root span into one
// normalized tree whose count at every offset is the sum of the input
// counts at that offset. It returns nil for an empty list and the
// normalized tree itself for a single input.
//
// The input trees are consumed: their nodes are split and reused.
func MergeRangeTrees(trees []*rangetree.Node) *rangetree.Node {
	merged := mergeRangeTrees(trees)
	if merged != nil {
		merged.Normalize()
	}

	return merged
}

// mergeRangeTrees is MergeRangeTrees without the final normalization. The
// result may carry pending deltas.
func mergeRangeTrees(trees []*rangetree.Node) *rangetree.Node {
	switch len(trees) {
	case 0:
		return nil
	case 1:
		return trees[0]
	}

	first := trees[0]

	var count int64
	for _, tree := range trees {
		count += tree.Count
	}

	return rangetree.New(first.Start, first.End, count, mergeChildren(trees))
}

// mergeChildren merges the children of parents sharing one span.
//
// A first sweep over the start offsets of all children groups overlapping
// children into open ranges. The children spanning a whole open range stay
// as they are; the others are wrapped, per parent, into a node covering the
// open range. Children crossing the end of an open range are split there.
// After the sweep every parent has a child list whose spans are exactly the
// open ranges it takes part in. A second sweep merges the children of each
// open range recursively and credits the parents that have no child there
// with their own count.
func mergeChildren(parents []*rangetree.Node) []*rangetree.Node {
	for _, parent := range parents {
		parent.Children = slices.DeleteFunc(parent.Children, isEmpty)
	}

	queue := newStartEventQueue(parents)
	parentEnd := parents[0].End

	flat := make([][]*rangetree.Node, len(parents))
	wrapped := make([][]*rangetree.Node, len(parents))
	nested := make(map[int][]*rangetree.Node)

	var (
		closed   []coverage.Span
		openSpan coverage.Span
		isOpen   bool
	)

	closeOpen := func() {
		for parentIdx := range parents {
			trees, ok := nested[parentIdx]
			if !ok {
				continue
			}

			wrapper := rangetree.New(openSpan.Start, openSpan.End, parents[parentIdx].Count, trees)
			wrapped[parentIdx] = append(wrapped[parentIdx], wrapper)
		}

		clear(nested)

		closed = append(closed, openSpan)
		isOpen = false
	}

	for {
		event, ok := queue.pop()
		if !ok {
			break
		}

		if isOpen && openSpan.End <= event.offset {
			closeOpen()
		}

		if !isOpen {
			openEnd := min(event.offset+1, parentEnd)
			for _, entry := range event.trees {
				openEnd = max(openEnd, entry.tree.End)
			}

			for _, entry := range event.trees {
				if entry.tree.End == openEnd {
					flat[entry.parent] = append(flat[entry.parent], entry.tree)

					continue
				}

				nested[entry.parent] = append(nested[entry.parent], entry.tree)
			}

			queue.setPendingOffset(openEnd)

			openSpan = coverage.Span{Start: event.offset, End: openEnd}
			isOpen = true

			continue
		}

		for _, entry := range event.trees {
			tree := entry.tree
			if tree.End > openSpan.End {
				right := tree.Split(openSpan.End)
				queue.pushPending(parentTree{parent: entry.parent, tree: right})
			}

			nested[entry.parent] = append(nested[entry.parent], tree)
		}
	}

	if isOpen {
		closeOpen()
	}

	forests := make([][]*rangetree.Node, len(parents))
	for parentIdx := range parents {
		forests[parentIdx] = interleave(flat[parentIdx], wrapped[parentIdx])
	}

	return mergeForests(parents, forests, closed)
}

// mergeForests pairs the children of every parent that start at the same
// offset and merges them. Parents without a child at that offset add their
// own count to the merged child.
func mergeForests(parents []*rangetree.Node, forests [][]*rangetree.Node, spans []coverage.Span) []*rangetree.Node {
	next := make([]int, len(forests))
	result := make([]*rangetree.Node, 0, len(spans))

	for _, span := range spans {
		matching := make([]*rangetree.Node, 0, len(forests))

		var leaked int64

		for parentIdx, forest := range forests {
			if next[parentIdx] < len(forest) && forest[next[parentIdx]].Start == span.Start {
				matching = append(matching, forest[next[parentIdx]])
				next[parentIdx]++

				continue
			}

			leaked += parents[parentIdx].Count
		}

		merged := mergeRangeTrees(matching)
		if merged == nil {
			continue
		}

		if leaked != 0 {
			merged.AddCount(leaked)
		}

		result = append(result, merged)
	}

	return result
}

func isEmpty(node *rangetree.Node) bool {
	return node.End <= node.Start
}

// interleave merges two start-sorted child lists into one.
func interleave(flat, wrapped []*rangetree.Node) []*rangetree.Node {
	if len(wrapped) == 0 {
		return flat
	}

	if len(flat) == 0 {
		return wrapped
	}

	merged := make([]*rangetree.Node, 0, len(flat)+len(wrapped))

	flatIdx, wrappedIdx := 0, 0
	for flatIdx < len(flat) && wrappedIdx < len(wrapped) {
		if wrapped[wrappedIdx].Start < flat[flatIdx].Start {
			merged = append(merged, wrapped[wrappedIdx])
			wrappedIdx++
		} else {
			merged = append(merged, flat[flatIdx])
			flatIdx++
		}
	}

	merged = append(merged, flat[flatIdx:]...)
	merged = append(merged, wrapped[wrappedIdx:]...)

	return merged
}
