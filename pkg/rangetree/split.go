package rangetree

import (
	"slices"
	"sort"
)

// Split cuts the node at offset and returns the right part,
// [offset, End). The receiver keeps [Start, offset). A child straddling
// offset is split recursively; children right of offset move to the
// returned node. Both halves keep the count and the pending delta.
//
// The caller must ensure Start < offset < End.
func (n *Node) Split(offset int) *Node {
	// Children are disjoint and sorted, so their ends are ascending.
	leftEnd := sort.Search(len(n.Children), func(idx int) bool {
		return n.Children[idx].End > offset
	})

	var mid *Node

	if leftEnd < len(n.Children) && n.Children[leftEnd].Start < offset {
		mid = n.Children[leftEnd].Split(offset)
		leftEnd++
	}

	rightChildren := make([]*Node, 0, len(n.Children)-leftEnd+1)
	if mid != nil {
		rightChildren = append(rightChildren, mid)
	}

	rightChildren = append(rightChildren, n.Children[leftEnd:]...)

	right := &Node{
		Start:    offset,
		End:      n.End,
		Count:    n.Count,
		Children: rightChildren,
		delta:    n.delta,
	}

	n.End = offset
	n.Children = slices.Clip(n.Children[:leftEnd])

	return right
}
