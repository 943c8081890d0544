// Package rangetree holds the coverage of one function as a tree of nested
// ranges. The tree is built from the pre-order range list of a
// FunctionCov, can be split at an arbitrary offset, and is brought back to
// its canonical minimal shape by Normalize before being flattened again.
//
// Counts may be incremented lazily: AddCount records a pending delta on a
// node that Normalize later applies to the node and pushes to its
// descendants in a single pass.
package rangetree

import "github.com/Sumatoshi-tech/v8cov/pkg/coverage"

// Node is a range of a function with the ranges nested directly inside it.
// Children are disjoint, contained in [Start, End) and sorted by Start.
type Node struct {
	Start    int
	End      int
	Count    int64
	Children []*Node

	// delta is an increment not yet applied to Count nor to the children.
	delta int64
}

// New creates a node. The children slice is owned by the node.
func New(start, end int, count int64, children []*Node) *Node {
	return &Node{
		Start:    start,
		End:      end,
		Count:    count,
		Children: children,
	}
}

// FromSortedRanges builds the tree of a function from its pre-order sorted
// range list. The first range is the root. It returns nil for an empty
// list. The ranges must be well-formed (see coverage.ValidateFunctionCov).
// Empty ranges below the root cover no offset and are dropped.
func FromSortedRanges(ranges []coverage.RangeCov) *Node {
	if len(ranges) == 0 {
		return nil
	}

	root := fromRange(ranges[0])

	// Ancestors that may still contain the next range, innermost last.
	stack := make([]*Node, 1, len(ranges))
	stack[0] = root

	for _, rng := range ranges[1:] {
		if rng.EndOffset <= rng.StartOffset {
			continue
		}

		node := fromRange(rng)

		for len(stack) > 1 && stack[len(stack)-1].End <= rng.StartOffset {
			stack = stack[:len(stack)-1]
		}

		top := stack[len(stack)-1]
		top.Children = append(top.Children, node)
		stack = append(stack, node)
	}

	return root
}

func fromRange(rng coverage.RangeCov) *Node {
	return &Node{Start: rng.StartOffset, End: rng.EndOffset, Count: rng.Count}
}

// Span returns the offsets covered by the node.
func (n *Node) Span() coverage.Span {
	return coverage.Span{Start: n.Start, End: n.End}
}

// AddCount increments the count of the node and of all its descendants.
// The increment is applied by the next call to Normalize; until then Count
// fields in the subtree are stale.
func (n *Node) AddCount(delta int64) {
	n.delta += delta
}

// Pending returns the increment recorded by AddCount and not yet applied.
func (n *Node) Pending() int64 {
	return n.delta
}

// ToRanges flattens the tree into its pre-order range list.
func (n *Node) ToRanges() []coverage.RangeCov {
	ranges := make([]coverage.RangeCov, 0, n.size())
	stack := []*Node{n}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ranges = append(ranges, coverage.RangeCov{
			StartOffset: cur.Start,
			EndOffset:   cur.End,
			Count:       cur.Count,
		})

		for idx := len(cur.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, cur.Children[idx])
		}
	}

	return ranges
}

// size returns the number of nodes in the tree.
func (n *Node) size() int {
	total := 1

	for _, child := range n.Children {
		total += child.size()
	}

	return total
}
