package rangetree

import "slices"

// Normalize applies pending deltas and rewrites the subtree into its
// canonical shape:
//
//   - contiguous siblings with equal counts are fused into one node that
//     adopts their children;
//   - a node whose only child spans the whole node takes the child's count
//     and children.
//
// Two trees describing the same counts with the same range boundaries
// normalize to the same shape, and normalizing twice changes nothing.
func (n *Node) Normalize() {
	if n.delta != 0 {
		n.Count += n.delta

		for _, child := range n.Children {
			child.delta += n.delta
		}

		n.delta = 0
	}

	for _, child := range n.Children {
		child.Normalize()
	}

	n.canonicalize()
}

// canonicalize fuses sibling chains and collapses a redundant single child.
// The children must already be normalized.
func (n *Node) canonicalize() {
	for changed := true; changed; {
		changed = n.fuseChains()
	}

	if len(n.Children) == 1 {
		only := n.Children[0]
		if only.Start == n.Start && only.End == n.End {
			n.Count = only.Count
			n.Children = only.Children
		}
	}
}

// fuseChains performs one pass of sibling fusion. It reports whether a
// fused node changed its count while being re-canonicalized, in which case
// new chains may have appeared and another pass is needed.
func (n *Node) fuseChains() bool {
	if len(n.Children) < 2 {
		return false
	}

	children := make([]*Node, 0, len(n.Children))
	fused := make([]bool, 0, len(n.Children))

	for _, child := range n.Children {
		last := len(children) - 1
		if last >= 0 && children[last].End == child.Start && children[last].Count == child.Count {
			head := children[last]
			head.End = child.End
			head.Children = append(slices.Clip(head.Children), child.Children...)
			fused[last] = true

			continue
		}

		children = append(children, child)
		fused = append(fused, false)
	}

	n.Children = children

	changed := false

	for idx, head := range children {
		if !fused[idx] {
			continue
		}

		before := head.Count
		head.canonicalize()

		if head.Count != before {
			changed = true
		}
	}

	return changed
}
