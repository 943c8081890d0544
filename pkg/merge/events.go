package merge

import (
	"github.com/emirpasic/gods/v2/maps/treemap"

	"github.com/Sumatoshi-tech/v8cov/pkg/rangetree"
)

// parentTree is a child tree tagged with the index of the parent it was
// taken from. The index only lives for the duration of one sweep.
type parentTree struct {
	parent int
	tree   *rangetree.Node
}

// startEvent groups every child tree starting at offset.
type startEvent struct {
	offset int
	trees  []parentTree
}

// startEventQueue yields start events in ascending offset order. Besides
// the children of the parents, it holds the right halves of trees split at
// the end of the open range; those all start at pendingOffset.
type startEventQueue struct {
	events        []startEvent
	next          int
	pendingOffset int
	pending       []parentTree
}

func newStartEventQueue(parents []*rangetree.Node) *startEventQueue {
	index := treemap.New[int, []parentTree]()

	for parentIdx, parent := range parents {
		for _, child := range parent.Children {
			trees, _ := index.Get(child.Start)
			index.Put(child.Start, append(trees, parentTree{parent: parentIdx, tree: child}))
		}
	}

	events := make([]startEvent, 0, index.Size())

	it := index.Iterator()
	for it.Next() {
		events = append(events, startEvent{offset: it.Key(), trees: it.Value()})
	}

	return &startEventQueue{events: events}
}

// setPendingOffset sets the offset at which pushed trees will be emitted.
func (q *startEventQueue) setPendingOffset(offset int) {
	q.pendingOffset = offset
}

// pushPending queues a tree starting at the pending offset.
func (q *startEventQueue) pushPending(entry parentTree) {
	q.pending = append(q.pending, entry)
}

// pop returns the next event, merging pending trees into the regular event
// at the same offset if there is one.
func (q *startEventQueue) pop() (startEvent, bool) {
	if len(q.pending) > 0 {
		hasNext := q.next < len(q.events)

		switch {
		case !hasNext || q.events[q.next].offset > q.pendingOffset:
			event := startEvent{offset: q.pendingOffset, trees: q.pending}
			q.pending = nil

			return event, true
		case q.events[q.next].offset == q.pendingOffset:
			event := q.events[q.next]
			q.next++

			event.trees = append(event.trees, q.pending...)
			q.pending = nil

			return event, true
		}
	}

	if q.next >= len(q.events) {
		return startEvent{}, false
	}

	event := q.events[q.next]
	q.next++

	return event, true
}
