// Package nodelist implements the intrusive, singly-linked, tick-ordered
// node list (C5). The list owns exactly the ACTIVE, non-tombstoned nodes
// reachable from Region.Header.Head; synapses are
// a separate overlay relation maintained by package synapse and never
// influence list ownership.
//
// INSERT is linear, scanning from head to find the first node whose
// BaseTick exceeds the new node's. Inserts run while draining the command
// ring between render blocks and, during traversal, when the cursor
// reschedules a synapse target; their number per block is bounded by the
// commands-per-block drain limit plus the cursor's per-block synapse quota,
// and each costs one scan of the list.
package nodelist

import (
	"github.com/synapsecore/graphengine/region"
)

// List is a thin view over a Region's head pointer and node arena.
type List struct {
	region *region.Region
}

// New wraps r's node list.
func New(r *region.Region) *List {
	return &List{region: r}
}

// Head returns the current head pointer.
func (l *List) Head() region.NodePtr {
	return region.NodePtr(l.region.Header.Head.Load())
}

func (l *List) setHead(ptr region.NodePtr) {
	l.region.Header.Head.Store(uint32(ptr))
}

// Insert splices ptr into the list. If afterHint is non-null and currently
// reachable, ptr is spliced immediately after it (an explicit UI ordering
// assertion); otherwise ptr is placed by ascending BaseTick, with ties
// broken by ascending Seq for stability.
//
// The caller is responsible for having already set ptr's fields, including
// the ACTIVE flag; Insert only manipulates Next pointers and Head.
func (l *List) Insert(ptr region.NodePtr, afterHint region.NodePtr) {
	node := l.region.Node(ptr)

	if afterHint != region.NullPtr && l.reachable(afterHint) {
		after := l.region.Node(afterHint)
		node.Next = after.Next
		after.Next = ptr
		return
	}

	var prev region.NodePtr
	cur := l.Head()
	for cur != region.NullPtr {
		curNode := l.region.Node(cur)
		if curNode.BaseTick > node.BaseTick ||
			(curNode.BaseTick == node.BaseTick && curNode.Seq > node.Seq) {
			break
		}
		prev = cur
		cur = curNode.Next
	}

	node.Next = cur
	if prev == region.NullPtr {
		l.setHead(ptr)
	} else {
		l.region.Node(prev).Next = ptr
	}
}

// Delete unlinks ptr from the list and tombstones it. Reports false if ptr
// was not found reachable from head (already deleted, or never linked).
func (l *List) Delete(ptr region.NodePtr) bool {
	var prev region.NodePtr
	cur := l.Head()
	for cur != region.NullPtr {
		if cur == ptr {
			node := l.region.Node(cur)
			if prev == region.NullPtr {
				l.setHead(node.Next)
			} else {
				l.region.Node(prev).Next = node.Next
			}
			node.Flags &^= region.FlagActive
			node.Flags |= region.FlagTombstone
			node.Next = region.NullPtr
			return true
		}
		prev = cur
		cur = l.region.Node(cur).Next
	}
	return false
}

// reachable reports whether ptr is currently present in the list, by
// linear scan. Used only for the Insert afterHint fast path (bounded by
// the hinted position, not a full scan, in the common case the hint is
// near head).
func (l *List) reachable(ptr region.NodePtr) bool {
	cur := l.Head()
	for cur != region.NullPtr {
		if cur == ptr {
			return true
		}
		cur = l.region.Node(cur).Next
	}
	return false
}

// Walk calls fn for every node reachable from head, in list order, until
// fn returns false or the list ends.
func (l *List) Walk(fn func(ptr region.NodePtr, node *region.Node) bool) {
	cur := l.Head()
	for cur != region.NullPtr {
		node := l.region.Node(cur)
		next := node.Next
		if !fn(cur, node) {
			return
		}
		cur = next
	}
}

// Sorted reports whether the list is currently sorted by ascending
// BaseTick. Used by property tests (P1); never called from the realtime
// path.
func (l *List) Sorted() bool {
	var lastTick uint32
	first := true
	ok := true
	l.Walk(func(_ region.NodePtr, node *region.Node) bool {
		if !first && node.BaseTick < lastTick {
			ok = false
			return false
		}
		lastTick = node.BaseTick
		first = false
		return true
	})
	return ok
}
