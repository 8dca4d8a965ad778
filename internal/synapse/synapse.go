// Package synapse implements the synapse table (C6): an open-addressed,
// linear-probed hash table keyed by source-node pointer, where each
// source's outgoing edges form a chain of slots linked by ChainNext. The
// table is exclusively written by the audio thread; nothing
// here is safe for concurrent callers.
//
// Synapses are a directed graph overlay, not an ownership relation: they
// may (and in looping graphs, do) reintroduce cycles that the node list
// itself forbids. Traversal (package cursor) is responsible for bounding
// how far it follows this overlay in any one block.
package synapse

import (
	"github.com/synapsecore/graphengine/region"
)

// knuthMultiplier is Knuth's multiplicative hash constant.
const knuthMultiplier = 2654435761

// Slot is one synapse table entry. A slot with Target == region.NullPtr is
// a tombstone: reachable as a chain link, but inert.
type Slot struct {
	Source     region.NodePtr
	Target     region.NodePtr
	Weight     uint32 // 0..1000
	Jitter     uint32 // ticks
	ChainNext  uint32 // 1-based slot index; 0 means end of chain
	Generation uint32 // bumped on every write, for debugging
}

func (s *Slot) free() bool      { return s.Source == region.NullPtr }
func (s *Slot) tombstoned() bool { return !s.free() && s.Target == region.NullPtr }

// Table is the fixed-capacity synapse hash table.
type Table struct {
	slots []Slot
}

// New allocates a table with the given fixed slot count.
func New(slotCount uint32) *Table {
	return &Table{slots: make([]Slot, slotCount)}
}

func (t *Table) hash(src region.NodePtr) uint32 {
	return uint32((uint64(src) * knuthMultiplier) % uint64(len(t.slots)))
}

// findHead locates the chain head for src. If found, idx is its slot index
// and ok is true. If not found, idx is the index of either a reclaimable
// tombstone (belonging to a different, now-disconnected source) or the
// first never-used slot terminating the probe sequence — whichever this
// returns, it is where a new head for src should be written. If the table
// holds neither, idx is 0 and names a live slot of some other source.
func (t *Table) findHead(src region.NodePtr) (idx uint32, ok bool) {
	n := uint32(len(t.slots))
	start := t.hash(src)
	reclaim, haveReclaim := uint32(0), false
	for probes := uint32(0); probes < n; probes++ {
		i := (start + probes) % n
		s := &t.slots[i]
		if s.free() {
			if haveReclaim {
				return reclaim, false
			}
			return i, false
		}
		if s.Source == src {
			return i, true
		}
		if s.tombstoned() && !haveReclaim {
			reclaim, haveReclaim = i, true
		}
	}
	if haveReclaim {
		return reclaim, false
	}
	return 0, false
}

// allocFrom scans for a reusable slot (never-used or tombstoned, belonging
// to any source) starting at "from", wrapping around the table once.
func (t *Table) allocFrom(from uint32) (uint32, bool) {
	n := uint32(len(t.slots))
	for probes := uint32(0); probes < n; probes++ {
		i := (from + probes) % n
		s := &t.slots[i]
		if s.free() || s.tombstoned() {
			return i, true
		}
	}
	return 0, false
}

// Connect inserts a new synapse slot for src -> tgt. Returns
// region.ErrorAllocExhausted if the table has no reusable slot left.
func (t *Table) Connect(src, tgt region.NodePtr, weight, jitter uint32) region.ErrorCode {
	headIdx, found := t.findHead(src)

	if !found {
		s := &t.slots[headIdx]
		if !s.free() && !s.tombstoned() {
			return region.ErrorAllocExhausted
		}
		*s = Slot{Source: src, Target: tgt, Weight: weight, Jitter: jitter, Generation: s.Generation + 1}
		return region.ErrorOK
	}

	tailIdx := headIdx
	for t.slots[tailIdx].ChainNext != 0 {
		tailIdx = t.slots[tailIdx].ChainNext - 1
	}

	newIdx, ok := t.allocFrom(tailIdx + 1)
	if !ok {
		return region.ErrorAllocExhausted
	}
	s := &t.slots[newIdx]
	*s = Slot{Source: src, Target: tgt, Weight: weight, Jitter: jitter, Generation: s.Generation + 1}
	t.slots[tailIdx].ChainNext = newIdx + 1
	return region.ErrorOK
}

// Disconnect tombstones the first non-tombstoned src -> tgt slot found in
// src's chain. No-op if no such edge exists.
func (t *Table) Disconnect(src, tgt region.NodePtr) {
	idx, found := t.findHead(src)
	if !found {
		return
	}
	for {
		s := &t.slots[idx]
		if s.Target == tgt && !s.tombstoned() {
			s.Target = region.NullPtr
			s.Generation++
			return
		}
		if s.ChainNext == 0 {
			return
		}
		idx = s.ChainNext - 1
	}
}

// DeleteSource fully frees every slot in src's chain, making them
// immediately reusable for any source. Called when src's node itself is
// deleted: unlike Disconnect, there is no value in tombstoning an edge
// whose source no longer exists.
func (t *Table) DeleteSource(src region.NodePtr) {
	idx, found := t.findHead(src)
	if !found {
		return
	}
	for {
		s := &t.slots[idx]
		next := s.ChainNext
		*s = Slot{}
		if next == 0 {
			return
		}
		idx = next - 1
	}
}

// DeleteTarget tombstones every slot, across every source's chain, whose
// Target is tgt. This is a full table scan: only ever called while
// draining the command ring between blocks, never from the
// traversal hot path.
func (t *Table) DeleteTarget(tgt region.NodePtr) {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.free() && s.Target == tgt {
			s.Target = region.NullPtr
			s.Generation++
		}
	}
}

// Candidate is one non-tombstoned outgoing edge, as returned by
// ForEachCandidate.
type Candidate struct {
	Target region.NodePtr
	Weight uint32
	Jitter uint32
}

// MaxCandidates bounds chain walks during traversal.
// Exported so callers can size a fixed, allocation-free buffer for
// ForEachCandidate's results instead of appending to a growable slice on
// the realtime path.
const MaxCandidates = 64

const maxCandidates = MaxCandidates

// ForEachCandidate invokes fn for up to maxCandidates non-tombstoned
// outgoing edges of src, in chain order. Returns the number visited and
// region.ErrorCursorErrChainLoop if the walk had to be aborted because
// ChainNext links formed a cycle instead of terminating at 0 — a
// well-formed chain visits each of the table's slots at most once, so
// walking more than len(t.slots) links without reaching the end means the
// table itself is corrupted, not that src legitimately has that many
// edges.
func (t *Table) ForEachCandidate(src region.NodePtr, fn func(Candidate)) (int, region.ErrorCode) {
	idx, found := t.findHead(src)
	if !found {
		return 0, region.ErrorOK
	}
	n := 0
	steps := uint32(0)
	maxSteps := uint32(len(t.slots))
	for n < maxCandidates {
		if steps > maxSteps {
			return n, region.ErrorCursorErrChainLoop
		}
		steps++
		s := &t.slots[idx]
		if !s.tombstoned() {
			fn(Candidate{Target: s.Target, Weight: s.Weight, Jitter: s.Jitter})
			n++
		}
		if s.ChainNext == 0 {
			break
		}
		idx = s.ChainNext - 1
	}
	return n, region.ErrorOK
}
