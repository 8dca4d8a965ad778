// Package zoneb implements the UI-thread-owned bump allocator (C3) over the
// upper half of the node heap, [split, capacity). Allocation is a single
// plain increment: no atomics, no locks, because only the UI thread ever
// calls Alloc, and the audio thread never allocates Zone-B nodes (it only
// links, patches, and tombstones them).
//
// There is no reclamation: defragmentation of the UI-side allocator is out
// of scope, and Free is not provided. Reset exists
// solely for the HARD_RESET handshake, and must only be called once the UI
// is certain the audio thread holds no live Zone-B references.
package zoneb

import (
	"github.com/synapsecore/graphengine/region"
)

// Allocator is the UI-thread-only Zone-B bump allocator.
type Allocator struct {
	region *region.Region
	split  uint32
	cap    uint32
}

// New wraps r's Zone-B range [split, capacity).
func New(r *region.Region, split, capacity uint32) *Allocator {
	return &Allocator{region: r, split: split, cap: capacity}
}

// Alloc returns the next free node, or region.ErrorAllocExhausted once the
// bump pointer reaches capacity.
func (a *Allocator) Alloc() (region.NodePtr, region.ErrorCode) {
	cur := a.region.Header.ZoneBBump
	if cur >= a.cap {
		return region.NullPtr, region.ErrorAllocExhausted
	}
	a.region.Header.ZoneBBump = cur + 1
	ptr := region.PtrOf(cur)
	*a.region.Node(ptr) = region.Node{}
	return ptr, region.ErrorOK
}

// Reset rewinds the bump pointer to split. Only legal once the audio thread
// is known to hold no Zone-B references (the HARD_RESET handshake).
func (a *Allocator) Reset() {
	a.region.Header.ZoneBBump = a.split
}

// Utilization returns the fraction of Zone-B capacity consumed, in [0,1],
// for telemetry.
func (a *Allocator) Utilization() float64 {
	total := a.cap - a.split
	if total == 0 {
		return 0
	}
	used := a.region.Header.ZoneBBump - a.split
	return float64(used) / float64(total)
}

// Owns reports whether ptr falls within this allocator's Zone-B range.
func (a *Allocator) Owns(ptr region.NodePtr) bool {
	if ptr == region.NullPtr {
		return false
	}
	idx := region.IndexOf(ptr)
	return idx >= a.split && idx < a.cap
}
