// Package zonea implements the audio-thread-owned lock-free allocator (C2)
// over the lower half of the node heap, [0, split). It is a Treiber stack:
// Alloc pops the free-list head via CAS, Free pushes via CAS. Both are
// wait-free from the caller's perspective modulo bounded CAS retries, never
// block, and never allocate — the only backing store is Region.Nodes,
// preallocated once at startup.
//
// Every node in [0, split) is audio-thread-owned: only the audio thread
// ever writes Zone-A free-list metadata. Nothing
// here is safe for concurrent callers; a single *Allocator is meant to be
// driven from exactly one goroutine (the audio thread).
package zonea

import (
	"github.com/synapsecore/graphengine/region"
)

// genShift packs a 16-bit ABA generation counter into the high bits of the
// free-list head word, alongside a 16-bit (1-based) NodePtr in the low
// bits, so a single CAS both swaps the head and invalidates any other
// goroutine's stale observation of it.
const genShift = 16

func pack(gen uint16, ptr region.NodePtr) uint32 {
	return uint32(gen)<<genShift | uint32(uint16(ptr))
}

func unpack(word uint32) (gen uint16, ptr region.NodePtr) {
	return uint16(word >> genShift), region.NodePtr(uint16(word))
}

// Allocator manages the Zone-A free list embedded in a Region's nodes and
// header.
type Allocator struct {
	region *region.Region
	split  uint32
}

// New wraps r's Zone-A range [0, split) and links every index into the
// free list. Must be called once, before the audio thread starts
// processing blocks.
func New(r *region.Region, split uint32) *Allocator {
	a := &Allocator{region: r, split: split}
	a.initFreeList()
	return a
}

func (a *Allocator) initFreeList() {
	var head region.NodePtr
	for i := a.split; i > 0; i-- {
		idx := i - 1
		ptr := region.PtrOf(idx)
		a.region.Nodes[idx] = region.Node{Next: head}
		head = ptr
	}
	a.region.Header.FreeListHeadZoneA.Store(pack(0, head))
}

// Alloc pops a node from the free list, returning region.NullPtr and
// region.ErrorAllocExhausted if Zone A is exhausted.
func (a *Allocator) Alloc() (region.NodePtr, region.ErrorCode) {
	headWord := &a.region.Header.FreeListHeadZoneA
	for {
		old := headWord.Load()
		gen, ptr := unpack(old)
		if ptr == region.NullPtr {
			return region.NullPtr, region.ErrorAllocExhausted
		}
		next := a.region.Node(ptr).Next
		newWord := pack(gen+1, next)
		if headWord.CompareAndSwap(old, newWord) {
			node := a.region.Node(ptr)
			*node = region.Node{}
			return ptr, region.ErrorOK
		}
	}
}

// Free pushes ptr back onto the free list. ptr must be a Zone-A node
// (index < split) previously returned by Alloc.
func (a *Allocator) Free(ptr region.NodePtr) {
	headWord := &a.region.Header.FreeListHeadZoneA
	node := a.region.Node(ptr)
	for {
		old := headWord.Load()
		gen, top := unpack(old)
		node.Next = top
		newWord := pack(gen+1, ptr)
		if headWord.CompareAndSwap(old, newWord) {
			return
		}
	}
}

// Owns reports whether ptr falls within this allocator's Zone-A range.
func (a *Allocator) Owns(ptr region.NodePtr) bool {
	if ptr == region.NullPtr {
		return false
	}
	return region.IndexOf(ptr) < a.split
}

// Free-list length, for telemetry/tests only: walks the whole chain, so
// it must never be called from the realtime path.
func (a *Allocator) freeListLen() int {
	_, ptr := unpack(a.region.Header.FreeListHeadZoneA.Load())
	n := 0
	for ptr != region.NullPtr {
		n++
		ptr = a.region.Node(ptr).Next
	}
	return n
}
