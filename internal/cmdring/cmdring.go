// Package cmdring implements the single-producer/single-consumer command
// ring (C4): the UI thread is the sole producer, the audio thread is the
// sole consumer, and every record is a fixed 8-word Command. With exactly
// one producer there is no race on Tail itself, so Push needs no CAS loop,
// only the release-store/acquire-load pair that makes a command (and,
// transitively, the plain field writes on any Node it references) visible
// to the consumer.
//
// Algorithm:
//   - Push writes the record, then release-stores Tail.
//   - Drain acquire-loads Tail, reads records up to it, then
//     release-stores Head.
//   - Full is tail-head == capacity; empty is tail == head. On full, the
//     caller observes ErrorRingFull and the command is dropped.
package cmdring

import (
	"github.com/synapsecore/graphengine/region"
)

// Op tags a Command. Values are not persisted externally, so they need not
// match any particular numbering scheme beyond internal consistency.
type Op uint32

const (
	OpInsert Op = iota + 1
	OpPatch
	OpDelete
	OpConnect
	OpDisconnect
	OpSetBPM
	OpSetPlayhead
	OpHardReset
)

// PatchField selects which Node field a PATCH command rewrites.
type PatchField uint32

const (
	PatchPitch PatchField = iota
	PatchVelocity
	PatchDuration
	PatchBaseTick
	PatchFlags
)

// Command is the fixed 8-word wire record: an op tag, six payload words,
// and a sequence number.
type Command struct {
	Op      Op
	Payload [6]uint32
	Seq     uint32
}

// Ring is the fixed-capacity SPSC command ring. Capacity must be a power
// of two.
type Ring struct {
	region *region.Region
	slots  []Command
	mask   uint32
}

// New wraps r's ring storage. capacity must be a power of two and > 0.
func New(r *region.Region, capacity uint32) *Ring {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		panic("cmdring: capacity must be a power of two")
	}
	r.Header.RingCapacity = capacity
	return &Ring{
		region: r,
		slots:  make([]Command, capacity),
		mask:   capacity - 1,
	}
}

// Push enqueues cmd. Called only from the UI (producer) thread. Returns
// ErrorRingFull, without mutating the ring, if it is full.
func (ring *Ring) Push(cmd Command) region.ErrorCode {
	h := &ring.region.Header
	tail := h.RingTail.Load()
	head := h.RingHead.Load()
	if tail-head >= h.RingCapacity {
		return region.ErrorRingFull
	}
	ring.slots[tail&ring.mask] = cmd
	h.RingTail.Store(tail + 1) // release: publishes the slot write above
	return region.ErrorOK
}

// Drain hands up to maxCommands pending commands to fn, in submission
// order, stopping early if fn returns false. Called only from the audio
// (consumer) thread. Returns the number of commands drained.
func (ring *Ring) Drain(maxCommands uint32, fn func(Command) bool) uint32 {
	h := &ring.region.Header
	head := h.RingHead.Load()
	tail := h.RingTail.Load() // acquire: synchronizes with the Store in Push
	var n uint32
	for head != tail && n < maxCommands {
		cmd := ring.slots[head&ring.mask]
		head++
		n++
		h.RingHead.Store(head) // release: frees the slot for the producer
		if !fn(cmd) {
			break
		}
	}
	return n
}

// Len returns the number of pending commands. Safe from either thread;
// may be stale the instant it returns.
func (ring *Ring) Len() uint32 {
	h := &ring.region.Header
	return h.RingTail.Load() - h.RingHead.Load()
}

// Capacity returns the ring's fixed capacity.
func (ring *Ring) Capacity() uint32 {
	return ring.region.Header.RingCapacity
}
