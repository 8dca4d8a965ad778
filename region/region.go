// Package region implements the fixed-layout shared memory region (C1):
// the header, the node heap, and the constants that every other package in
// this module uses to address into it. A Region is allocated once, up
// front, and never resized or reallocated for the lifetime of an engine —
// the UI thread and the audio thread each hold a pointer to the same
// Region and communicate exclusively through the fields documented here.
//
// Node storage is modelled as a preallocated []Node arena rather than raw
// 32-bit cells: offsets become 1-based indices (NodePtr), with 0 reserved
// for NULL, which keeps every accessor bounds-checked and allocation-free
// without manual byte-level packing.
package region

import (
	"sync/atomic"
)

// NodePtr is a 1-based index into Region.Nodes. Zero is NULL.
type NodePtr uint32

// NullPtr is the reserved "no node" pointer value.
const NullPtr NodePtr = 0

// Opcode tags a node's role.
type Opcode uint32

const (
	OpcodeNone    Opcode = 0x00 // reserved for inactive/free slots
	OpcodeNote    Opcode = 0x01
	OpcodeBarrier Opcode = 0x05
)

// Flags bits on Node.Flags.
type Flags uint32

const (
	FlagActive    Flags = 0x01
	FlagMuted     Flags = 0x02
	FlagTombstone Flags = 0x04
)

// Node is the fixed-width event record stored in the heap. Polymorphism is
// by Opcode, not by Go type: every node, regardless of role, is this same
// struct.
type Node struct {
	Opcode   Opcode
	Pitch    uint8  // 7-bit
	Velocity uint8  // 7-bit
	Duration uint32 // ticks
	BaseTick uint32 // absolute ticks, as authored
	Flags    Flags
	SourceID uint32 // 31-bit; 0 means "no ID"
	Next     NodePtr
	Seq      uint32 // debugging / ABA avoidance
}

// Active reports whether the node is both ACTIVE and not TOMBSTONE, i.e.
// reachable from the tick-ordered list.
func (n *Node) Active() bool {
	return n.Flags&FlagActive != 0 && n.Flags&FlagTombstone == 0
}

// Muted reports whether the node's MUTED flag is set.
func (n *Node) Muted() bool {
	return n.Flags&FlagMuted != 0
}

// Header holds the scalar, cross-thread state of the engine. Fields that
// are written by one thread and read by another are atomic with the
// ordering documented alongside each field; fields written and read only
// by a single thread are plain to avoid paying for synchronization nobody
// needs (atomics only where a cross-thread boundary is actually crossed).
type Header struct {
	// Magic identifies a region as belonging to this engine.
	Magic uint32
	// Version is the layout version of this region.
	Version uint32

	// NodeCapacity is len(Region.Nodes).
	NodeCapacity uint32
	// Split is the first Zone-B index: nodes [0, Split) belong to Zone A,
	// [Split, NodeCapacity) belong to Zone B.
	Split uint32

	// SynapseSlotCount is the fixed capacity of the synapse table.
	SynapseSlotCount uint32
	// RingCapacity is the fixed, power-of-two capacity of the command ring.
	RingCapacity uint32
	// IDTableCapacity is the fixed capacity of the source-ID table.
	IDTableCapacity uint32

	// SampleRate is the host's audio sample rate, in Hz.
	SampleRate atomic.Uint32

	// Head is the NodePtr of the first node in the tick-ordered list.
	// Written only by the audio thread; exposed atomically for telemetry.
	Head atomic.Uint32

	// Playhead is the current position, in ticks. Written by the audio
	// thread at the end of every Process call; read by the UI thread for
	// telemetry via an acquire load.
	Playhead atomic.Uint32

	// BPMFixed is BPM in 16.16 fixed point. Written by the audio thread
	// when it drains a SET_BPM command; read by both threads.
	BPMFixed atomic.Uint32
	// PPQ is pulses per quarter note.
	PPQ atomic.Uint32

	// RingHead/RingTail implement the single-producer/single-consumer
	// ring protocol: the consumer (audio thread) owns Head, the producer
	// (UI thread)
	// owns Tail. A release store publishes new entries/frees slots; the
	// corresponding acquire load is what makes the plain field writes in
	// a Node, made before a command referencing it was enqueued, visible
	// to the audio thread without needing those writes to themselves be
	// atomic.
	RingHead atomic.Uint32
	RingTail atomic.Uint32

	// ErrorFlag is the last ErrorCode observed by the audio thread.
	ErrorFlag atomic.Int32

	// SafeZoneTicks bounds how close to blockEndTick a PATCH to BaseTick
	// may move a node before the engine treats it as taking effect next
	// block instead of this one. Unused by the current traversal; retained
	// as a reserved header field for a future sub-block scheduling pass.
	SafeZoneTicks atomic.Uint32

	// StallCounter counts blocks in which the cursor exhausted its
	// synapse quota: a "cursor stalled this block" telemetry counter.
	StallCounter atomic.Uint32

	// FreeListHeadZoneA is the Zone-A Treiber stack head: a generation
	// counter in the high 16 bits, and a NodePtr (1-based) in the low 16
	// bits, packed into one word so a single CAS can both swap the head
	// and invalidate stale observers.
	FreeListHeadZoneA atomic.Uint32

	// ZoneBBump is the bump pointer into [Split, NodeCapacity). Plain, not
	// atomic: the UI thread advances it (zoneb Alloc), and the audio thread
	// rewinds it while applying HARD_RESET (zoneb Reset).
	ZoneBBump uint32

	// CmdSeq is the UI-thread-only monotonic command sequence counter.
	CmdSeq uint32
}

// Region is the entire shared-memory engine state.
type Region struct {
	Header Header
	Nodes  []Node
}

// New allocates a Region of nodeCapacity nodes whose Zone B starts at index
// split. It does not start any goroutine and
// performs no I/O; it is the one-time, non-realtime setup step run before
// the audio thread's first Process call.
func New(nodeCapacity, split uint32) *Region {
	r := &Region{
		Nodes: make([]Node, nodeCapacity),
	}
	r.Header.NodeCapacity = nodeCapacity
	r.Header.Split = split
	r.Header.ZoneBBump = split
	return r
}

// Node returns a pointer to the node at ptr. Callers must check ptr != NullPtr.
func (r *Region) Node(ptr NodePtr) *Node {
	return &r.Nodes[ptr-1]
}

// Valid reports whether ptr addresses a node actually backed by this
// Region's arena: non-null and within [1, NodeCapacity]. Command-payload
// pointers arrive untrusted (the UI thread wrote them, possibly stale
// across a HARD_RESET or simply malformed); callers must check Valid
// before indexing via Node.
func (r *Region) Valid(ptr NodePtr) bool {
	return ptr != NullPtr && uint32(ptr) <= r.Header.NodeCapacity
}

// PtrOf returns the NodePtr for an index into Region.Nodes.
func PtrOf(index uint32) NodePtr {
	return NodePtr(index + 1)
}

// IndexOf returns the zero-based index of a non-null NodePtr.
func IndexOf(ptr NodePtr) uint32 {
	return uint32(ptr) - 1
}
