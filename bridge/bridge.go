// Package bridge implements the UI-side submission surface (C10): typed
// helpers that allocate from Zone B where a command needs a fresh node,
// build the corresponding cmdring.Command, and push it to the ring. Every
// method here runs on the UI thread only; nothing in this package is safe
// to call from the audio thread.
package bridge

import (
	"github.com/synapsecore/graphengine/internal/cmdring"
	"github.com/synapsecore/graphengine/internal/idtable"
	"github.com/synapsecore/graphengine/internal/zoneb"
	"github.com/synapsecore/graphengine/region"
	"github.com/synapsecore/graphengine/transport"
)

// Bridge is the UI thread's single entry point for mutating the graph.
type Bridge struct {
	region *region.Region
	ring   *cmdring.Ring
	zoneB  *zoneb.Allocator
	ids    *idtable.Table
}

// New wraps the given region's ring, Zone-B allocator, and ID table. ids is
// the same table instance the audio thread registers/clears on INSERT and
// DELETE; Bridge only ever reads it, to resolve a Ref built with ByID.
func New(r *region.Region, ring *cmdring.Ring, zoneB *zoneb.Allocator, ids *idtable.Table) *Bridge {
	return &Bridge{region: r, ring: ring, zoneB: zoneB, ids: ids}
}

// Ref addresses an existing node either directly by pointer or by its
// stable, UI-assigned source id, resolved through the ID table when the
// command is submitted. This lets UI code hold onto a Ref by id even after
// the id has been registered to a different underlying pointer (a later
// INSERT carrying the same source id), rather than having to re-resolve a
// raw region.NodePtr by hand.
type Ref struct {
	ptr region.NodePtr
	id  uint32
}

// ByPtr builds a Ref that addresses a node directly by its current pointer.
func ByPtr(ptr region.NodePtr) Ref { return Ref{ptr: ptr} }

// ByID builds a Ref that addresses a node by its stable source id; id must
// be non-zero (0 means "no id" per the ID table's convention).
func ByID(id uint32) Ref { return Ref{id: id} }

// resolve returns the pointer ref addresses, reading through the ID table
// for a ByID ref. Returns region.NullPtr if the id was never registered or
// has since been cleared.
func (b *Bridge) resolve(ref Ref) region.NodePtr {
	if ref.id != 0 {
		return b.ids.Resolve(ref.id)
	}
	return ref.ptr
}

func (b *Bridge) nextSeq() uint32 {
	b.region.Header.CmdSeq++
	return b.region.Header.CmdSeq
}

// Insert allocates a node from Zone B, writes its fields directly (the
// audio thread only links it into the list; it never has to parse a raw
// payload), and enqueues an INSERT command. afterHint, if non-null, asks
// the audio thread to splice the node immediately after that pointer
// instead of by tick order.
func (b *Bridge) Insert(pitch, velocity uint8, baseTick, duration uint32, sourceID uint32, afterHint region.NodePtr) (region.NodePtr, region.ErrorCode) {
	ptr, code := b.zoneB.Alloc()
	if code != region.ErrorOK {
		return region.NullPtr, code
	}

	node := b.region.Node(ptr)
	*node = region.Node{
		Opcode:   region.OpcodeNote,
		Pitch:    pitch,
		Velocity: velocity,
		Duration: duration,
		BaseTick: baseTick,
		SourceID: sourceID,
		Flags:    region.FlagActive,
		Seq:      b.nextSeq(),
	}

	code = b.ring.Push(cmdring.Command{
		Op:      cmdring.OpInsert,
		Payload: [6]uint32{uint32(ptr), uint32(afterHint)},
		Seq:     node.Seq,
	})
	if code != region.ErrorOK {
		return region.NullPtr, code
	}
	return ptr, region.ErrorOK
}

// Patch enqueues a PATCH command rewriting one field of the node ref
// addresses. If ref was built with ByID and the id has no current
// registration, the command is still enqueued with a NullPtr payload; the
// audio thread validates the pointer and drops it (region.ErrorInvalidPointer)
// rather than the UI thread silently swallowing the call.
func (b *Bridge) Patch(ref Ref, field cmdring.PatchField, value uint32) region.ErrorCode {
	ptr := b.resolve(ref)
	return b.ring.Push(cmdring.Command{
		Op:      cmdring.OpPatch,
		Payload: [6]uint32{uint32(ptr), uint32(field), value},
		Seq:     b.nextSeq(),
	})
}

// Delete enqueues a DELETE command for the node ref addresses.
func (b *Bridge) Delete(ref Ref) region.ErrorCode {
	ptr := b.resolve(ref)
	return b.ring.Push(cmdring.Command{
		Op:      cmdring.OpDelete,
		Payload: [6]uint32{uint32(ptr)},
		Seq:     b.nextSeq(),
	})
}

// Connect enqueues a CONNECT command adding a synapse edge src -> tgt;
// connecting a pair that already has an edge adds a second edge rather
// than updating the first. weight is 0..1000; jitter is in ticks.
func (b *Bridge) Connect(src, tgt Ref, weight, jitter uint32) region.ErrorCode {
	return b.ring.Push(cmdring.Command{
		Op:      cmdring.OpConnect,
		Payload: [6]uint32{uint32(b.resolve(src)), uint32(b.resolve(tgt)), weight, jitter},
		Seq:     b.nextSeq(),
	})
}

// Disconnect enqueues a DISCONNECT command removing the src -> tgt edge.
func (b *Bridge) Disconnect(src, tgt Ref) region.ErrorCode {
	return b.ring.Push(cmdring.Command{
		Op:      cmdring.OpDisconnect,
		Payload: [6]uint32{uint32(b.resolve(src)), uint32(b.resolve(tgt))},
		Seq:     b.nextSeq(),
	})
}

// SetBPM enqueues a SET_BPM command.
func (b *Bridge) SetBPM(bpm float64) region.ErrorCode {
	return b.ring.Push(cmdring.Command{
		Op:      cmdring.OpSetBPM,
		Payload: [6]uint32{transport.BPMToFixed(bpm)},
		Seq:     b.nextSeq(),
	})
}

// SetPlayhead enqueues a SET_PLAYHEAD command, relocating the transport to
// tick.
func (b *Bridge) SetPlayhead(tick uint32) region.ErrorCode {
	return b.ring.Push(cmdring.Command{
		Op:      cmdring.OpSetPlayhead,
		Payload: [6]uint32{tick},
		Seq:     b.nextSeq(),
	})
}

// HardReset enqueues a HARD_RESET command: the audio thread will clear the
// node list, rewind Zone B, and reset the synapse and ID tables on its next
// drain. Zone B is rewound on the audio thread, through the same allocator
// this Bridge allocates from; nothing is reset on the UI side when
// HardReset returns.
func (b *Bridge) HardReset() region.ErrorCode {
	return b.ring.Push(cmdring.Command{
		Op:  cmdring.OpHardReset,
		Seq: b.nextSeq(),
	})
}
