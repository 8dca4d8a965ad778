// Package engine wires together the region, allocators, command ring,
// node list, synapse table, ID table, transport, and cursor into the one
// object the realtime audio callback drives (C9/C10 integration). New does
// all the allocation; Process is the hot path and performs none.
package engine

import (
	"github.com/synapsecore/graphengine/bridge"
	"github.com/synapsecore/graphengine/cursor"
	"github.com/synapsecore/graphengine/internal/cmdring"
	"github.com/synapsecore/graphengine/internal/idtable"
	"github.com/synapsecore/graphengine/internal/nodelist"
	"github.com/synapsecore/graphengine/internal/synapse"
	"github.com/synapsecore/graphengine/internal/zonea"
	"github.com/synapsecore/graphengine/internal/zoneb"
	"github.com/synapsecore/graphengine/region"
	"github.com/synapsecore/graphengine/telemetry"
	"github.com/synapsecore/graphengine/transport"
)

// Engine is the realtime graph traversal engine: one Region, shared
// between a UI-facing *bridge.Bridge and the audio-thread Process loop.
type Engine struct {
	cfg Config

	region   *region.Region
	ring     *cmdring.Ring
	zoneA    *zonea.Allocator
	zoneB    *zoneb.Allocator
	list     *nodelist.List
	synapses *synapse.Table
	ids      *idtable.Table
	tk       *transport.TimeKeeper
	cur      *cursor.Cursor

	bridge  *bridge.Bridge
	limiter *telemetry.WarningLimiter

	// cmdErr is the most recent command-dispatch failure this block, or
	// region.ErrorOK if every drained command succeeded. Process gives it
	// precedence over the cursor's own return code when publishing
	// Header.ErrorFlag, so a failed CONNECT/PATCH/DELETE/DISCONNECT isn't
	// immediately overwritten by a clean cursor pass in the same call.
	cmdErr region.ErrorCode
}

// New allocates a Region and every subsystem over it per cfg, and returns
// the realtime Engine and the UI-facing Bridge that submits commands to
// it. This is the one-time, non-realtime setup step; it must complete
// before the audio thread's first Process call.
func New(cfg Config) (*Engine, *bridge.Bridge) {
	cfg = cfg.withDefaults()

	r := region.New(cfg.NodeCapacity, cfg.ZoneASplit)
	r.Header.SampleRate.Store(cfg.SampleRate)
	r.Header.BPMFixed.Store(transport.BPMToFixed(cfg.BPM))
	r.Header.PPQ.Store(cfg.PPQ)

	ring := cmdring.New(r, cfg.RingCapacity)
	zoneA := zonea.New(r, cfg.ZoneASplit)
	zoneB := zoneb.New(r, cfg.ZoneASplit, cfg.NodeCapacity)
	list := nodelist.New(r)
	synapses := synapse.New(cfg.SynapseSlotCount)
	ids := idtable.New(cfg.IDTableCapacity)
	tk := transport.NewTimeKeeper(cfg.BPM, cfg.PPQ, cfg.SampleRate)
	cur := cursor.New(r, list, synapses, tk, cfg.CursorSeed, cfg.QuotaPerBlock)

	e := &Engine{
		cfg:      cfg,
		region:   r,
		ring:     ring,
		zoneA:    zoneA,
		zoneB:    zoneB,
		list:     list,
		synapses: synapses,
		ids:      ids,
		tk:       tk,
		cur:      cur,
		bridge:   bridge.New(r, ring, zoneB, ids),
		limiter:  telemetry.NewWarningLimiter(cfg.WarningsPerSecond, cfg.WarningsPerMinute),
	}

	cfg.Logger.Info().
		Uint64(`node_capacity`, uint64(cfg.NodeCapacity)).
		Uint64(`zone_a_split`, uint64(cfg.ZoneASplit)).
		Float64(`bpm`, cfg.BPM).
		Log(`engine initialized`)

	return e, e.bridge
}

// Region exposes the underlying shared region, e.g. for a host binding
// layer that needs to read Header fields directly.
func (e *Engine) Region() *region.Region { return e.region }

// Snapshot captures a point-in-time telemetry snapshot. Must be called off
// the audio thread (Capture scans the whole ID table); never called from
// Process.
func (e *Engine) Snapshot() telemetry.Snapshot {
	return telemetry.Capture(e.region, e.ids, e.cfg.IDTableCapacity, e.zoneB.Utilization())
}

// Process drains pending commands, advances the transport, and traverses
// the node list for blockSize samples, invoking emit for every note-on and
// note-off. This is the one call the realtime audio callback makes per
// render block; it performs no allocation and never blocks.
func (e *Engine) Process(blockSize uint32, emit func(cursor.Event)) {
	e.cmdErr = region.ErrorOK
	e.drainCommands()

	code := e.cur.Process(blockSize, emit)
	if e.cmdErr != region.ErrorOK {
		// a command this block already failed (e.g. CONNECT into a full
		// synapse table, or a bad pointer); don't let a clean cursor pass
		// in the same call erase that durable, pollable signal.
		code = e.cmdErr
	}
	e.region.Header.ErrorFlag.Store(int32(code))
	if code != region.ErrorOK && e.limiter.Allow(code.String()) {
		e.cfg.Logger.Warning().
			Str(`error`, code.String()).
			Log(`engine reported an error this block`)
	}
}

func (e *Engine) drainCommands() {
	e.ring.Drain(e.cfg.MaxCommandsPerBlock, func(cmd cmdring.Command) bool {
		e.dispatch(cmd)
		return true
	})
}

// failCommand records code as this block's command-dispatch failure
// (clobbering any earlier one from the same block with the latest) and
// rate-limit-logs it.
func (e *Engine) failCommand(code region.ErrorCode, msg string) {
	e.cmdErr = code
	if e.limiter.Allow(code.String()) {
		e.cfg.Logger.Warning().Str(`error`, code.String()).Log(msg)
	}
}

func (e *Engine) dispatch(cmd cmdring.Command) {
	switch cmd.Op {
	case cmdring.OpInsert:
		ptr := region.NodePtr(cmd.Payload[0])
		afterHint := region.NodePtr(cmd.Payload[1])
		if !e.region.Valid(ptr) {
			e.failCommand(region.ErrorInvalidPointer, `insert carried an invalid node pointer, command dropped`)
			return
		}
		e.list.Insert(ptr, afterHint)
		e.ids.Register(e.region.Node(ptr).SourceID, ptr)

	case cmdring.OpPatch:
		ptr := region.NodePtr(cmd.Payload[0])
		if !e.region.Valid(ptr) {
			e.failCommand(region.ErrorInvalidPointer, `patch carried an invalid node pointer, command dropped`)
			return
		}
		e.applyPatch(ptr, cmdring.PatchField(cmd.Payload[1]), cmd.Payload[2])

	case cmdring.OpDelete:
		ptr := region.NodePtr(cmd.Payload[0])
		if !e.region.Valid(ptr) {
			e.failCommand(region.ErrorInvalidPointer, `delete carried an invalid node pointer, command dropped`)
			return
		}
		e.deleteNode(ptr)

	case cmdring.OpConnect:
		src, tgt := region.NodePtr(cmd.Payload[0]), region.NodePtr(cmd.Payload[1])
		if !e.region.Valid(src) || !e.region.Valid(tgt) {
			e.failCommand(region.ErrorInvalidPointer, `connect carried an invalid node pointer, command dropped`)
			return
		}
		if code := e.synapses.Connect(src, tgt, cmd.Payload[2], cmd.Payload[3]); code != region.ErrorOK {
			e.failCommand(code, `synapse connect failed`)
		}

	case cmdring.OpDisconnect:
		src, tgt := region.NodePtr(cmd.Payload[0]), region.NodePtr(cmd.Payload[1])
		if !e.region.Valid(src) || !e.region.Valid(tgt) {
			e.failCommand(region.ErrorInvalidPointer, `disconnect carried an invalid node pointer, command dropped`)
			return
		}
		e.synapses.Disconnect(src, tgt)

	case cmdring.OpSetBPM:
		e.setBPM(transport.FixedToBPM(cmd.Payload[0]))

	case cmdring.OpSetPlayhead:
		e.cur.SetPlayhead(cmd.Payload[0])

	case cmdring.OpHardReset:
		e.hardReset()
	}
}

func (e *Engine) applyPatch(ptr region.NodePtr, field cmdring.PatchField, value uint32) {
	node := e.region.Node(ptr)
	switch field {
	case cmdring.PatchPitch:
		node.Pitch = uint8(value)
	case cmdring.PatchVelocity:
		node.Velocity = uint8(value)
	case cmdring.PatchDuration:
		node.Duration = value
	case cmdring.PatchBaseTick:
		node.BaseTick = value
		if e.list != nil {
			// re-sort: unlink and reinsert at the new tick.
			e.list.Delete(ptr)
			node.Flags |= region.FlagActive
			node.Flags &^= region.FlagTombstone
			e.list.Insert(ptr, region.NullPtr)
		}
	case cmdring.PatchFlags:
		node.Flags = region.Flags(value)
	}
}

func (e *Engine) deleteNode(ptr region.NodePtr) {
	e.list.Delete(ptr)
	e.synapses.DeleteSource(ptr)
	e.synapses.DeleteTarget(ptr)

	if sourceID := e.region.Node(ptr).SourceID; sourceID != 0 {
		e.ids.Clear(sourceID)
	}

	if e.zoneA.Owns(ptr) {
		e.zoneA.Free(ptr)
	}
}

func (e *Engine) setBPM(bpm float64) {
	e.region.Header.BPMFixed.Store(transport.BPMToFixed(bpm))
	e.tk.BPM = bpm
	e.tk.Recompute()
}

func (e *Engine) hardReset() {
	for {
		head := e.list.Head()
		if head == region.NullPtr {
			break
		}
		e.deleteNode(head)
	}
	e.zoneB.Reset()
	e.ids.Reset()
	e.cur.SetPlayhead(0)

	e.cfg.Logger.Info().Log(`hard reset complete`)
}
