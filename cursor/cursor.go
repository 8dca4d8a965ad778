// Package cursor implements the realtime traversal core (C9): the audio
// thread's per-block walk of the tick-ordered node list, weighted
// stochastic resolution of each fired node's outgoing synapses, and the
// note-on/note-off event stream the host consumes. Nothing here allocates
// or blocks; Process is the one call the realtime audio callback makes
// once per render block.
package cursor

import (
	"github.com/synapsecore/graphengine/internal/nodelist"
	"github.com/synapsecore/graphengine/internal/synapse"
	"github.com/synapsecore/graphengine/region"
	"github.com/synapsecore/graphengine/transport"
)

// EventKind distinguishes the two event types Process can emit.
type EventKind uint8

const (
	EventNoteOn EventKind = iota
	EventNoteOff
)

// Event is one note-on/note-off the host should act on, timestamped to a
// sample offset within the block just processed.
type Event struct {
	Kind         EventKind
	Pitch        uint8
	Velocity     uint8
	SampleOffset uint32
	Node         region.NodePtr
}

// maxPendingOffs bounds the note-off schedule. The region never resizes, so
// this is a fixed-size ring rather than a growable slice; a graph with more
// simultaneously-sounding notes than this drops the oldest pending off
// rather than allocating.
const maxPendingOffs = 256

type pendingOff struct {
	tick  uint32
	node  region.NodePtr
	pitch uint8
}

// Cursor is the per-engine traversal state: the PRNG, the fractional
// playhead accumulator, the pending note-off schedule, and the per-block
// synapse resolution quota.
type Cursor struct {
	region   *region.Region
	list     *nodelist.List
	synapses *synapse.Table
	tk       *transport.TimeKeeper

	rngState uint32

	// playheadExact accumulates fractional ticks across blocks so repeated
	// per-block flooring never drifts the playhead against wall-clock time.
	playheadExact float64

	quotaPerBlock uint32

	pending    [maxPendingOffs]pendingOff
	pendingLen int
}

// New builds a Cursor over the given region, node list, synapse table and
// time keeper. seed is the xorshift32 PRNG seed; a zero seed is replaced
// with a fixed non-zero default, since xorshift32 never leaves the all-zero
// state. quotaPerBlock bounds how many synapse resolutions Process performs
// in a single call, guarding against an unproductive cycle monopolising a
// render block.
func New(r *region.Region, list *nodelist.List, synapses *synapse.Table, tk *transport.TimeKeeper, seed uint32, quotaPerBlock uint32) *Cursor {
	if seed == 0 {
		seed = 0x9e3779b9
	}
	return &Cursor{region: r, list: list, synapses: synapses, tk: tk, rngState: seed, quotaPerBlock: quotaPerBlock}
}

// xorshift32 advances and returns the PRNG state (Marsaglia's xorshift,
// 13/17/5 triple).
func (c *Cursor) xorshift32() uint32 {
	x := c.rngState
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	c.rngState = x
	return x
}

// SetPlayhead forces the playhead to tick, discarding any fractional
// accumulator state. Used for SET_PLAYHEAD and HARD_RESET commands.
func (c *Cursor) SetPlayhead(tick uint32) {
	c.playheadExact = float64(tick)
	c.region.Header.Playhead.Store(tick)
}

// Playhead returns the current integer tick position.
func (c *Cursor) Playhead() uint32 {
	return uint32(c.playheadExact)
}

// Process advances the playhead by the number of ticks blockSize samples
// span, fires every due node in [blockStart, blockEnd), resolves each
// fired node's outgoing synapses to schedule its successor(s) up to
// quotaPerBlock resolutions, fires any pending note-offs due in the same
// window, and reports region.ErrorCursorErrChainLoop if a synapse chain
// walk found the table itself corrupted. Note-on/off emission is never
// quota-gated: a self-loop or other high-fanout graph simply stalls its
// synapse resolutions (StallCounter) once quotaPerBlock is spent, while
// already-due notes still fire.
func (c *Cursor) Process(blockSize uint32, emit func(Event)) region.ErrorCode {
	blockStart := uint32(c.playheadExact)
	c.playheadExact += c.tk.TicksForSamples(blockSize)
	blockEnd := uint32(c.playheadExact)
	c.region.Header.Playhead.Store(blockEnd)

	code := c.fireDueNodes(blockStart, blockEnd, emit)
	c.fireDuePendingOffs(blockStart, blockEnd, emit)
	return code
}

func (c *Cursor) fireDueNodes(blockStart, blockEnd uint32, emit func(Event)) region.ErrorCode {
	synapseResolutions := uint32(0)
	stalled := false

	for {
		ptr := c.firstDue(blockEnd)
		if ptr == region.NullPtr {
			return region.ErrorOK
		}

		node := c.region.Node(ptr)
		fireTick := node.BaseTick
		if fireTick < blockStart {
			fireTick = blockStart
		}

		if !node.Muted() {
			emit(Event{
				Kind:         EventNoteOn,
				Pitch:        node.Pitch,
				Velocity:     node.Velocity,
				SampleOffset: c.tk.SampleOffset(fireTick, blockStart),
				Node:         ptr,
			})
			c.scheduleOff(ptr, fireTick+node.Duration, node.Pitch)
		}

		c.list.Delete(ptr)

		if synapseResolutions >= c.quotaPerBlock {
			if !stalled {
				c.region.Header.StallCounter.Add(1)
				stalled = true
			}
			continue
		}

		resolved, code := c.resolveSynapses(ptr, fireTick)
		if code != region.ErrorOK {
			return code
		}
		if resolved {
			synapseResolutions++
		}
	}
}

// firstDue returns the head node's pointer if it is due to fire before
// blockEnd, else region.NullPtr.
func (c *Cursor) firstDue(blockEnd uint32) region.NodePtr {
	head := c.list.Head()
	if head == region.NullPtr {
		return region.NullPtr
	}
	if c.region.Node(head).BaseTick >= blockEnd {
		return region.NullPtr
	}
	return head
}

// pickWeighted draws one candidate with probability proportional to its
// Weight. Candidates with all-zero weight are picked uniformly.
func (c *Cursor) pickWeighted(candidates []synapse.Candidate) synapse.Candidate {
	var total uint32
	for _, cand := range candidates {
		total += cand.Weight
	}
	if total == 0 {
		return candidates[c.xorshift32()%uint32(len(candidates))]
	}
	pick := c.xorshift32() % total
	var cumulative uint32
	for _, cand := range candidates {
		cumulative += cand.Weight
		if pick < cumulative {
			return cand
		}
	}
	return candidates[len(candidates)-1]
}

// resolveSynapses picks one outgoing edge of ptr by weighted random choice
// and reschedules its target at fireTick+jitter. A node with no outgoing
// edges (a terminal) is simply left fired and removed, reported as
// unresolved so the caller's quota isn't charged for it. Returns
// region.ErrorCursorErrChainLoop if the chain walk itself found the
// synapse table corrupted.
func (c *Cursor) resolveSynapses(ptr region.NodePtr, fireTick uint32) (bool, region.ErrorCode) {
	var candidates [synapse.MaxCandidates]synapse.Candidate
	n := 0
	_, code := c.synapses.ForEachCandidate(ptr, func(cand synapse.Candidate) {
		if n < len(candidates) {
			candidates[n] = cand
			n++
		}
	})
	if code != region.ErrorOK {
		return false, code
	}
	if n == 0 {
		return false, region.ErrorOK
	}

	chosen := c.pickWeighted(candidates[:n])

	target := chosen.Target
	newTick := fireTick + chosen.Jitter

	c.list.Delete(target)
	targetNode := c.region.Node(target)
	targetNode.BaseTick = newTick
	targetNode.Flags |= region.FlagActive
	targetNode.Flags &^= region.FlagTombstone
	c.list.Insert(target, region.NullPtr)

	return true, region.ErrorOK
}

func (c *Cursor) scheduleOff(node region.NodePtr, tick uint32, pitch uint8) {
	if c.pendingLen >= maxPendingOffs {
		copy(c.pending[:], c.pending[1:c.pendingLen])
		c.pendingLen--
	}
	c.pending[c.pendingLen] = pendingOff{tick: tick, node: node, pitch: pitch}
	c.pendingLen++
}

func (c *Cursor) fireDuePendingOffs(blockStart, blockEnd uint32, emit func(Event)) {
	write := 0
	for read := 0; read < c.pendingLen; read++ {
		off := c.pending[read]
		if off.tick < blockEnd {
			fireTick := off.tick
			if fireTick < blockStart {
				fireTick = blockStart
			}
			emit(Event{
				Kind:         EventNoteOff,
				Pitch:        off.pitch,
				SampleOffset: c.tk.SampleOffset(fireTick, blockStart),
				Node:         off.node,
			})
			continue
		}
		c.pending[write] = off
		write++
	}
	c.pendingLen = write
}
