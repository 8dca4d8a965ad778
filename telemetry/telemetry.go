// Package telemetry implements the engine's debug/observability surface
// (C12, C15): a rate limiter throttling repeated warning logs, and a
// read-only snapshot of header/table state for host-side debug overlays.
// Nothing here runs on the realtime path; Snapshot is meant to be polled
// by a UI timer, not the audio callback.
package telemetry

import (
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/synapsecore/graphengine/internal/idtable"
	"github.com/synapsecore/graphengine/internal/synapse"
	"github.com/synapsecore/graphengine/region"
	"github.com/synapsecore/graphengine/transport"
)

// WarningLimiter throttles a given warning category (e.g. "ring_full",
// "alloc_exhausted") to at most a handful of log lines per window, so a
// stuck UI thread hammering a full ring doesn't flood the log.
type WarningLimiter struct {
	limiter *catrate.Limiter
}

// NewWarningLimiter builds a limiter allowing up to maxPerSecond
// occurrences of any one category per second, and up to maxPerMinute per
// minute.
func NewWarningLimiter(maxPerSecond, maxPerMinute int) *WarningLimiter {
	return &WarningLimiter{limiter: catrate.NewLimiter(map[time.Duration]int{
		time.Second: maxPerSecond,
		time.Minute: maxPerMinute,
	})}
}

// Allow reports whether a warning in category should be logged now, given
// recent history for that category.
func (w *WarningLimiter) Allow(category string) bool {
	_, ok := w.limiter.Allow(category)
	return ok
}

// Snapshot is a read-only, single-point-in-time dump of engine state for
// debug overlays. Every field is read via an acquire load where the source
// is cross-thread; Snapshot never blocks and never mutates anything.
type Snapshot struct {
	Playhead      uint32
	BPM           float64
	PPQ           uint32
	Head          region.NodePtr
	ErrorFlag     region.ErrorCode
	StallCounter  uint32
	RingPending   uint32
	RingCapacity  uint32
	ZoneBUsed     float64
	ActiveSources int
}

// Capture reads a consistent-enough snapshot of r for telemetry.
// ActiveSources reports how many source-ID slots in ids currently resolve to a live
// node; it is an O(capacity) scan and must only be called off the audio
// thread.
func Capture(r *region.Region, ids *idtable.Table, idCapacity uint32, zoneBUtilization float64) Snapshot {
	active := 0
	for id := uint32(1); id < idCapacity; id++ {
		if ids.Resolve(id) != region.NullPtr {
			active++
		}
	}

	return Snapshot{
		Playhead:      r.Header.Playhead.Load(),
		BPM:           transport.FixedToBPM(r.Header.BPMFixed.Load()),
		PPQ:           r.Header.PPQ.Load(),
		Head:          region.NodePtr(r.Header.Head.Load()),
		ErrorFlag:     region.ErrorCode(r.Header.ErrorFlag.Load()),
		StallCounter:  r.Header.StallCounter.Load(),
		RingPending:   r.Header.RingTail.Load() - r.Header.RingHead.Load(),
		RingCapacity:  r.Header.RingCapacity,
		ZoneBUsed:     zoneBUtilization,
		ActiveSources: active,
	}
}

// SynapseFanOut counts the live (non-tombstoned) outgoing edges of src, for
// debug display of graph connectivity. The count is still returned if the
// chain walk hit ErrorCursorErrChainLoop, since a partial count is still
// useful for a debug overlay; the error is the caller's signal to also
// surface a table-corruption warning.
func SynapseFanOut(t *synapse.Table, src region.NodePtr) (int, region.ErrorCode) {
	return t.ForEachCandidate(src, func(synapse.Candidate) {})
}
