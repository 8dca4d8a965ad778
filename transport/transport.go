// Package transport implements the tempo/time-keeping state (C8): BPM,
// PPQ, playhead, and the derived samples-per-tick conversion used to map
// a render block's sample count to a tick window, and a tick back to a
// sample offset within a block.
package transport

// FixedPointShift is the number of fractional bits BPM is stored with in
// the shared header (16.16 fixed point), to keep the value representable
// as a plain uint32 without floating point in the header itself.
const FixedPointShift = 16

// BPMToFixed converts a floating point BPM into its 16.16 fixed-point
// header representation.
func BPMToFixed(bpm float64) uint32 {
	return uint32(bpm * float64(uint32(1)<<FixedPointShift))
}

// FixedToBPM converts a 16.16 fixed-point BPM back to floating point.
func FixedToBPM(fixed uint32) float64 {
	return float64(fixed) / float64(uint32(1)<<FixedPointShift)
}

// TimeKeeper derives samples-per-tick from BPM/PPQ/sample rate, and
// converts between ticks and samples. It holds no
// cross-thread state of its own — BPM/PPQ/playhead live in the shared
// region's header; TimeKeeper is a pure calculator the audio thread
// recomputes from whenever one of its inputs changes.
type TimeKeeper struct {
	BPM        float64
	PPQ        uint32
	SampleRate uint32

	samplesPerTick float64
}

// NewTimeKeeper builds a TimeKeeper and computes its initial derived
// value.
func NewTimeKeeper(bpm float64, ppq, sampleRate uint32) *TimeKeeper {
	tk := &TimeKeeper{BPM: bpm, PPQ: ppq, SampleRate: sampleRate}
	tk.Recompute()
	return tk
}

// Recompute derives samples_per_tick = (sample_rate * 60) / (bpm * ppq).
// Must be called whenever BPM, PPQ, or SampleRate changes; it is not
// implicitly recomputed on every access, since the formula is only valid
// to re-derive when an input actually moved.
func (tk *TimeKeeper) Recompute() {
	if tk.BPM <= 0 || tk.PPQ == 0 {
		tk.samplesPerTick = 0
		return
	}
	tk.samplesPerTick = (float64(tk.SampleRate) * 60) / (tk.BPM * float64(tk.PPQ))
}

// SamplesPerTick returns the current derived conversion factor.
func (tk *TimeKeeper) SamplesPerTick() float64 {
	return tk.samplesPerTick
}

// TicksForSamples returns how many ticks n samples span, as a fractional
// value; callers that need a whole-tick block boundary floor it
// themselves — the playhead advances by whole ticks, never fractional ones.
func (tk *TimeKeeper) TicksForSamples(n uint32) float64 {
	if tk.samplesPerTick == 0 {
		return 0
	}
	return float64(n) / tk.samplesPerTick
}

// SampleOffset returns the sample offset, within a block starting at
// blockStartTick, at which eventTick falls.
func (tk *TimeKeeper) SampleOffset(eventTick, blockStartTick uint32) uint32 {
	delta := float64(eventTick) - float64(blockStartTick)
	if delta < 0 {
		delta = 0
	}
	return uint32(delta * tk.samplesPerTick)
}
