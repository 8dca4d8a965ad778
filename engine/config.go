package engine

// Config configures a new Engine. The zero value is invalid only where
// documented below; every other field has a sensible default applied by
// New, following the same "panic on genuinely invalid config, default the
// rest" pattern the rest of this module's ambient stack uses.
type Config struct {
	// NodeCapacity is the total number of node slots the region preallocates.
	// Required; New panics if 0.
	NodeCapacity uint32

	// ZoneASplit is the first Zone-B index: [0, ZoneASplit) is Zone A,
	// [ZoneASplit, NodeCapacity) is Zone B. Defaults to NodeCapacity/2.
	ZoneASplit uint32

	// SynapseSlotCount is the fixed capacity of the synapse table. Defaults
	// to NodeCapacity * 4.
	SynapseSlotCount uint32

	// RingCapacity is the command ring's fixed, power-of-two capacity.
	// Defaults to 256.
	RingCapacity uint32

	// IDTableCapacity bounds the range of UI-assigned source IDs. Defaults
	// to NodeCapacity.
	IDTableCapacity uint32

	// SampleRate is the host's audio sample rate in Hz. Defaults to 44100.
	SampleRate uint32

	// BPM is the initial tempo. Defaults to 120.
	BPM float64

	// PPQ is pulses per quarter note. Defaults to 960.
	PPQ uint32

	// CursorSeed seeds the traversal PRNG. Defaults to a fixed non-zero
	// constant (xorshift32 cannot start at zero); callers wanting
	// reproducible, but distinct, runs should set this explicitly.
	CursorSeed uint32

	// QuotaPerBlock bounds synapse resolutions per Process call. Defaults
	// to 256.
	QuotaPerBlock uint32

	// MaxCommandsPerBlock bounds how many ring commands are drained per
	// Process call, so a burst of UI submissions can never make one block
	// arbitrarily slow. Defaults to 64.
	MaxCommandsPerBlock uint32

	// Logger receives warnings and lifecycle events. Defaults to a no-op
	// logger if nil.
	Logger *Logger

	// WarningsPerSecond/WarningsPerMinute bound how often any one warning
	// category is logged. Default to 5 and 60 respectively.
	WarningsPerSecond int
	WarningsPerMinute int
}

func (c Config) withDefaults() Config {
	if c.NodeCapacity == 0 {
		panic(`engine: NodeCapacity must be non-zero`)
	}
	if c.ZoneASplit == 0 {
		c.ZoneASplit = c.NodeCapacity / 2
	}
	if c.ZoneASplit > c.NodeCapacity {
		panic(`engine: ZoneASplit must not exceed NodeCapacity`)
	}
	if c.SynapseSlotCount == 0 {
		c.SynapseSlotCount = c.NodeCapacity * 4
	}
	if c.RingCapacity == 0 {
		c.RingCapacity = 256
	}
	if c.RingCapacity&(c.RingCapacity-1) != 0 {
		panic(`engine: RingCapacity must be a power of two`)
	}
	if c.IDTableCapacity == 0 {
		c.IDTableCapacity = c.NodeCapacity
	}
	if c.SampleRate == 0 {
		c.SampleRate = 44100
	}
	if c.BPM == 0 {
		c.BPM = 120
	}
	if c.PPQ == 0 {
		c.PPQ = 960
	}
	if c.CursorSeed == 0 {
		c.CursorSeed = 0x9e3779b9
	}
	if c.QuotaPerBlock == 0 {
		c.QuotaPerBlock = 256
	}
	if c.MaxCommandsPerBlock == 0 {
		c.MaxCommandsPerBlock = 64
	}
	if c.Logger == nil {
		c.Logger = NewNopLogger()
	}
	if c.WarningsPerSecond == 0 {
		c.WarningsPerSecond = 5
	}
	if c.WarningsPerMinute == 0 {
		c.WarningsPerMinute = 60
	}
	return c
}
