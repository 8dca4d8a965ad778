package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsecore/graphengine/internal/idtable"
	"github.com/synapsecore/graphengine/internal/synapse"
	"github.com/synapsecore/graphengine/region"
	"github.com/synapsecore/graphengine/transport"
)

func TestWarningLimiterThrottlesRepeatedCategory(t *testing.T) {
	limiter := NewWarningLimiter(2, 100)

	allowed := 0
	for i := 0; i < 5; i++ {
		if limiter.Allow("ring_full") {
			allowed++
		}
	}
	require.LessOrEqual(t, allowed, 2)
	require.Greater(t, allowed, 0)
}

func TestWarningLimiterTracksCategoriesIndependently(t *testing.T) {
	limiter := NewWarningLimiter(1, 100)
	require.True(t, limiter.Allow("ring_full"))
	require.True(t, limiter.Allow("alloc_exhausted"))
}

func TestCaptureReflectsHeaderState(t *testing.T) {
	r := region.New(8, 4)
	r.Header.Playhead.Store(42)
	r.Header.BPMFixed.Store(transport.BPMToFixed(120))
	r.Header.PPQ.Store(960)
	r.Header.RingCapacity = 8
	r.Header.RingTail.Store(3)
	r.Header.RingHead.Store(1)

	ids := idtable.New(4)
	ids.Register(1, region.PtrOf(0))

	snap := Capture(r, ids, 4, 0.5)
	require.Equal(t, uint32(42), snap.Playhead)
	require.InDelta(t, 120.0, snap.BPM, 1e-6)
	require.Equal(t, uint32(960), snap.PPQ)
	require.Equal(t, uint32(2), snap.RingPending)
	require.Equal(t, 0.5, snap.ZoneBUsed)
	require.Equal(t, 1, snap.ActiveSources)
}

func TestSynapseFanOutCountsLiveEdges(t *testing.T) {
	tbl := synapse.New(8)
	src := region.PtrOf(0)
	require.Equal(t, region.ErrorOK, tbl.Connect(src, region.PtrOf(1), 1, 0))
	require.Equal(t, region.ErrorOK, tbl.Connect(src, region.PtrOf(2), 1, 0))

	n, code := SynapseFanOut(tbl, src)
	require.Equal(t, region.ErrorOK, code)
	require.Equal(t, 2, n)
}
