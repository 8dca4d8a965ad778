package synapse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsecore/graphengine/region"
)

func TestConnectAndWalkCandidates(t *testing.T) {
	tbl := New(16)
	src := region.PtrOf(0)
	y := region.PtrOf(1)
	z := region.PtrOf(2)

	require.Equal(t, region.ErrorOK, tbl.Connect(src, y, 250, 0))
	require.Equal(t, region.ErrorOK, tbl.Connect(src, z, 750, 5))

	var got []Candidate
	n, code := tbl.ForEachCandidate(src, func(c Candidate) { got = append(got, c) })
	require.Equal(t, region.ErrorOK, code)
	require.Equal(t, 2, n)
	require.ElementsMatch(t, []Candidate{{Target: y, Weight: 250, Jitter: 0}, {Target: z, Weight: 750, Jitter: 5}}, got)
}

func TestDisconnectTombstonesSingleEdge(t *testing.T) {
	tbl := New(16)
	src := region.PtrOf(0)
	y := region.PtrOf(1)
	z := region.PtrOf(2)
	require.Equal(t, region.ErrorOK, tbl.Connect(src, y, 100, 0))
	require.Equal(t, region.ErrorOK, tbl.Connect(src, z, 900, 0))

	tbl.Disconnect(src, y)

	var got []region.NodePtr
	_, _ = tbl.ForEachCandidate(src, func(c Candidate) { got = append(got, c.Target) })
	require.Equal(t, []region.NodePtr{z}, got)
}

func TestDeleteSourceFreesWholeChain(t *testing.T) {
	tbl := New(16)
	src := region.PtrOf(0)
	y := region.PtrOf(1)
	z := region.PtrOf(2)
	require.Equal(t, region.ErrorOK, tbl.Connect(src, y, 100, 0))
	require.Equal(t, region.ErrorOK, tbl.Connect(src, z, 900, 0))

	tbl.DeleteSource(src)

	var got []Candidate
	n, code := tbl.ForEachCandidate(src, func(c Candidate) { got = append(got, c) })
	require.Equal(t, region.ErrorOK, code)
	require.Equal(t, 0, n)
	require.Empty(t, got)

	// the freed slots must be reusable by an unrelated source
	other := region.PtrOf(3)
	require.Equal(t, region.ErrorOK, tbl.Connect(other, y, 500, 0))
}

func TestDeleteTargetTombstonesAcrossSources(t *testing.T) {
	tbl := New(16)
	a := region.PtrOf(0)
	b := region.PtrOf(1)
	victim := region.PtrOf(2)
	require.Equal(t, region.ErrorOK, tbl.Connect(a, victim, 500, 0))
	require.Equal(t, region.ErrorOK, tbl.Connect(b, victim, 500, 0))

	tbl.DeleteTarget(victim)

	n, code := tbl.ForEachCandidate(a, func(Candidate) {})
	require.Equal(t, 0, n)
	require.Equal(t, region.ErrorOK, code)
	n, code = tbl.ForEachCandidate(b, func(Candidate) {})
	require.Equal(t, 0, n)
	require.Equal(t, region.ErrorOK, code)
}

func TestConnectReturnsAllocExhaustedWhenFull(t *testing.T) {
	tbl := New(2)
	src := region.PtrOf(0)
	require.Equal(t, region.ErrorOK, tbl.Connect(src, region.PtrOf(1), 1, 0))
	require.Equal(t, region.ErrorOK, tbl.Connect(src, region.PtrOf(2), 1, 0))
	require.Equal(t, region.ErrorAllocExhausted, tbl.Connect(src, region.PtrOf(3), 1, 0))
}

func TestForEachCandidateDetectsChainCorruption(t *testing.T) {
	tbl := New(4)
	src := region.PtrOf(0)
	require.Equal(t, region.ErrorOK, tbl.Connect(src, region.PtrOf(1), 1, 0))

	headIdx, found := tbl.findHead(src)
	require.True(t, found)
	// corrupt the chain: point the head's ChainNext back at itself instead
	// of terminating, simulating a torn or miswritten link.
	tbl.slots[headIdx].ChainNext = headIdx + 1

	n, code := tbl.ForEachCandidate(src, func(Candidate) {})
	require.Equal(t, region.ErrorCursorErrChainLoop, code)
	require.LessOrEqual(t, n, maxCandidates)
}

func TestFindHeadHandlesHashCollisionsViaLinearProbing(t *testing.T) {
	// in a 4-slot table, pointers 1 and 5 hash to the same bucket (the Knuth
	// multiplier is 1 mod 4), so the second source is placed by linear
	// probing; distinct sources must still maintain independent chains.
	tbl := New(4)
	s1 := region.PtrOf(0)
	s2 := region.PtrOf(4)
	require.Equal(t, region.ErrorOK, tbl.Connect(s1, region.PtrOf(10), 1, 0))
	require.Equal(t, region.ErrorOK, tbl.Connect(s2, region.PtrOf(20), 1, 0))

	var got1, got2 []region.NodePtr
	_, _ = tbl.ForEachCandidate(s1, func(c Candidate) { got1 = append(got1, c.Target) })
	_, _ = tbl.ForEachCandidate(s2, func(c Candidate) { got2 = append(got2, c.Target) })
	require.Equal(t, []region.NodePtr{region.PtrOf(10)}, got1)
	require.Equal(t, []region.NodePtr{region.PtrOf(20)}, got2)
}
