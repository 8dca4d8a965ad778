package zonea

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsecore/graphengine/region"
)

func TestAllocFreeRoundTrip(t *testing.T) {
	r := region.New(8, 4)
	a := New(r, 4)
	require.Equal(t, 4, a.freeListLen())

	p1, code := a.Alloc()
	require.Equal(t, region.ErrorOK, code)
	require.True(t, a.Owns(p1))
	require.Equal(t, 3, a.freeListLen())

	p2, code := a.Alloc()
	require.Equal(t, region.ErrorOK, code)
	require.NotEqual(t, p1, p2)

	a.Free(p1)
	require.Equal(t, 3, a.freeListLen())

	p3, code := a.Alloc()
	require.Equal(t, region.ErrorOK, code)
	require.Equal(t, p1, p3, "most recently freed node should be reused first (LIFO stack)")
}

func TestAllocExhausted(t *testing.T) {
	r := region.New(4, 2)
	a := New(r, 2)

	_, code1 := a.Alloc()
	require.Equal(t, region.ErrorOK, code1)
	_, code2 := a.Alloc()
	require.Equal(t, region.ErrorOK, code2)

	_, code3 := a.Alloc()
	require.Equal(t, region.ErrorAllocExhausted, code3)
}

func TestOwnsRejectsZoneBAndNull(t *testing.T) {
	r := region.New(8, 4)
	a := New(r, 4)

	require.False(t, a.Owns(region.NullPtr))
	require.False(t, a.Owns(region.PtrOf(5)))
	require.True(t, a.Owns(region.PtrOf(0)))
	require.True(t, a.Owns(region.PtrOf(3)))
}

// TestABAGenerationAdvances asserts the free-list head word's generation
// component strictly increases across alloc/free cycles, which is what
// makes the Treiber stack's CAS safe against the ABA problem: a stale CAS
// comparing against an old head value fails even if the index component
// happens to repeat.
func TestABAGenerationAdvances(t *testing.T) {
	r := region.New(4, 4)
	a := New(r, 4)

	word1 := r.Header.FreeListHeadZoneA.Load()
	gen1, _ := unpack(word1)

	p, _ := a.Alloc()
	a.Free(p)

	word2 := r.Header.FreeListHeadZoneA.Load()
	gen2, ptr2 := unpack(word2)

	require.NotEqual(t, gen1, gen2)
	require.Equal(t, p, ptr2)
}
