package nodelist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsecore/graphengine/region"
)

func newNode(r *region.Region, idx uint32, baseTick, seq uint32) region.NodePtr {
	ptr := region.PtrOf(idx)
	*r.Node(ptr) = region.Node{
		Opcode:   region.OpcodeNote,
		BaseTick: baseTick,
		Seq:      seq,
		Flags:    region.FlagActive,
	}
	return ptr
}

func TestInsertMaintainsTickOrder(t *testing.T) {
	r := region.New(8, 8)
	l := New(r)

	p2 := newNode(r, 1, 480, 2)
	p0 := newNode(r, 0, 0, 1)
	p1 := newNode(r, 2, 240, 3)

	l.Insert(p2, region.NullPtr)
	l.Insert(p0, region.NullPtr)
	l.Insert(p1, region.NullPtr)

	require.True(t, l.Sorted())

	var order []region.NodePtr
	l.Walk(func(ptr region.NodePtr, _ *region.Node) bool {
		order = append(order, ptr)
		return true
	})
	require.Equal(t, []region.NodePtr{p0, p1, p2}, order)
}

func TestInsertTieBreaksBySeq(t *testing.T) {
	r := region.New(8, 8)
	l := New(r)

	pLater := newNode(r, 0, 100, 5)
	pEarlier := newNode(r, 1, 100, 2)

	l.Insert(pLater, region.NullPtr)
	l.Insert(pEarlier, region.NullPtr)

	var order []region.NodePtr
	l.Walk(func(ptr region.NodePtr, _ *region.Node) bool {
		order = append(order, ptr)
		return true
	})
	require.Equal(t, []region.NodePtr{pEarlier, pLater}, order)
}

func TestInsertAfterHint(t *testing.T) {
	r := region.New(8, 8)
	l := New(r)

	a := newNode(r, 0, 0, 1)
	c := newNode(r, 1, 1000, 2)
	l.Insert(a, region.NullPtr)
	l.Insert(c, region.NullPtr)

	b := newNode(r, 2, 500, 3)
	l.Insert(b, a)

	var order []region.NodePtr
	l.Walk(func(ptr region.NodePtr, _ *region.Node) bool {
		order = append(order, ptr)
		return true
	})
	require.Equal(t, []region.NodePtr{a, b, c}, order)
}

func TestDeleteUnlinksAndTombstones(t *testing.T) {
	r := region.New(8, 8)
	l := New(r)

	a := newNode(r, 0, 0, 1)
	b := newNode(r, 1, 100, 2)
	c := newNode(r, 2, 200, 3)
	l.Insert(a, region.NullPtr)
	l.Insert(b, region.NullPtr)
	l.Insert(c, region.NullPtr)

	require.True(t, l.Delete(b))
	require.False(t, r.Node(b).Active())
	require.True(t, r.Node(b).Flags&region.FlagTombstone != 0)

	var order []region.NodePtr
	l.Walk(func(ptr region.NodePtr, _ *region.Node) bool {
		order = append(order, ptr)
		return true
	})
	require.Equal(t, []region.NodePtr{a, c}, order)

	require.False(t, l.Delete(b), "deleting an already-removed node reports false")
}

func TestDeleteHead(t *testing.T) {
	r := region.New(8, 8)
	l := New(r)

	a := newNode(r, 0, 0, 1)
	b := newNode(r, 1, 100, 2)
	l.Insert(a, region.NullPtr)
	l.Insert(b, region.NullPtr)

	require.True(t, l.Delete(a))
	require.Equal(t, b, l.Head())
}
