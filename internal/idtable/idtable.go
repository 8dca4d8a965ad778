// Package idtable implements the source-ID table (C7): a direct-indexed
// array mapping a stable, UI-assigned 31-bit logical ID to the node
// currently holding it. It exists so the UI can keep referring to a node
// across compactions/PATCHes by a stable id instead of a raw pointer,
// which may become invalid or be reused.
//
// Entries are written only by the audio thread (on INSERT/DELETE) and may
// be read by either thread; source-id 0 means "no id, do not register",
// which keeps private/unregistered nodes free of this table's overhead.
package idtable

import (
	"github.com/synapsecore/graphengine/region"
)

// Table is the fixed-capacity, direct-indexed source-id -> node pointer
// map.
type Table struct {
	entries []region.NodePtr
}

// New allocates a table with the given fixed capacity. Capacity bounds the
// maximum source-id it can register (ids must be in [1, capacity)).
func New(capacity uint32) *Table {
	return &Table{entries: make([]region.NodePtr, capacity)}
}

// Register writes id -> ptr. A no-op if id is 0.
func (t *Table) Register(id uint32, ptr region.NodePtr) {
	if id == 0 || id >= uint32(len(t.entries)) {
		return
	}
	t.entries[id] = ptr
}

// Clear nulls id's entry, e.g. on node deletion. A no-op if id is 0.
func (t *Table) Clear(id uint32) {
	if id == 0 || id >= uint32(len(t.entries)) {
		return
	}
	t.entries[id] = region.NullPtr
}

// Resolve returns the node pointer currently registered for id, or
// region.NullPtr if id is 0, out of range, or was never (or no longer)
// registered.
func (t *Table) Resolve(id uint32) region.NodePtr {
	if id == 0 || id >= uint32(len(t.entries)) {
		return region.NullPtr
	}
	return t.entries[id]
}

// Reset clears every entry, for HARD_RESET.
func (t *Table) Reset() {
	for i := range t.entries {
		t.entries[i] = region.NullPtr
	}
}
