package vm

import (
	"fmt"

	"github.com/jpamb/interpreter/jvm"
)

// Heap maps integer references to heap-resident values (arrays and
// objects). Keys come from a monotonically increasing counter; they are
// never reused within a run, and entries are never reclaimed.
type Heap struct {
	entries map[int]jvm.Value
	next    int
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{entries: make(map[int]jvm.Value)}
}

// Alloc stores v and returns its freshly assigned key.
func (h *Heap) Alloc(v jvm.Value) int {
	key := h.next
	h.next++
	h.entries[key] = v
	return key
}

// Get returns the value stored at key. A missing key is an interpreter
// defect: every non-null reference must denote a live entry.
func (h *Heap) Get(key int) (jvm.Value, error) {
	v, ok := h.entries[key]
	if !ok {
		return jvm.Value{}, fmt.Errorf("%w: heap key %d", ErrBadReference, key)
	}
	return v, nil
}

// Set replaces the value stored at key. Used by the copy-on-write array
// instructions, which rebuild the array value rather than mutating it.
func (h *Heap) Set(key int, v jvm.Value) error {
	if _, ok := h.entries[key]; !ok {
		return fmt.Errorf("%w: heap key %d", ErrBadReference, key)
	}
	h.entries[key] = v
	return nil
}

// Len returns the number of live entries.
func (h *Heap) Len() int {
	return len(h.entries)
}
