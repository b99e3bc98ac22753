package document

import (
	"errors"
	"sync/atomic"
)

// ErrOutOfMemory is returned when an allocator refuses a new node.
var ErrOutOfMemory = errors.New("document: out of memory")

// Allocator accounts for node lifetimes. Acquire is called before a node exists and may
// refuse it; Release is called exactly once per acquired node.
type Allocator interface {
	Acquire(k Kind) error
	Release(k Kind)
}

// Heap is the default Allocator. A positive limit caps the number of live nodes.
// Heap is safe for concurrent use.
type Heap struct {
	limit     int64
	live      atomic.Int64
	allocated atomic.Uint64
}

var defaultHeap = NewHeap(0)

// Default returns the process-wide unlimited heap used when no allocator is given.
func Default() *Heap { return defaultHeap }

// NewHeap returns a heap holding at most limit live nodes; limit <= 0 means unlimited.
func NewHeap(limit int) *Heap {
	if limit < 0 {
		limit = 0
	}
	return &Heap{limit: int64(limit)}
}

// Acquire counts a new live node, refusing it once the limit is reached.
func (h *Heap) Acquire(Kind) error {
	live := h.live.Add(1)
	if h.limit > 0 && live > h.limit {
		h.live.Add(-1)
		return ErrOutOfMemory
	}
	h.allocated.Add(1)
	return nil
}

// Release counts a node as freed.
func (h *Heap) Release(Kind) {
	h.live.Add(-1)
}

// Live returns the number of nodes acquired and not yet released.
func (h *Heap) Live() int64 { return h.live.Load() }

// Allocated returns the total number of successful acquisitions.
func (h *Heap) Allocated() uint64 { return h.allocated.Load() }

// Limit returns the live node cap, 0 when unlimited.
func (h *Heap) Limit() int { return int(h.limit) }
