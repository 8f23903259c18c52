package lockfree

import "sync/atomic"

// UniqueIndexSet hands out indices in [0,capacity) such that no two
// concurrent holders ever receive the same one, without blocking. It
// differs from FreeList only in that acquired indices are never
// implicitly recycled - the caller explicitly Releases when done, same
// contract under a different name.
type UniqueIndexSet struct {
	fl *FreeList
}

func NewUniqueIndexSet(capacity int) *UniqueIndexSet {
	return &UniqueIndexSet{fl: NewFreeList(capacity)}
}

// Acquire returns a previously-unused (or released) index.
func (s *UniqueIndexSet) Acquire() (uint32, bool) { return s.fl.Pop() }

// Release returns index to the pool of available indices.
func (s *UniqueIndexSet) Release(index uint32) { s.fl.Push(index) }

// Counter is a simple monotonically increasing sequence. It never wraps
// in practice (64 bits), and is always accessed via atomic ops so many
// goroutines may draw from it concurrently. (pkg/node keeps its own
// atomic port counter rather than using this type.)
type Counter struct {
	n atomic.Uint64
}

// Next returns the next value in the sequence, starting at 1 (0 is
// reserved to mean "unset" in zero-valued structs).
func (c *Counter) Next() uint64 { return c.n.Add(1) }
