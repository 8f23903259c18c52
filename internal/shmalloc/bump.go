package shmalloc

import "sync/atomic"

// BumpAllocator is a monotone pointer advance over a fixed-size region,
// used for one-shot scratch regions. Deallocate only
// resets the bump pointer back to zero once every outstanding chunk has
// been released - tracked with a simple reference count, since a bump
// allocator has no notion of individual chunk boundaries to recycle.
type BumpAllocator struct {
	capacity uint64
	alignment uint64
	next atomic.Uint64
	outstanding atomic.Int64
	highWaterAll atomic.Uint64 // largest next ever reached, for diagnostics
}

// NewBumpAllocator creates a bump allocator over a region of the given
// capacity in bytes, guaranteeing at most maxAlignment for any allocation.
func NewBumpAllocator(capacity, maxAlignment uint64) *BumpAllocator {
	if maxAlignment == 0 {
		maxAlignment = 1
	}
	return &BumpAllocator{capacity: capacity, alignment: maxAlignment}
}

func (b *BumpAllocator) MaxAlignment() uint64 { return b.alignment }

// Allocate advances the bump pointer by layout.Size (rounded to
// alignment) and returns the previous position as an offset. Fails with
// ErrOutOfMemory once the region is exhausted; a bump allocator never
// grows.
func (b *BumpAllocator) Allocate(layout Layout) (PointerOffset, error) {
	if layout.Alignment > b.alignment {
		return 0, ErrAlignmentInsufficient
	}
	size := align(layout.Size, layout.Alignment)
	for {
		cur := b.next.Load()
		start := align(cur, layout.Alignment)
		end := start + size
		if end > b.capacity {
			return 0, ErrOutOfMemory
		}
		if b.next.CompareAndSwap(cur, end) {
			b.outstanding.Add(1)
			for {
				hw := b.highWaterAll.Load()
				if end <= hw || b.highWaterAll.CompareAndSwap(hw, end) {
					break
				}
			}
			return NewPointerOffset(start), nil
		}
	}
}

// Deallocate decrements the outstanding-chunk reference count; once it
// reaches zero the bump pointer resets to the start of the region so the
// next Allocate can reuse the space.
func (b *BumpAllocator) Deallocate(_ PointerOffset) {
	if b.outstanding.Add(-1) == 0 {
		b.next.Store(0)
	}
}

// Outstanding returns the number of chunks not yet deallocated.
func (b *BumpAllocator) Outstanding() int64 { return b.outstanding.Load() }
