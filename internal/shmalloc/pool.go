package shmalloc

import (
	"sync"

	"github.com/go-ipcx/ipcx/internal/lockfree"
)

// PoolAllocator pre-carves a segment into equal-size buckets and tracks
// free ones in a lock-free index queue. Allocate pops an
// index and translates it to a PointerOffset; Deallocate pushes the index
// back, so the next Allocate of the same layout may return the same offset.
//
// Every PointerOffset a pool hands out carries the one SegmentId fixed at
// construction. A pool does not grow: once every bucket is in use,
// Allocate fails with ErrOutOfMemory, and no additional segment with a
// new SegmentId is created.
type PoolAllocator struct {
	mu sync.RWMutex
	bucket Layout
	freeList *lockfree.FreeList
	segmentID SegmentId
	capacity int
}

// NewPoolAllocator creates a pool of numBuckets equal-size buckets, each
// sized and aligned per bucket (typically the result of BucketLayout).
func NewPoolAllocator(numBuckets int, bucket Layout, segmentID SegmentId) *PoolAllocator {
	return &PoolAllocator{
		bucket: bucket,
		freeList: lockfree.NewFreeList(numBuckets),
		segmentID: segmentID,
		capacity: numBuckets,
	}
}

func (p *PoolAllocator) MaxAlignment() uint64 { return p.bucket.Alignment }

// SegmentID returns this pool's SegmentId, used to tag every PointerOffset
// it hands out.
func (p *PoolAllocator) SegmentID() SegmentId { return p.segmentID }

// Capacity returns the number of buckets in this pool.
func (p *PoolAllocator) Capacity() int { return p.capacity }

// Allocate pops a free bucket index and returns it as a PointerOffset
// tagged with this pool's SegmentId. Fails with ErrOutOfMemory if every
// bucket is currently in use.
func (p *PoolAllocator) Allocate(layout Layout) (PointerOffset, error) {
	p.mu.RLock()
	bucket := p.bucket
	p.mu.RUnlock()
	if layout.Size > bucket.Size || layout.Alignment > bucket.Alignment {
		return 0, ErrAlignmentInsufficient
	}
	idx, ok := p.freeList.Pop()
	if !ok {
		return 0, ErrOutOfMemory
	}
	offset := uint64(idx) * bucket.Size
	return NewPointerOffset(offset).WithSegmentID(p.segmentID), nil
}

// Deallocate returns a bucket to the free list. The offset must belong to
// this pool's segment; callers are expected to route by SegmentId before
// calling in.
func (p *PoolAllocator) Deallocate(offset PointerOffset) {
	p.mu.RLock()
	bucket := p.bucket
	p.mu.RUnlock()
	if bucket.Size == 0 {
		return
	}
	idx := uint32(offset.Offset() / bucket.Size)
	p.freeList.Push(idx)
}

// Free returns a conservative count of currently-free buckets. Since the
// underlying FreeList is lock-free and concurrently mutated, this is a
// snapshot, useful for diagnostics/metrics, not for deciding whether the
// next Allocate will succeed.
func (p *PoolAllocator) Free() int {
	n := 0
	popped := make([]uint32, 0, p.capacity)
	for {
		idx, ok := p.freeList.Pop()
		if !ok {
			break
		}
		popped = append(popped, idx)
		n++
	}
	for _, idx := range popped {
		p.freeList.Push(idx)
	}
	return n
}
