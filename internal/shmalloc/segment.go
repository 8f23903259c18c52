package shmalloc

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/go-ipcx/ipcx/internal/ospal"
)

// Segment is a named shared-memory object owned by one sender port,
// carved by an Allocator. It tracks a reference count so a publisher
// cannot unlink its segment while any subscriber's Sample still borrows a
// chunk from it.
type Segment struct {
	shm *ospal.SharedMemory
	path string
	alloc Allocator
	segmentID SegmentId
	refs atomic.Int64
}

// CreateSegment creates a new owned data segment of size bytes at path,
// and wraps it with a PoolAllocator carved into numBuckets equal buckets
// of the given bucket layout.
func CreateSegment(path string, size int, numBuckets int, bucket Layout, segmentID SegmentId) (*Segment, error) {
	shm, err := ospal.CreateSharedMemory(path, size)
	if err != nil {
		return nil, fmt.Errorf("shmalloc: create segment: %w", err)
	}
	return &Segment{
		shm: shm,
		path: path,
		alloc: NewPoolAllocator(numBuckets, bucket, segmentID),
		segmentID: segmentID,
	}, nil
}

// OpenSegment maps an existing segment read-only, as a subscriber does
// with its publisher's data segment during connection establishment.
func OpenSegment(path string) (*Segment, error) {
	shm, err := ospal.OpenSharedMemory(path, true)
	if err != nil {
		return nil, fmt.Errorf("shmalloc: open segment: %w", err)
	}
	return &Segment{shm: shm, path: path}, nil
}

// SegmentID returns the SegmentId this segment's chunks are tagged with.
func (s *Segment) SegmentID() SegmentId { return s.segmentID }

// Path returns the backing shared-memory object's path.
func (s *Segment) Path() string { return s.path }

// Allocator returns the owning allocator (nil on an opened, read-only
// segment - only the owner allocates).
func (s *Segment) Allocator() Allocator { return s.alloc }

// Acquire increments the mapping reference count. A subscriber calls this
// when it maps the segment to resolve its first sample from it.
func (s *Segment) Acquire() { s.refs.Add(1) }

// Release decrements the reference count, returning the count after the
// decrement. A publisher checks this hits zero before unlinking its
// segment.
func (s *Segment) Release() int64 { return s.refs.Add(-1) }

// RefCount returns the current reference count.
func (s *Segment) RefCount() int64 { return s.refs.Load() }

// PointerAt resolves offset (relative to this segment's payload base) to
// an unsafe.Pointer into the mapped region. Every shared-memory pointer
// graph in this codebase funnels through here exactly once, at the point
// a Sample is constructed from a dequeued PointerOffset - shared
// structures use indices/offsets, never absolute pointers.
func (s *Segment) PointerAt(offset PointerOffset) (unsafe.Pointer, error) {
	b := offset.Offset()
	data := s.shm.Bytes()
	if b >= uint64(len(data)) {
		return nil, fmt.Errorf("shmalloc: offset %d out of bounds for segment of size %d", b, len(data))
	}
	return unsafe.Pointer(&data[b]), nil
}

// BytesAt returns a byte slice view of length n starting at offset,
// bounds-checked against the mapped region.
func (s *Segment) BytesAt(offset PointerOffset, n int) ([]byte, error) {
	b := offset.Offset()
	data := s.shm.Bytes()
	if b+uint64(n) > uint64(len(data)) {
		return nil, fmt.Errorf("shmalloc: range [%d,%d) out of bounds for segment of size %d", b, b+uint64(n), len(data))
	}
	return data[b : b+uint64(n)], nil
}

// Close unmaps the segment. It does not unlink the backing file; the
// cleanup protocol decides when that's safe.
func (s *Segment) Close() error { return s.shm.Close() }

// Unlink removes the backing shared-memory object. Callers must ensure
// RefCount == 0 first.
func (s *Segment) Unlink() error { return ospal.UnlinkSharedMemory(s.path) }
