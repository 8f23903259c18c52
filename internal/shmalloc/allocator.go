package shmalloc

import "errors"

// ErrOutOfMemory is returned by Allocate when the allocator cannot satisfy
// the request and has no room (or no permission) to grow.
var ErrOutOfMemory = errors.New("shmalloc: out of memory")

// Allocator is the interface behind two interchangeable strategies, Bump
// and Pool, so a publisher doesn't need to know which backs its segment.
type Allocator interface {
	// Allocate reserves one chunk matching layout and returns its offset
	// from the segment's payload base.
	Allocate(layout Layout) (PointerOffset, error)

	// Deallocate releases a previously allocated offset. Safe to call
	// concurrently with Allocate from a different goroutine (pool) or
	// with other Deallocates racing to hit zero outstanding references
	// (bump).
	Deallocate(offset PointerOffset)

	// MaxAlignment is the strictest alignment this allocator guarantees
	// for any allocation.
	MaxAlignment() uint64
}
