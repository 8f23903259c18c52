package pubsub

import (
	"unsafe"

	"github.com/go-ipcx/ipcx/internal/shmalloc"
)

// Loan is a mutable, not-yet-sent chunk a Publisher[T] hands out from
// LoanUninit. Write through Value and call Send (or
// SendCopy's equivalent internal path) to commit it, or Abandon to
// release the chunk back to the allocator without publishing anything.
type Loan[T any] struct {
	publisher *Publisher[T]
	offset shmalloc.PointerOffset
	value *T
	resolved bool
}

// Value returns a pointer to the loaned, uninitialized payload storage.
// Write through it before calling Send.
func (l *Loan[T]) Value() *T { return l.value }

// Abandon releases the loan's chunk back to the publisher's allocator
// without sending anything. Calling it after Send is a no-op.
func (l *Loan[T]) Abandon() {
	if l.resolved {
		return
	}
	l.resolved = true
	l.publisher.releaseLoan(l.offset)
}

// Sample is a subscriber's borrowed, read-only view of one received
// payload. Release must be called exactly once to return
// the chunk to its owning publisher; dropping a Sample without releasing
// it leaks the chunk until the publisher's dead-node cleanup runs (Go has
// no destructors to enforce this automatically - see note on
// RAII in ).
type Sample[T any] struct {
	conn *connection
	sub *subscriberState
	offset shmalloc.PointerOffset
	value *T
	released bool
}

// Value returns a pointer to the received payload. The memory it points
// to belongs to the publisher's segment; treat it as read-only.
func (s *Sample[T]) Value() *T { return s.value }

// Release returns this sample's chunk to the publisher via the
// connection's retrieve queue and frees the subscriber's borrow slot.
// Calling Release more than once returns ErrAlreadyReleased.
func (s *Sample[T]) Release() error {
	if s.released {
		return ErrAlreadyReleased
	}
	s.released = true
	s.sub.borrowed.Add(-1)
	if !s.conn.retrieveQueue.Push(s.offset) {
		return ErrConnectionFailure
	}
	return nil
}

func resolvePayload[T any](seg *shmalloc.Segment, chunkOffset shmalloc.PointerOffset, payloadRel uint64) (*T, error) {
	payloadOffset := shmalloc.NewPointerOffset(chunkOffset.Offset() + payloadRel).WithSegmentID(chunkOffset.SegmentID())
	ptr, err := seg.PointerAt(payloadOffset)
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Pointer(ptr)), nil
}
