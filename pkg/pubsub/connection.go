package pubsub

import (
	"github.com/go-ipcx/ipcx/internal/lockfree"
	"github.com/go-ipcx/ipcx/internal/shmalloc"
)

// connection is the pair of queues wiring one publisher to one subscriber
//. dataQueue carries offsets from the publisher to the
// subscriber, sized to the subscriber's buffer; retrieveQueue carries them
// back once the subscriber drops its Sample, so the publisher's allocator
// can reclaim the chunk. retrieveQueue is sized to
// max_loaned_samples + subscriber_max_buffer_size: every loan the
// publisher can have outstanding plus every sample the subscriber's
// buffer can hold must be able to return through it without a drop, or
// drainRetrieved silently leaks chunks under load.
//
// This implementation models both queues as in-process
// internal/lockfree.SPSCQueue values rather than placing them in shared
// memory; see DESIGN.md's pkg/pubsub entry for why that simplification
// was taken and what it costs.
type connection struct {
	publisherID string
	subscriberID string
	segment *shmalloc.Segment
	dataQueue *lockfree.SPSCQueue[shmalloc.PointerOffset]
	retrieveQueue *lockfree.SPSCQueue[shmalloc.PointerOffset]
}

func newConnection(publisherID, subscriberID string, segment *shmalloc.Segment, bufferSize, retrieveCapacity int) *connection {
	return &connection{
		publisherID: publisherID,
		subscriberID: subscriberID,
		segment: segment,
		dataQueue: lockfree.NewSPSCQueue[shmalloc.PointerOffset](bufferSize),
		retrieveQueue: lockfree.NewSPSCQueue[shmalloc.PointerOffset](retrieveCapacity),
	}
}

// drainRetrieved pops every offset a subscriber has returned and
// deallocates it from the publisher's segment, reclaiming the chunk.
func (c *connection) drainRetrieved() {
	alloc := c.segment.Allocator()
	if alloc == nil {
		return
	}
	for {
		offset, ok := c.retrieveQueue.Pop()
		if !ok {
			return
		}
		alloc.Deallocate(offset)
	}
}
