package blackboard

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/go-ipcx/ipcx/internal/ospal"
)

const maxSeqlockRetries = 16

// cellTable is a generic, shared-memory-backed array of seqlock-protected
// cells, one per blackboard key. Grounded on the cache-line seqlock ring
// buffer technique in the retrieval pack's
// .../feeder-shm-seqlock.go.go (odd sequence number = write in progress,
// even = stable, reader retries on a torn read), generalized from a
// single fixed-layout ring of one message type to a keyed table of an
// arbitrary generic value type.
//
// Which key maps to which slot is tracked in an ordinary Go map guarded
// by mu rather than in shared memory: the same in-process simplification
// pkg/pubsub's connection registry makes (see DESIGN.md) - a real
// cross-process blackboard would additionally publish the key->slot
// assignment through the service's dynamic config so a reader opening the
// segment cold can discover it.
type cellTable[K comparable, V any] struct {
	shm *ospal.SharedMemory
	path string
	capacity int
	cellSize int
	valOffset int

	mu sync.Mutex
	index map[K]int
	nextSlot int
}

func cellSizeFor[V any]() (cellSize, valOffset int) {
	var zero V
	align := int(unsafe.Alignof(zero))
	off := alignUp(4, align)
	return off + int(unsafe.Sizeof(zero)), off
}

func alignUp(size, alignment int) int {
	if alignment <= 1 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

func createCellTable[K comparable, V any](path string, capacity int) (*cellTable[K, V], error) {
	cellSize, valOffset := cellSizeFor[V]()
	shm, err := ospal.CreateSharedMemory(path, cellSize*capacity)
	if err != nil {
		return nil, fmt.Errorf("blackboard: create cell table: %w", err)
	}
	return &cellTable[K, V]{
		shm: shm, path: path, capacity: capacity,
		cellSize: cellSize, valOffset: valOffset,
		index: map[K]int{},
	}, nil
}

func (t *cellTable[K, V]) seqAddr(slot int) *uint32 {
	base := t.shm.Bytes()
	return (*uint32)(unsafe.Pointer(&base[slot*t.cellSize]))
}

func (t *cellTable[K, V]) valueAddr(slot int) *V {
	base := t.shm.Bytes()
	return (*V)(unsafe.Pointer(&base[slot*t.cellSize+t.valOffset]))
}

// slotFor returns the slot assigned to key, assigning the next free one
// if key has not been written before. Fails with ErrExceedsMaxEntries if
// every slot is already assigned to a different key.
func (t *cellTable[K, V]) slotFor(key K) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot, ok := t.index[key]; ok {
		return slot, nil
	}
	if t.nextSlot >= t.capacity {
		return 0, ErrExceedsMaxEntries
	}
	slot := t.nextSlot
	t.nextSlot++
	t.index[key] = slot
	return slot, nil
}

// lookupSlot returns the slot already assigned to key, without assigning
// a new one - used by Reader.Get, which cannot create keys.
func (t *cellTable[K, V]) lookupSlot(key K) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, ok := t.index[key]
	return slot, ok
}

// write stores value into key's slot using the seqlock write protocol:
// bump the sequence to odd before writing, to even after, so any
// concurrent reader sees it is mid-write and retries.
func (t *cellTable[K, V]) write(slot int, value V) {
	seqAddr := t.seqAddr(slot)
	seq := atomic.LoadUint32(seqAddr)
	atomic.StoreUint32(seqAddr, seq+1)
	*t.valueAddr(slot) = value
	atomic.StoreUint32(seqAddr, seq+2)
}

// read takes a consistent snapshot of slot's value, retrying up to
// maxSeqlockRetries times if it observes a write in progress or a torn
// read (the sequence number changed between the start and end of the
// copy).
func (t *cellTable[K, V]) read(slot int) (V, error) {
	seqAddr := t.seqAddr(slot)
	for i := 0; i < maxSeqlockRetries; i++ {
		seq1 := atomic.LoadUint32(seqAddr)
		if seq1&1 != 0 {
			continue // write in progress
		}
		value := *t.valueAddr(slot)
		seq2 := atomic.LoadUint32(seqAddr)
		if seq1 == seq2 {
			return value, nil
		}
	}
	var zero V
	return zero, ErrTornRead
}

func (t *cellTable[K, V]) close() error { return t.shm.Close() }

func (t *cellTable[K, V]) unlink() error { return ospal.UnlinkSharedMemory(t.path) }
