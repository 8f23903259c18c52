// Package dynstorage implements "dynamic storage": named, process-wide
// shared-memory regions that outlive any single mapping and hold service
// management data and generation-tagged port rosters. It is the
// cross-process counterpart of internal/lockfree.SlotMap: the same
// generation-tagged-slot idea, but the slots live in mmap'd bytes instead
// of a Go-heap array, because multiple processes - not just multiple
// goroutines - need to observe and mutate the roster.
//
// The seqlock-over-mmap technique here is grounded on a cache-line-aligned
// seqlock ring buffer over syscall.Mmap, generalized to a fixed-capacity
// array of variable-content, fixed-size slots instead of a single ring.
package dynstorage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/go-ipcx/ipcx/internal/ospal"
)

// Slot states packed into the leading 4 bytes of each slot.
const (
	stateFree uint32 = 0 // low 2 bits
	stateClaiming uint32 = 1
	stateOccupied uint32 = 2
	stateFlagMask uint32 = 0x3
)

// ErrFull is returned by Insert when every slot is occupied or being
// concurrently claimed.
var ErrFull = errors.New("dynstorage: slot array is full")

// ErrStale is returned by Get/Remove when the Handle's generation no
// longer matches the slot's current occupant.
var ErrStale = errors.New("dynstorage: stale handle")

// Handle identifies one slot and the generation of its current occupant,
// exactly like internal/lockfree.Handle but valid across process
// boundaries since it only names an index + generation, never a pointer.
type Handle struct {
	Index uint32
	Generation uint32
}

// ShmSlotArray is a fixed-capacity array of fixed-size byte records backed
// by a shared-memory mapping. Every slot is independently claimable via
// CAS on its leading state word; no global lock is ever taken.
type ShmSlotArray struct {
	shm *ospal.SharedMemory
	path string
	capacity int
	slotSize int // total bytes per slot, including the 4-byte state header
	payload int // slotSize - headerSize
}

const slotHeaderSize = 4

// CreateShmSlotArray creates a new shared-memory region sized for
// capacity slots of payloadSize bytes each, all initially free.
func CreateShmSlotArray(path string, capacity, payloadSize int) (*ShmSlotArray, error) {
	slotSize := slotHeaderSize + payloadSize
	shm, err := ospal.CreateSharedMemory(path, slotSize*capacity)
	if err != nil {
		return nil, fmt.Errorf("dynstorage: create slot array: %w", err)
	}
	return &ShmSlotArray{shm: shm, path: path, capacity: capacity, slotSize: slotSize, payload: payloadSize}, nil
}

// OpenShmSlotArray maps an existing slot array read-write (every node that
// attaches to a service's dynamic config opens it this way).
func OpenShmSlotArray(path string, capacity, payloadSize int) (*ShmSlotArray, error) {
	slotSize := slotHeaderSize + payloadSize
	shm, err := ospal.OpenSharedMemory(path, false)
	if err != nil {
		return nil, fmt.Errorf("dynstorage: open slot array: %w", err)
	}
	if shm.Len() < slotSize*capacity {
		shm.Close()
		return nil, fmt.Errorf("dynstorage: slot array %s is smaller than expected (%d < %d)", path, shm.Len(), slotSize*capacity)
	}
	return &ShmSlotArray{shm: shm, path: path, capacity: capacity, slotSize: slotSize, payload: payloadSize}, nil
}

// Capacity returns the number of slots.
func (a *ShmSlotArray) Capacity() int { return a.capacity }

// PayloadSize returns the per-slot payload size in bytes.
func (a *ShmSlotArray) PayloadSize() int { return a.payload }

func (a *ShmSlotArray) stateAddr(index int) *uint32 {
	base := a.shm.Bytes()
	off := index * a.slotSize
	return (*uint32)(unsafe.Pointer(&base[off]))
}

func (a *ShmSlotArray) payloadBytes(index int) []byte {
	base := a.shm.Bytes()
	off := index*a.slotSize + slotHeaderSize
	return base[off : off+a.payload]
}

func generationOf(state uint32) uint32 { return state >> 2 }
func flagOf(state uint32) uint32 { return state & stateFlagMask }
func makeState(generation, flag uint32) uint32 {
	return generation<<2 | (flag & stateFlagMask)
}

// Insert finds a free slot, CASes it into the claiming state, writes
// payload, then publishes it as occupied. Returns ErrFull if every slot is
// occupied or contended away during the scan (a retry by the caller
// resolves ordinary contention).
func (a *ShmSlotArray) Insert(payload []byte) (Handle, error) {
	if len(payload) != a.payload {
		return Handle{}, fmt.Errorf("dynstorage: payload size %d does not match slot payload size %d", len(payload), a.payload)
	}
	for i := 0; i < a.capacity; i++ {
		addr := a.stateAddr(i)
		cur := atomic.LoadUint32(addr)
		if flagOf(cur) != stateFree {
			continue
		}
		gen := generationOf(cur)
		claiming := makeState(gen, stateClaiming)
		if !atomic.CompareAndSwapUint32(addr, cur, claiming) {
			continue
		}
		copy(a.payloadBytes(i), payload)
		occupied := makeState(gen, stateOccupied)
		atomic.StoreUint32(addr, occupied)
		return Handle{Index: uint32(i), Generation: gen}, nil
	}
	return Handle{}, ErrFull
}

// Get reads the slot at h.Index, returning ErrStale if its generation no
// longer matches (already removed and possibly reused).
func (a *ShmSlotArray) Get(h Handle) ([]byte, error) {
	if int(h.Index) >= a.capacity {
		return nil, ErrStale
	}
	addr := a.stateAddr(int(h.Index))
	state := atomic.LoadUint32(addr)
	if flagOf(state) != stateOccupied || generationOf(state) != h.Generation {
		return nil, ErrStale
	}
	out := make([]byte, a.payload)
	copy(out, a.payloadBytes(int(h.Index)))
	// Re-check after the copy: if the generation changed mid-copy we raced
	// a concurrent Remove+Insert and must not hand out a torn read.
	state2 := atomic.LoadUint32(addr)
	if state2 != state {
		return nil, ErrStale
	}
	return out, nil
}

// Remove frees the slot at h, bumping its generation so stale handles are
// rejected by future Get calls. Idempotent: removing an already-stale
// handle is a no-op returning ErrStale, never a double-free panic - this
// is what makes cleanup racing between multiple live nodes safe.
func (a *ShmSlotArray) Remove(h Handle) error {
	if int(h.Index) >= a.capacity {
		return ErrStale
	}
	addr := a.stateAddr(int(h.Index))
	cur := atomic.LoadUint32(addr)
	if flagOf(cur) != stateOccupied || generationOf(cur) != h.Generation {
		return ErrStale
	}
	freed := makeState(h.Generation+1, stateFree)
	if !atomic.CompareAndSwapUint32(addr, cur, freed) {
		return ErrStale
	}
	return nil
}

// Each calls fn for every currently occupied slot. Snapshots each slot's
// state before and after copying its payload so a concurrent mutation
// never hands fn a torn record.
func (a *ShmSlotArray) Each(fn func(Handle, []byte)) {
	for i := 0; i < a.capacity; i++ {
		addr := a.stateAddr(i)
		state := atomic.LoadUint32(addr)
		if flagOf(state) != stateOccupied {
			continue
		}
		payload := make([]byte, a.payload)
		copy(payload, a.payloadBytes(i))
		if atomic.LoadUint32(addr) != state {
			continue
		}
		fn(Handle{Index: uint32(i), Generation: generationOf(state)}, payload)
	}
}

// Len returns a snapshot count of occupied slots.
func (a *ShmSlotArray) Len() int {
	n := 0
	for i := 0; i < a.capacity; i++ {
		if flagOf(atomic.LoadUint32(a.stateAddr(i))) == stateOccupied {
			n++
		}
	}
	return n
}

// Close unmaps the array.
func (a *ShmSlotArray) Close() error { return a.shm.Close() }

// Unlink removes the backing shared-memory object.
func (a *ShmSlotArray) Unlink() error { return ospal.UnlinkSharedMemory(a.path) }

// PutUint32 / GetUint32 are small helpers record encoders use to pack
// fixed integer fields into a payload buffer.
func PutUint32(buf []byte, off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:], v) }
func GetUint32(buf []byte, off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }
func PutUint64(buf []byte, off int, v uint64) { binary.LittleEndian.PutUint64(buf[off:], v) }
func GetUint64(buf []byte, off int) uint64 { return binary.LittleEndian.Uint64(buf[off:]) }
