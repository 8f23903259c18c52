package lockfree

import (
	"sync/atomic"
)

// Handle identifies one slot in a SlotMap across its lifetime. The
// Generation field distinguishes a freed-and-reused slot from the handle's
// original occupant (: "a multi-segment allocator is the reason
// for SegmentId tags" - the slot map applies the identical idea to port
// rosters instead of memory chunks).
type Handle struct {
	Index uint32
	Generation uint32
}

type slot[T any] struct {
	generation atomic.Uint32
	occupied atomic.Bool
	value T
}

// SlotMap is a fixed-capacity, lock-free container keyed by generation
// tagged handles ( "Dynamic config", "Lock-free slot
// container"). Insertion finds a free slot via CAS on `occupied`;
// iteration snapshots generations and skips slots that changed occupancy
// mid-scan, so a racing remove never hands out a half-written record.
//
// It lives on the Go heap and is shared only between goroutines of one
// process; the cross-process port and node rosters are
// internal/dynstorage.Roster, not this type.
type SlotMap[T any] struct {
	slots []slot[T]
}

// NewSlotMap creates a map with room for exactly capacity entries. This is
// the "maximum counts of each port kind" from the service's static config
//.
func NewSlotMap[T any](capacity int) *SlotMap[T] {
	return &SlotMap[T]{slots: make([]slot[T], capacity)}
}

// Cap returns the fixed capacity.
func (m *SlotMap[T]) Cap() int { return len(m.slots) }

// Insert finds a free slot, stores value, and returns its Handle. Returns
// ok=false if the map is full (callers translate this to
// ExceedsMaxSupportedPorts / ExceedsMaxSupportedNodes).
func (m *SlotMap[T]) Insert(value T) (Handle, bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if s.occupied.CompareAndSwap(false, true) {
			s.value = value
			gen := s.generation.Add(1)
			return Handle{Index: uint32(i), Generation: gen}, true
		}
	}
	return Handle{}, false
}

// Remove frees the slot referenced by h, iff h's generation still matches
// (i.e. it has not already been removed and reused). Returns false if h is
// stale.
func (m *SlotMap[T]) Remove(h Handle) bool {
	if int(h.Index) >= len(m.slots) {
		return false
	}
	s := &m.slots[h.Index]
	if !s.occupied.Load() || s.generation.Load() != h.Generation {
		return false
	}
	var zero T
	s.value = zero
	s.occupied.Store(false)
	return true
}

// Get returns the value at h iff the generation still matches.
func (m *SlotMap[T]) Get(h Handle) (T, bool) {
	var zero T
	if int(h.Index) >= len(m.slots) {
		return zero, false
	}
	s := &m.slots[h.Index]
	if !s.occupied.Load() || s.generation.Load() != h.Generation {
		return zero, false
	}
	return s.value, true
}

// Update atomically replaces the value at h with fn's result, iff h's
// generation still matches.
func (m *SlotMap[T]) Update(h Handle, fn func(T) T) bool {
	if int(h.Index) >= len(m.slots) {
		return false
	}
	s := &m.slots[h.Index]
	if !s.occupied.Load() || s.generation.Load() != h.Generation {
		return false
	}
	s.value = fn(s.value)
	return true
}

// Len returns a snapshot count of occupied slots.
func (m *SlotMap[T]) Len() int {
	n := 0
	for i := range m.slots {
		if m.slots[i].occupied.Load() {
			n++
		}
	}
	return n
}

// Each calls fn for every currently occupied slot, passing a Handle valid
// for use with Get/Remove. Snapshots generation before invoking fn so a
// concurrent Remove racing with iteration is observed as either "present
// with the old value" or "absent", never a torn value.
func (m *SlotMap[T]) Each(fn func(Handle, T)) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.occupied.Load() {
			continue
		}
		gen := s.generation.Load()
		value := s.value
		if s.occupied.Load() && s.generation.Load() == gen {
			fn(Handle{Index: uint32(i), Generation: gen}, value)
		}
	}
}
