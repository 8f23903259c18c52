package dynstorage

import (
	"errors"
	"os"
)

// RecordSize is the fixed payload width of one roster slot: a 128-bit
// owning node id plus that node's per-node port sequence counter at the
// moment the entry was created - pkg/node's portID binary shape. A
// service's node roster uses the same layout with counter left zero.
const RecordSize = 24

// Roster is a capacity-bounded, shared-memory-backed table keyed by
// (node id, counter) entries. It backs both a service's node roster and
// each pattern's per-kind port rosters, replacing an in-process map with
// a structure every process attached to the service can see and that
// enforces the static config's capacity the same way for all of them.
type Roster struct {
	arr *ShmSlotArray
}

// CreateRoster creates a new roster file sized to capacity entries.
func CreateRoster(path string, capacity int) (*Roster, error) {
	arr, err := CreateShmSlotArray(path, capacity, RecordSize)
	if err != nil {
		return nil, err
	}
	return &Roster{arr: arr}, nil
}

// OpenRoster maps an existing roster file read-write.
func OpenRoster(path string, capacity int) (*Roster, error) {
	arr, err := OpenShmSlotArray(path, capacity, RecordSize)
	if err != nil {
		return nil, err
	}
	return &Roster{arr: arr}, nil
}

// OpenOrCreateRoster opens path if it already exists, otherwise creates
// it sized to capacity. Used for a service's per-kind port rosters, which
// (unlike the node roster) have no single creator moment - the first
// port of that kind registered by any process creates the file, every
// later one just opens it.
func OpenOrCreateRoster(path string, capacity int) (*Roster, error) {
	r, err := OpenRoster(path, capacity)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	r, err = CreateRoster(path, capacity)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return OpenRoster(path, capacity)
		}
		return nil, err
	}
	return r, nil
}

// Insert claims a free slot for (node, counter). Returns ErrFull once the
// roster is at the static config's capacity.
func (r *Roster) Insert(node [16]byte, counter uint64) (Handle, error) {
	buf := make([]byte, RecordSize)
	copy(buf[:16], node[:])
	PutUint64(buf, 16, counter)
	return r.arr.Insert(buf)
}

// Remove vacates h's slot. Idempotent: removing an already-stale handle
// is not an error, matching dead-node cleanup's need to retire the same
// entry from more than one vantage point.
func (r *Roster) Remove(h Handle) error {
	err := r.arr.Remove(h)
	if err == ErrStale {
		return nil
	}
	return err
}

// Each calls fn once per currently occupied slot with the node id and
// counter it holds.
func (r *Roster) Each(fn func(h Handle, node [16]byte, counter uint64)) {
	r.arr.Each(func(h Handle, payload []byte) {
		var node [16]byte
		copy(node[:], payload[:16])
		fn(h, node, GetUint64(payload, 16))
	})
}

// Len returns the number of occupied slots.
func (r *Roster) Len() int { return r.arr.Len() }

// Capacity returns the roster's fixed slot count.
func (r *Roster) Capacity() int { return r.arr.Capacity() }

// Close unmaps the roster without removing its backing file.
func (r *Roster) Close() error { return r.arr.Close() }

// Unlink removes the roster's backing file. Callers only do this when
// retiring the owning service entirely.
func (r *Roster) Unlink() error { return r.arr.Unlink() }
