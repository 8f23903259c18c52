package blackboard

import (
	"fmt"

	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

// Reader is a read-only view of a blackboard service. Get always returns
// the most recently written value for key, taken as a consistent
// snapshot regardless of a concurrent Writer.Set - it never blocks and
// never queues history, unlike pkg/pubsub's subscriber.
type Reader[K comparable, V any] struct {
	n   *node.Node
	svc *service.Service
	id  node.UniqueReaderID
	tbl *cellTable[K, V]
	att *attachmentSet
}

// NewReader creates a Reader[K,V] for svc, owned by n. svc must have
// been opened/created against service.Blackboard. The service's cell
// table is shared in-process by its writers and readers and is created
// by whichever of them is constructed first. Fails with
// ErrExceedsMaxReaders once the service's reader roster is already at
// capacity.
func NewReader[K comparable, V any](n *node.Node, svc *service.Service) (*Reader[K, V], error) {
	if svc.Static.Pattern != service.Blackboard {
		return nil, fmt.Errorf("blackboard: service %q is not a blackboard service", svc.Static.Name)
	}
	cfg := svc.Static.Blackboard

	capacity := cfg.MaxEntries
	if capacity <= 0 {
		capacity = 1
	}
	path := service.DataSegmentPath(n.Config(), string(svc.Static.ID))
	tbl, err := tableFor[K, V](string(svc.Static.ID), path, capacity)
	if err != nil {
		return nil, err
	}

	att, err := attachmentsFor(svc)
	if err != nil {
		return nil, err
	}

	id := n.NextReaderID()
	if err := att.addReader(id.String(), id.Node, id.Counter); err != nil {
		return nil, err
	}

	return &Reader[K, V]{n: n, svc: svc, id: id, tbl: tbl, att: att}, nil
}

// ID returns the reader's unique port id.
func (r *Reader[K, V]) ID() node.UniqueReaderID { return r.id }

// Get returns the current value of key. It fails with ErrKeyNotFound if
// no Writer has ever set key, and ErrTornRead if the value could not be
// read consistently within the seqlock's bounded retry budget.
func (r *Reader[K, V]) Get(key K) (V, error) {
	slot, ok := r.tbl.lookupSlot(key)
	if !ok {
		var zero V
		return zero, ErrKeyNotFound
	}
	return r.tbl.read(slot)
}

// Close detaches the reader.
func (r *Reader[K, V]) Close() error {
	r.att.removeReader(r.id.String())
	return nil
}
