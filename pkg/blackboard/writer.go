package blackboard

import (
	"fmt"

	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

// Writer is the single mutating side of a blackboard service: Set
// publishes a new value for key to every current and future Reader[K,V]
// of the same service, overwriting whatever value key previously held.
type Writer[K comparable, V any] struct {
	n    *node.Node
	svc  *service.Service
	id   node.UniqueWriterID
	cfg  *service.BlackboardConfig
	tbl  *cellTable[K, V]
	att  *attachmentSet
}

// NewWriter creates a Writer[K,V] for svc, owned by n. svc must have
// been opened/created against service.Blackboard. Fails with
// ErrExceedsMaxWriters once the service's writer roster is already at
// capacity.
func NewWriter[K comparable, V any](n *node.Node, svc *service.Service) (*Writer[K, V], error) {
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

	id := n.NextWriterID()
	if err := att.addWriter(id.String(), id.Node, id.Counter); err != nil {
		return nil, err
	}

	return &Writer[K, V]{n: n, svc: svc, id: id, cfg: cfg, tbl: tbl, att: att}, nil
}

// ID returns the writer's unique port id.
func (w *Writer[K, V]) ID() node.UniqueWriterID { return w.id }

// Set publishes value as key's new current value. Fails with
// ErrExceedsMaxEntries if key is new and the table already holds its
// configured maximum number of distinct keys.
func (w *Writer[K, V]) Set(key K, value V) error {
	slot, err := w.tbl.slotFor(key)
	if err != nil {
		return err
	}
	w.tbl.write(slot, value)
	return nil
}

// Close detaches the writer. Keys it has written remain readable by any
// Reader[K,V] still attached to the service - a blackboard never revokes
// a value on writer exit.
func (w *Writer[K, V]) Close() error {
	w.att.removeWriter(w.id.String())
	return nil
}
