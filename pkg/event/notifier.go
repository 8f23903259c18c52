package event

import (
	"fmt"

	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

// Notifier is a port that wakes every connected Listener on a service
// with an application-chosen event id, without carrying any payload -
// the "doorbell, not a mailbox" half of the event pattern
// (SPEC_FULL.md §4.4).
type Notifier struct {
	n   *node.Node
	svc *service.Service
	id  node.UniqueNotifierID
	cfg *service.EventConfig
	reg *eventRegistry
}

// NewNotifier creates a Notifier for svc, owned by n. Fails with
// ErrExceedsMaxNotifiers once the service's notifier roster is already at
// capacity.
func NewNotifier(n *node.Node, svc *service.Service) (*Notifier, error) {
	if svc.Static.Pattern != service.Event {
		return nil, fmt.Errorf("event: service %q is not an event service", svc.Static.Name)
	}

	reg, err := eventRegistryFor(svc)
	if err != nil {
		return nil, err
	}

	id := n.NextNotifierID()
	if err := reg.registerNotifier(id.String(), id.Node, id.Counter); err != nil {
		return nil, err
	}

	return &Notifier{
		n: n, svc: svc, id: id,
		cfg: svc.Static.Event,
		reg: reg,
	}, nil
}

// ID returns this notifier's unique port id.
func (nt *Notifier) ID() node.UniqueNotifierID { return nt.id }

// Notify wakes every currently connected Listener with eventID, returning
// the number of listeners actually notified. Fails with
// ErrEventIDOutOfRange if eventID exceeds the service's EventIDMaxValue.
func (nt *Notifier) Notify(eventID uint64) (int, error) {
	if nt.cfg.EventIDMaxValue > 0 && eventID > nt.cfg.EventIDMaxValue {
		return 0, ErrEventIDOutOfRange
	}
	return nt.reg.broadcast(eventID), nil
}

// Close vacates this notifier's slot in the shared notifier roster.
func (nt *Notifier) Close() error {
	nt.reg.unregisterNotifier(nt.id.String())
	return nil
}
