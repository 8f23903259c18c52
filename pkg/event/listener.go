package event

import (
	"fmt"
	"time"

	"github.com/go-ipcx/ipcx/internal/lockfree"
	"github.com/go-ipcx/ipcx/internal/ospal"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

// Listener is a port that receives event ids pushed by every connected
// Notifier on a service, waking via its SignalMechanism (LocalSemaphore
// by default - see WithEventFD for the cross-process variant).
type Listener struct {
	n    *node.Node
	svc  *service.Service
	id   node.UniqueListenerID
	conn *listenerConn
	reg  *eventRegistry
}

// ListenerOption configures NewListener.
type ListenerOption func(*Listener) error

// WithEventFD swaps the default LocalSemaphore for a real
// internal/ospal.EventFD, needed when the notifying process is not this
// one (see SPEC_FULL.md §4.4's two-implementation split).
func WithEventFD() ListenerOption {
	return func(l *Listener) error {
		fd, err := ospal.NewEventFD()
		if err != nil {
			return fmt.Errorf("event: with event fd: %w", err)
		}
		l.conn.signal = fd
		return nil
	}
}

// NewListener creates a Listener for svc, owned by n. Fails with
// ErrExceedsMaxListeners once the service's listener roster is already at
// capacity.
func NewListener(n *node.Node, svc *service.Service, opts ...ListenerOption) (*Listener, error) {
	if svc.Static.Pattern != service.Event {
		return nil, fmt.Errorf("event: service %q is not an event service", svc.Static.Name)
	}
	cfg := svc.Static.Event

	capacity := cfg.MaxNotifiers
	if capacity <= 0 {
		capacity = 1
	}

	reg, err := eventRegistryFor(svc)
	if err != nil {
		return nil, err
	}

	id := n.NextListenerID()
	l := &Listener{
		n: n, svc: svc, id: id, reg: reg,
		conn: &listenerConn{
			queue:  lockfree.NewSPSCQueue[uint64](capacity),
			signal: ospal.NewLocalSemaphore(),
		},
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if err := reg.registerListener(id.String(), id.Node, id.Counter, l.conn); err != nil {
		l.conn.signal.Close()
		return nil, err
	}
	return l, nil
}

// ID returns this listener's unique port id.
func (l *Listener) ID() node.UniqueListenerID { return l.id }

// TryWait drains every event id queued since the previous TryWait/Wait
// call, without blocking. Returns an empty slice if none are queued.
func (l *Listener) TryWait() []uint64 {
	var ids []uint64
	for {
		id, ok := l.conn.queue.Pop()
		if !ok {
			return ids
		}
		ids = append(ids, id)
	}
}

// Wait blocks until at least one event id arrives, the timeout elapses
// (ospal.ErrTimedOut), or a signal interrupts the wait
// (ospal.ErrInterrupted, EventFD-backed listeners only), then drains and
// returns every id queued at that point.
func (l *Listener) Wait(timeout time.Duration) ([]uint64, error) {
	if ids := l.TryWait(); len(ids) > 0 {
		return ids, nil
	}
	if err := l.conn.signal.WaitTimeout(timeout); err != nil {
		return nil, err
	}
	if ids := l.TryWait(); len(ids) > 0 {
		return ids, nil
	}
	return nil, ospal.ErrTimedOut
}

// Close unregisters this listener from its service's registry, vacates its
// roster slot, and releases its signal mechanism.
func (l *Listener) Close() error {
	l.reg.unregisterListener(l.id.String())
	return l.conn.signal.Close()
}
