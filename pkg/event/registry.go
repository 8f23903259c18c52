package event

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ipcx/ipcx/internal/dynstorage"
	"github.com/go-ipcx/ipcx/internal/lockfree"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

func init() {
	node.RegisterPatternCleaner(cleaner{})
}

type cleaner struct{}

// CleanupNode drops every listener and notifier owned by a dead node
// across every service's registry, closing each dropped listener's signal
// so nothing blocks waiting on it forever, and retiring their slots in the
// shared-memory notifier/listener rosters behind them.
func (cleaner) CleanupNode(id node.NodeId) error {
	prefix := id.String() + "-"

	eventRegistriesMu.Lock()
	all := make([]*eventRegistry, 0, len(eventRegistries))
	for _, r := range eventRegistries {
		all = append(all, r)
	}
	eventRegistriesMu.Unlock()

	for _, r := range all {
		r.mu.Lock()
		var deadListenerHandles, deadNotifierHandles []dynstorage.Handle
		for listenerID, conn := range r.listeners {
			if !strings.HasPrefix(listenerID, prefix) {
				continue
			}
			conn.signal.Close()
			delete(r.listeners, listenerID)
			if h, ok := r.listenerHandles[listenerID]; ok {
				deadListenerHandles = append(deadListenerHandles, h)
				delete(r.listenerHandles, listenerID)
			}
		}
		for notifierID, h := range r.notifierHandles {
			if strings.HasPrefix(notifierID, prefix) {
				deadNotifierHandles = append(deadNotifierHandles, h)
				delete(r.notifierHandles, notifierID)
			}
		}
		r.mu.Unlock()

		for _, h := range deadListenerHandles {
			r.listenerRoster.Remove(h)
		}
		for _, h := range deadNotifierHandles {
			r.notifierRoster.Remove(h)
		}
	}
	return nil
}

// listenerConn is the per-listener delivery queue plus the signal every
// connected notifier wakes after pushing an event id - the event
// equivalent of pkg/pubsub's connection, minus the data segment (event
// ids are small enough to carry by value, never by shared-memory offset).
type listenerConn struct {
	queue  *lockfree.SPSCQueue[uint64]
	signal SignalMechanism
}

// eventRegistry resolves notifier/listener discovery for one service. The
// notifier and listener rosters are shared-memory internal/dynstorage.Roster
// instances keyed by the service's port-roster paths, capped at the static
// config's max-notifiers/max-listeners the same way for every process
// attached to the service. The delivery queues themselves - a listenerConn's
// SPSC queue and signal - stay in-process, exactly as pkg/pubsub's
// connections do: a process only has a queue for the listeners it has
// itself created, but every process sees the same roster occupancy.
type eventRegistry struct {
	mu        sync.Mutex
	listeners map[string]*listenerConn

	notifierRoster  *dynstorage.Roster
	notifierHandles map[string]dynstorage.Handle
	listenerRoster  *dynstorage.Roster
	listenerHandles map[string]dynstorage.Handle
}

var (
	eventRegistriesMu sync.Mutex
	eventRegistries   = map[string]*eventRegistry{}
)

// eventRegistryFor returns the shared registry for svc, opening or creating
// its notifier/listener rosters the first time any port on this process
// attaches to it.
func eventRegistryFor(svc *service.Service) (*eventRegistry, error) {
	serviceID := string(svc.Static.ID)

	eventRegistriesMu.Lock()
	defer eventRegistriesMu.Unlock()
	if r, ok := eventRegistries[serviceID]; ok {
		return r, nil
	}

	cfg := svc.Static.Event
	notifierRoster, err := dynstorage.OpenOrCreateRoster(svc.PortRosterPath("notif"), cfg.MaxNotifiers)
	if err != nil {
		return nil, fmt.Errorf("event: notifier roster: %w", err)
	}
	listenerRoster, err := dynstorage.OpenOrCreateRoster(svc.PortRosterPath("listen"), cfg.MaxListeners)
	if err != nil {
		notifierRoster.Close()
		return nil, fmt.Errorf("event: listener roster: %w", err)
	}

	r := &eventRegistry{
		listeners:       map[string]*listenerConn{},
		notifierRoster:  notifierRoster,
		notifierHandles: map[string]dynstorage.Handle{},
		listenerRoster:  listenerRoster,
		listenerHandles: map[string]dynstorage.Handle{},
	}
	eventRegistries[serviceID] = r
	return r, nil
}

// registerListener claims listenerID a slot in the shared listener roster,
// failing with ErrExceedsMaxListeners once max-listeners is already
// occupied, then makes conn reachable from broadcast.
func (r *eventRegistry) registerListener(listenerID string, node_ node.NodeId, counter uint64, conn *listenerConn) error {
	h, err := r.listenerRoster.Insert([16]byte(node_), counter)
	if err != nil {
		if errors.Is(err, dynstorage.ErrFull) {
			return ErrExceedsMaxListeners
		}
		return err
	}
	r.mu.Lock()
	r.listeners[listenerID] = conn
	r.listenerHandles[listenerID] = h
	r.mu.Unlock()
	return nil
}

// unregisterListener drops listenerID's queue and vacates its slot in the
// shared listener roster. Idempotent.
func (r *eventRegistry) unregisterListener(listenerID string) {
	r.mu.Lock()
	delete(r.listeners, listenerID)
	h, ok := r.listenerHandles[listenerID]
	delete(r.listenerHandles, listenerID)
	r.mu.Unlock()
	if ok {
		r.listenerRoster.Remove(h)
	}
}

// registerNotifier claims notifierID a slot in the shared notifier roster,
// failing with ErrExceedsMaxNotifiers once max-notifiers is already
// occupied. Notifiers carry no local delivery state, only a roster handle.
func (r *eventRegistry) registerNotifier(notifierID string, node_ node.NodeId, counter uint64) error {
	h, err := r.notifierRoster.Insert([16]byte(node_), counter)
	if err != nil {
		if errors.Is(err, dynstorage.ErrFull) {
			return ErrExceedsMaxNotifiers
		}
		return err
	}
	r.mu.Lock()
	r.notifierHandles[notifierID] = h
	r.mu.Unlock()
	return nil
}

// unregisterNotifier vacates notifierID's slot in the shared notifier
// roster. Idempotent.
func (r *eventRegistry) unregisterNotifier(notifierID string) {
	r.mu.Lock()
	h, ok := r.notifierHandles[notifierID]
	delete(r.notifierHandles, notifierID)
	r.mu.Unlock()
	if ok {
		r.notifierRoster.Remove(h)
	}
}

// broadcast pushes eventID to every currently registered listener's queue
// and posts its signal, returning the number of listeners actually
// notified (a full queue drops that one delivery rather than blocking the
// notifier, matching pkg/pubsub's non-blocking send path).
func (r *eventRegistry) broadcast(eventID uint64) int {
	r.mu.Lock()
	conns := make([]*listenerConn, 0, len(r.listeners))
	for _, c := range r.listeners {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	delivered := 0
	for _, c := range conns {
		if !c.queue.Push(eventID) {
			continue
		}
		if err := c.signal.Post(); err != nil {
			continue
		}
		delivered++
	}
	return delivered
}
