package pubsub

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ipcx/ipcx/internal/dynstorage"
	"github.com/go-ipcx/ipcx/internal/shmalloc"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

func init() {
	node.RegisterPatternCleaner(cleaner{})
}

// cleaner implements node.PatternCleaner for the publish-subscribe
// pattern, pruning every publisher/subscriber/connection owned by a dead
// node across every service's registry, and retiring their slots in the
// shared-memory port rosters behind them.
type cleaner struct{}

func (cleaner) CleanupNode(id node.NodeId) error {
	prefix := id.String() + "-"

	registriesMu.Lock()
	all := make([]*serviceRegistry, 0, len(registries))
	for _, r := range registries {
		all = append(all, r)
	}
	registriesMu.Unlock()

	for _, r := range all {
		r.mu.Lock()
		var deadPub, deadSub []string
		for portID := range r.publishers {
			if strings.HasPrefix(portID, prefix) {
				deadPub = append(deadPub, portID)
			}
		}
		for portID := range r.subscribers {
			if strings.HasPrefix(portID, prefix) {
				deadSub = append(deadSub, portID)
			}
		}
		for _, portID := range deadPub {
			delete(r.publishers, portID)
		}
		for _, portID := range deadSub {
			delete(r.subscribers, portID)
		}
		for key, c := range r.connections {
			if strings.HasPrefix(c.publisherID, prefix) || strings.HasPrefix(c.subscriberID, prefix) {
				delete(r.connections, key)
			}
		}
		var pubHandles, subHandles []dynstorage.Handle
		for _, portID := range deadPub {
			if h, ok := r.pubHandles[portID]; ok {
				pubHandles = append(pubHandles, h)
				delete(r.pubHandles, portID)
			}
		}
		for _, portID := range deadSub {
			if h, ok := r.subHandles[portID]; ok {
				subHandles = append(subHandles, h)
				delete(r.subHandles, portID)
			}
		}
		r.mu.Unlock()

		for _, h := range pubHandles {
			r.pubRoster.Remove(h)
		}
		for _, h := range subHandles {
			r.subRoster.Remove(h)
		}
	}
	return nil
}

// publisherHandle is the view of a Publisher[T] the registry needs
// without knowing T, so publishers of different payload types can share
// one bookkeeping map (Go generics can't be type-erased any other way).
type publisherHandle interface {
	portIDString() string
	segment() *shmalloc.Segment
	historySnapshot() []shmalloc.PointerOffset
	nodeID() node.NodeId
	portCounter() uint64
	maxLoanedSamples() int
}

// subscriberHandle is the equivalent type-erased view of a Subscriber[T].
type subscriberHandle interface {
	portIDString() string
	bufferSize() int
	nodeID() node.NodeId
	portCounter() uint64
}

// serviceRegistry resolves connection establishment : discover
// the current publisher/subscriber roster, wire up a connection for
// every new pair, prune stale ones. The publisher/subscriber rosters
// themselves are shared-memory internal/dynstorage.Roster instances keyed
// by the service's port-roster paths, so the question "who is a
// publisher/subscriber on this service, and how many" is answered the
// same way by every process attached to it, capped at the static
// config's max-publishers/max-subscribers. The live publisherHandle/
// subscriberHandle values and the connections between them stay
// in-process: a segment pointer, a callback, an SPSC queue are Go-level
// constructs with no meaningful cross-process representation, so a
// process only has a handle for the ports and connections it has itself
// reconciled into local memory - it still learns of every other
// process's ports by reading the shared roster above.
type serviceRegistry struct {
	mu sync.Mutex
	publishers map[string]publisherHandle
	subscribers map[string]subscriberHandle
	connections map[string]*connection

	pubRoster *dynstorage.Roster
	pubHandles map[string]dynstorage.Handle
	subRoster *dynstorage.Roster
	subHandles map[string]dynstorage.Handle
}

var (
	registriesMu sync.Mutex
	registries = map[string]*serviceRegistry{}
)

// registryFor returns the shared registry for svc, opening or creating
// its publisher/subscriber rosters the first time any port on this
// process attaches to it.
func registryFor(svc *service.Service) (*serviceRegistry, error) {
	// Keyed by the dynamic config path rather than the bare id, so the same
	// service id under two different root paths gets two registries.
	key := svc.DynamicConfigPath()

	registriesMu.Lock()
	defer registriesMu.Unlock()
	if r, ok := registries[key]; ok {
		return r, nil
	}

	cfg := svc.Static.PublishSubscribe
	pubRoster, err := dynstorage.OpenOrCreateRoster(svc.PortRosterPath("pub"), cfg.MaxPublishers)
	if err != nil {
		return nil, fmt.Errorf("pubsub: publisher roster: %w", err)
	}
	subRoster, err := dynstorage.OpenOrCreateRoster(svc.PortRosterPath("sub"), cfg.MaxSubscribers)
	if err != nil {
		pubRoster.Close()
		return nil, fmt.Errorf("pubsub: subscriber roster: %w", err)
	}

	r := &serviceRegistry{
		publishers: map[string]publisherHandle{},
		subscribers: map[string]subscriberHandle{},
		connections: map[string]*connection{},
		pubRoster: pubRoster,
		pubHandles: map[string]dynstorage.Handle{},
		subRoster: subRoster,
		subHandles: map[string]dynstorage.Handle{},
	}
	registries[key] = r
	return r, nil
}

func connectionKey(publisherID, subscriberID string) string {
	return publisherID + "|" + subscriberID
}

// registerPublisher claims pub a slot in the shared publisher roster,
// failing with ErrExceedsMaxSupportedPorts once max-publishers is
// already occupied, then performs the same connection reconciliation
// reconcilePublisher does. Called exactly once, by NewPublisher.
func (r *serviceRegistry) registerPublisher(pub publisherHandle) error {
	h, err := r.pubRoster.Insert([16]byte(pub.nodeID()), pub.portCounter())
	if err != nil {
		if errors.Is(err, dynstorage.ErrFull) {
			return ErrExceedsMaxSupportedPorts
		}
		return err
	}
	r.mu.Lock()
	r.pubHandles[pub.portIDString()] = h
	r.mu.Unlock()
	r.reconcilePublisher(pub)
	return nil
}

// registerSubscriber is registerPublisher's subscriber-side counterpart.
func (r *serviceRegistry) registerSubscriber(sub subscriberHandle) error {
	h, err := r.subRoster.Insert([16]byte(sub.nodeID()), sub.portCounter())
	if err != nil {
		if errors.Is(err, dynstorage.ErrFull) {
			return ErrExceedsMaxSupportedPorts
		}
		return err
	}
	r.mu.Lock()
	r.subHandles[sub.portIDString()] = h
	r.mu.Unlock()
	r.reconcileSubscriber(sub)
	return nil
}

// reconcilePublisher wires/prunes connections to every currently known
// subscriber ( "update_connections": adds new, prunes dead).
// It assumes pub is already a roster member; UpdateConnections calls this
// directly on an already-registered publisher.
func (r *serviceRegistry) reconcilePublisher(pub publisherHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.publishers[pub.portIDString()] = pub
	for subID, sub := range r.subscribers {
		key := connectionKey(pub.portIDString(), subID)
		if _, ok := r.connections[key]; ok {
			continue
		}
		conn := newConnection(pub.portIDString(), subID, pub.segment(), sub.bufferSize(), pub.maxLoanedSamples()+sub.bufferSize())
		for _, off := range pub.historySnapshot() {
			conn.dataQueue.Push(off)
		}
		r.connections[key] = conn
	}
	for key, conn := range r.connections {
		if conn.publisherID != pub.portIDString() {
			continue
		}
		if _, ok := r.subscribers[conn.subscriberID]; !ok {
			delete(r.connections, key)
		}
	}
}

// reconcileSubscriber registers sub and wires/prunes connections to every
// currently known publisher.
func (r *serviceRegistry) reconcileSubscriber(sub subscriberHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscribers[sub.portIDString()] = sub
	for pubID, pub := range r.publishers {
		key := connectionKey(pubID, sub.portIDString())
		if _, ok := r.connections[key]; ok {
			continue
		}
		conn := newConnection(pubID, sub.portIDString(), pub.segment(), sub.bufferSize(), pub.maxLoanedSamples()+sub.bufferSize())
		for _, off := range pub.historySnapshot() {
			conn.dataQueue.Push(off)
		}
		r.connections[key] = conn
	}
}

// connectionsFromPublisher returns every live connection owned by
// publisherID, for Send to fan out across.
func (r *serviceRegistry) connectionsFromPublisher(publisherID string) []*connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*connection
	for _, c := range r.connections {
		if c.publisherID == publisherID {
			out = append(out, c)
		}
	}
	return out
}

// connectionsToSubscriber returns every live connection feeding
// subscriberID, for Receive to poll round-robin.
func (r *serviceRegistry) connectionsToSubscriber(subscriberID string) []*connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*connection
	for _, c := range r.connections {
		if c.subscriberID == subscriberID {
			out = append(out, c)
		}
	}
	return out
}

// removePublisher drops pub and every connection it owns, and vacates its
// slot in the shared publisher roster - called when a Publisher is
// closed, and equally suited to dead-node cleanup dispatch since it is
// idempotent.
func (r *serviceRegistry) removePublisher(publisherID string) {
	r.mu.Lock()
	delete(r.publishers, publisherID)
	for key, c := range r.connections {
		if c.publisherID == publisherID {
			delete(r.connections, key)
		}
	}
	h, ok := r.pubHandles[publisherID]
	delete(r.pubHandles, publisherID)
	r.mu.Unlock()
	if ok {
		r.pubRoster.Remove(h)
	}
}

// removeSubscriber drops sub and every connection feeding it, and vacates
// its slot in the shared subscriber roster.
func (r *serviceRegistry) removeSubscriber(subscriberID string) {
	r.mu.Lock()
	delete(r.subscribers, subscriberID)
	for key, c := range r.connections {
		if c.subscriberID == subscriberID {
			delete(r.connections, key)
		}
	}
	h, ok := r.subHandles[subscriberID]
	delete(r.subHandles, subscriberID)
	r.mu.Unlock()
	if ok {
		r.subRoster.Remove(h)
	}
}
