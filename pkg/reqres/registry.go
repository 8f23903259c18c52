package reqres

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-ipcx/ipcx/internal/dynstorage"
	"github.com/go-ipcx/ipcx/internal/lockfree"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

func init() {
	node.RegisterPatternCleaner(cleaner{})
}

// prunable is implemented by every channelTable[Req, Resp] instantiation;
// its method signature carries no type parameters of its own, so a
// non-generic cleaner can type-assert any value out of the generic
// `tables` sync.Map against it regardless of which (Req, Resp) pair it
// was built for.
type prunable interface {
	pruneNode(prefix string)
}

type cleaner struct{}

// CleanupNode drops every server/client registration owned by a dead
// node, across every request-response service's channel table, and
// retires their slots in the shared-memory client/server port rosters
// behind them.
func (cleaner) CleanupNode(id node.NodeId) error {
	prefix := id.String() + "-"
	tables.Range(func(_, v any) bool {
		if p, ok := v.(prunable); ok {
			p.pruneNode(prefix)
		}
		return true
	})
	return nil
}

// requestEnvelope carries one client request across the in-process
// channel table, tagged with enough correlation state for the receiving
// server to route its reply back to the right client and pending request
// (client_id, channel_id, request_id) per SPEC_FULL.md §4.5.
type requestEnvelope[Req any] struct {
	clientID  string
	requestID uint64
	value     Req
}

// serverConn is the request-delivery side of the channel table, one per
// registered Server[Req,Resp].
type serverConn[Req, Resp any] struct {
	id       string
	reqQueue *lockfree.SPSCQueue[requestEnvelope[Req]]
}

// clientConn is the response-delivery side: one queue per currently
// active request, so responses to concurrent outstanding requests never
// interleave (the same problem the teacher's SDO client solves by keying
// pending transfers on the request's index/subindex).
type clientConn[Req, Resp any] struct {
	id            string
	mu            sync.Mutex
	pending       map[uint64]*lockfree.SPSCQueue[Resp]
	nextRequestID atomic.Uint64
}

func newClientConn[Req, Resp any](id string) *clientConn[Req, Resp] {
	return &clientConn[Req, Resp]{id: id, pending: map[uint64]*lockfree.SPSCQueue[Resp]{}}
}

func (c *clientConn[Req, Resp]) openPending(capacity int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextRequestID.Add(1)
	c.pending[id] = lockfree.NewSPSCQueue[Resp](capacity)
	return id
}

func (c *clientConn[Req, Resp]) closePending(requestID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, requestID)
}

func (c *clientConn[Req, Resp]) activeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *clientConn[Req, Resp]) queueFor(requestID uint64) (*lockfree.SPSCQueue[Resp], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.pending[requestID]
	return q, ok
}

// channelTable is the in-process stand-in for cross-process connection
// bookkeeping on one request-response service: the delivery queues
// themselves stay in-process, but server/client occupancy is backed by
// shared-memory internal/dynstorage.Roster instances, capped at the
// static config's max-servers/max-clients the same way for every process
// attached to the service (mirrors pkg/pubsub.serviceRegistry's split).
type channelTable[Req, Resp any] struct {
	mu      sync.Mutex
	servers map[string]*serverConn[Req, Resp]
	clients map[string]*clientConn[Req, Resp]

	serverRoster  *dynstorage.Roster
	serverHandles map[string]dynstorage.Handle
	clientRoster  *dynstorage.Roster
	clientHandles map[string]dynstorage.Handle
}

var tables sync.Map // serviceID string -> *channelTable[Req,Resp], type-asserted per accessor's type parameters

// tableFor returns (opening/creating its rosters if absent) the channel
// table for svc. Safe because a given service id is only ever opened
// against the same concrete (Req, Resp) pair - pkg/service.Open's
// TypeDetails check enforces that before this function is ever reached.
func tableFor[Req, Resp any](svc *service.Service) (*channelTable[Req, Resp], error) {
	serviceID := string(svc.Static.ID)
	if v, ok := tables.Load(serviceID); ok {
		return v.(*channelTable[Req, Resp]), nil
	}

	cfg := svc.Static.RequestResponse
	serverRoster, err := dynstorage.OpenOrCreateRoster(svc.PortRosterPath("server"), cfg.MaxServers)
	if err != nil {
		return nil, fmt.Errorf("reqres: server roster: %w", err)
	}
	clientRoster, err := dynstorage.OpenOrCreateRoster(svc.PortRosterPath("client"), cfg.MaxClients)
	if err != nil {
		serverRoster.Close()
		return nil, fmt.Errorf("reqres: client roster: %w", err)
	}

	t := &channelTable[Req, Resp]{
		servers:       map[string]*serverConn[Req, Resp]{},
		clients:       map[string]*clientConn[Req, Resp]{},
		serverRoster:  serverRoster,
		serverHandles: map[string]dynstorage.Handle{},
		clientRoster:  clientRoster,
		clientHandles: map[string]dynstorage.Handle{},
	}
	actual, loaded := tables.LoadOrStore(serviceID, t)
	if loaded {
		serverRoster.Close()
		clientRoster.Close()
	}
	return actual.(*channelTable[Req, Resp]), nil
}

// registerServer claims s a slot in the shared server roster, failing
// with ErrExceedsMaxServers once max-servers is already occupied.
func (t *channelTable[Req, Resp]) registerServer(s *serverConn[Req, Resp], node_ node.NodeId, counter uint64) error {
	h, err := t.serverRoster.Insert([16]byte(node_), counter)
	if err != nil {
		if errors.Is(err, dynstorage.ErrFull) {
			return ErrExceedsMaxServers
		}
		return err
	}
	t.mu.Lock()
	t.servers[s.id] = s
	t.serverHandles[s.id] = h
	t.mu.Unlock()
	return nil
}

func (t *channelTable[Req, Resp]) unregisterServer(id string) {
	t.mu.Lock()
	delete(t.servers, id)
	h, ok := t.serverHandles[id]
	delete(t.serverHandles, id)
	t.mu.Unlock()
	if ok {
		t.serverRoster.Remove(h)
	}
}

// registerClient claims c a slot in the shared client roster, failing
// with ErrExceedsMaxClients once max-clients is already occupied.
func (t *channelTable[Req, Resp]) registerClient(c *clientConn[Req, Resp], node_ node.NodeId, counter uint64) error {
	h, err := t.clientRoster.Insert([16]byte(node_), counter)
	if err != nil {
		if errors.Is(err, dynstorage.ErrFull) {
			return ErrExceedsMaxClients
		}
		return err
	}
	t.mu.Lock()
	t.clients[c.id] = c
	t.clientHandles[c.id] = h
	t.mu.Unlock()
	return nil
}

func (t *channelTable[Req, Resp]) unregisterClient(id string) {
	t.mu.Lock()
	delete(t.clients, id)
	h, ok := t.clientHandles[id]
	delete(t.clientHandles, id)
	t.mu.Unlock()
	if ok {
		t.clientRoster.Remove(h)
	}
}

func (t *channelTable[Req, Resp]) client(id string) (*clientConn[Req, Resp], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.clients[id]
	return c, ok
}

// pruneNode drops every server/client registration whose port id starts
// with prefix, satisfying the prunable interface dead-node cleanup uses,
// and vacates their slots in the shared rosters.
func (t *channelTable[Req, Resp]) pruneNode(prefix string) {
	t.mu.Lock()
	var deadServerHandles, deadClientHandles []dynstorage.Handle
	for id := range t.servers {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		delete(t.servers, id)
		if h, ok := t.serverHandles[id]; ok {
			deadServerHandles = append(deadServerHandles, h)
			delete(t.serverHandles, id)
		}
	}
	for id := range t.clients {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		delete(t.clients, id)
		if h, ok := t.clientHandles[id]; ok {
			deadClientHandles = append(deadClientHandles, h)
			delete(t.clientHandles, id)
		}
	}
	t.mu.Unlock()

	for _, h := range deadServerHandles {
		t.serverRoster.Remove(h)
	}
	for _, h := range deadClientHandles {
		t.clientRoster.Remove(h)
	}
}

// broadcastRequest pushes req to every currently registered server,
// returning the number of servers it was actually delivered to.
func (t *channelTable[Req, Resp]) broadcastRequest(env requestEnvelope[Req]) int {
	t.mu.Lock()
	servers := make([]*serverConn[Req, Resp], 0, len(t.servers))
	for _, s := range t.servers {
		servers = append(servers, s)
	}
	t.mu.Unlock()

	delivered := 0
	for _, s := range servers {
		if s.reqQueue.Push(env) {
			delivered++
		}
	}
	return delivered
}
