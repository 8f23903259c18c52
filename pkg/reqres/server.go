package reqres

import (
	"fmt"

	"github.com/go-ipcx/ipcx/internal/lockfree"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

// Server receives requests of type Req from every connected Client on a
// service and replies with correlated Resp values through the
// RequestContext values Receive returns.
type Server[Req, Resp any] struct {
	n *node.Node
	svc *service.Service
	id node.UniqueServerID
	conn *serverConn[Req, Resp]
	table *channelTable[Req, Resp]
}

// NewServer creates a Server[Req,Resp] for svc, owned by n. svc must have
// been opened/created against service.RequestResponse. Fails with
// ErrExceedsMaxServers once the service's server roster is already at
// capacity.
func NewServer[Req, Resp any](n *node.Node, svc *service.Service) (*Server[Req, Resp], error) {
	if svc.Static.Pattern != service.RequestResponse {
		return nil, fmt.Errorf("reqres: service %q is not a request-response service", svc.Static.Name)
	}
	cfg := svc.Static.RequestResponse
	capacity := cfg.MaxClients * cfg.MaxActiveRequestsPerClient
	if capacity <= 0 {
		capacity = 1
	}

	table, err := tableFor[Req, Resp](svc)
	if err != nil {
		return nil, err
	}

	id := n.NextServerID()
	conn := &serverConn[Req, Resp]{id: id.String(), reqQueue: lockfree.NewSPSCQueue[requestEnvelope[Req]](capacity)}
	if err := table.registerServer(conn, id.Node, id.Counter); err != nil {
		return nil, err
	}

	return &Server[Req, Resp]{n: n, svc: svc, id: id, conn: conn, table: table}, nil
}

// ID returns this server's unique port id.
func (s *Server[Req, Resp]) ID() node.UniqueServerID { return s.id }

// Receive dequeues the next available request, or returns (nil, nil) if
// none is currently queued.
func (s *Server[Req, Resp]) Receive() (*RequestContext[Req, Resp], error) {
	env, ok := s.conn.reqQueue.Pop()
	if !ok {
		return nil, nil
	}
	return &RequestContext[Req, Resp]{server: s, clientID: env.clientID, requestID: env.requestID, value: env.value}, nil
}

// Close releases this server's registration.
func (s *Server[Req, Resp]) Close() error {
	s.table.unregisterServer(s.conn.id)
	return nil
}

// RequestContext is a server's borrowed view of one received request,
// carrying enough correlation state to route a reply back to the right
// client and ActiveRequest.
type RequestContext[Req, Resp any] struct {
	server *Server[Req, Resp]
	clientID string
	requestID uint64
	value Req
}

// Value returns the received request payload.
func (r *RequestContext[Req, Resp]) Value() Req { return r.value }

// Respond sends resp back to the client that issued this request,
// correlated to its ActiveRequest. Fails with ErrConnectionFailure if the
// client has since closed or unregistered (its record already
// garbage-collected from the channel table).
func (r *RequestContext[Req, Resp]) Respond(resp Resp) error {
	client, ok := r.server.table.client(r.clientID)
	if !ok {
		return ErrConnectionFailure
	}
	q, ok := client.queueFor(r.requestID)
	if !ok {
		return ErrConnectionFailure
	}
	if !q.Push(resp) {
		return ErrConnectionFailure
	}
	return nil
}
