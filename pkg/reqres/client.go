package reqres

import (
	"fmt"
	"sync/atomic"

	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

// Client sends requests of type Req to every connected Server on a
// service and receives correlated Resp replies through the ActiveRequest
// handles Send returns.
type Client[Req, Resp any] struct {
	n *node.Node
	svc *service.Service
	id node.UniqueClientID
	cfg *service.RequestResponseConfig
	conn *clientConn[Req, Resp]
	table *channelTable[Req, Resp]
}

// NewClient creates a Client[Req,Resp] for svc, owned by n. svc must have
// been opened/created against service.RequestResponse. Fails with
// ErrExceedsMaxClients once the service's client roster is already at
// capacity.
func NewClient[Req, Resp any](n *node.Node, svc *service.Service) (*Client[Req, Resp], error) {
	if svc.Static.Pattern != service.RequestResponse {
		return nil, fmt.Errorf("reqres: service %q is not a request-response service", svc.Static.Name)
	}

	table, err := tableFor[Req, Resp](svc)
	if err != nil {
		return nil, err
	}

	id := n.NextClientID()
	conn := newClientConn[Req, Resp](id.String())
	if err := table.registerClient(conn, id.Node, id.Counter); err != nil {
		return nil, err
	}

	return &Client[Req, Resp]{n: n, svc: svc, id: id, cfg: svc.Static.RequestResponse, conn: conn, table: table}, nil
}

// ID returns this client's unique port id.
func (c *Client[Req, Resp]) ID() node.UniqueClientID { return c.id }

// Send broadcasts req to every currently connected server and returns an
// ActiveRequest to poll for correlated replies. Fails with
// ErrExceedsMaxActiveRequests if this client already holds its configured
// cap of unfinished requests, or ErrNoServer if nothing is connected.
func (c *Client[Req, Resp]) Send(req Req) (*ActiveRequest[Req, Resp], error) {
	if c.conn.activeCount() >= c.cfg.MaxActiveRequestsPerClient {
		return nil, ErrExceedsMaxActiveRequests
	}

	requestID := c.conn.openPending(c.cfg.MaxBorrowedResponsesPerPendingResponse)
	env := requestEnvelope[Req]{clientID: c.conn.id, requestID: requestID, value: req}

	delivered := c.table.broadcastRequest(env)
	if delivered == 0 {
		c.conn.closePending(requestID)
		return nil, ErrNoServer
	}

	return &ActiveRequest[Req, Resp]{client: c, requestID: requestID, maxBorrowed: c.cfg.MaxBorrowedResponsesPerPendingResponse}, nil
}

// Close releases this client's registration and any still-pending
// request queues.
func (c *Client[Req, Resp]) Close() error {
	c.table.unregisterClient(c.conn.id)
	return nil
}

// ActiveRequest is a client's handle on one outstanding request, used to
// poll for the (possibly several, for fan-out servers) correlated
// responses it elicits.
type ActiveRequest[Req, Resp any] struct {
	client *Client[Req, Resp]
	requestID uint64
	closed bool
	maxBorrowed int
	borrowed atomic.Int64
}

// Receive returns the next queued response for this request, or
// (nil, nil) if none has arrived yet. Fails with
// ErrExceedsMaxBorrowedResponses if the caller already holds its
// configured cap of un-released responses from this request.
func (r *ActiveRequest[Req, Resp]) Receive() (*Response[Resp], error) {
	q, ok := r.client.conn.queueFor(r.requestID)
	if !ok {
		return nil, ErrConnectionFailure
	}
	if r.maxBorrowed > 0 && int(r.borrowed.Load()) >= r.maxBorrowed {
		return nil, ErrExceedsMaxBorrowedResponses
	}
	value, ok := q.Pop()
	if !ok {
		return nil, nil
	}
	r.borrowed.Add(1)
	return &Response[Resp]{value: value, onRelease: func() { r.borrowed.Add(-1) }}, nil
}

// Close releases this request's pending-response queue. Call it once no
// more replies are expected.
func (r *ActiveRequest[Req, Resp]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.client.conn.closePending(r.requestID)
}
