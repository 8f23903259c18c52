package pubsub

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/go-ipcx/ipcx/internal/shmalloc"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

// Publisher owns one data segment for payload type T. It
// is safe for one goroutine to call LoanUninit/Send/SendCopy at a time,
// matching the "not required to be thread-safe for mutation" contract
// ports carry throughout this module.
type Publisher[T any] struct {
	n *node.Node
	svc *service.Service
	id node.UniquePublisherID
	cfg *service.PublishSubscribeConfig
	seg *shmalloc.Segment
	bucket shmalloc.Layout
	payload uint64
	reg *serviceRegistry

	mu sync.Mutex
	history []shmalloc.PointerOffset

	loaned atomic.Int64
	overflow OverflowPolicy
}

// NewPublisher creates a Publisher[T] for svc, owned by n. svc must have
// been opened/created against service.PublishSubscribe.
func NewPublisher[T any](n *node.Node, svc *service.Service, overflow OverflowPolicy) (*Publisher[T], error) {
	if svc.Static.Pattern != service.PublishSubscribe {
		return nil, fmt.Errorf("pubsub: service %q is not a publish-subscribe service", svc.Static.Name)
	}
	cfg := svc.Static.PublishSubscribe

	bucket, _, payloadOff := bucketLayoutFor[T]()
	numBuckets := cfg.PublisherMaxLoanedSamples + cfg.SubscriberMaxBufferSize*cfg.MaxSubscribers + cfg.PublisherHistorySize
	if numBuckets <= 0 {
		numBuckets = 1
	}

	reg, err := registryFor(svc)
	if err != nil {
		return nil, err
	}

	id := n.NextPublisherID()
	path := service.DataSegmentPath(n.Config(), id.String())
	seg, err := shmalloc.CreateSegment(path, int(bucket.Size)*numBuckets, numBuckets, bucket, 0)
	if err != nil {
		return nil, fmt.Errorf("pubsub: create data segment: %w", err)
	}

	p := &Publisher[T]{
		n: n, svc: svc, id: id, cfg: cfg,
		seg: seg, bucket: bucket, payload: payloadOff,
		reg: reg,
		overflow: overflow,
	}
	if err := reg.registerPublisher(p); err != nil {
		seg.Close()
		return nil, err
	}
	return p, nil
}

// ID returns this publisher's unique port id.
func (p *Publisher[T]) ID() node.UniquePublisherID { return p.id }

func (p *Publisher[T]) portIDString() string { return p.id.String() }
func (p *Publisher[T]) segment() *shmalloc.Segment { return p.seg }
func (p *Publisher[T]) nodeID() node.NodeId { return p.id.Node }
func (p *Publisher[T]) portCounter() uint64 { return p.id.Counter }
func (p *Publisher[T]) maxLoanedSamples() int { return p.cfg.PublisherMaxLoanedSamples }
func (p *Publisher[T]) historySnapshot() []shmalloc.PointerOffset {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shmalloc.PointerOffset, len(p.history))
	copy(out, p.history)
	return out
}

// LoanUninit reserves one chunk and returns a mutable, uninitialized Loan
// to write into before Send. Fails with ErrExceedsMaxLoanedSamples if the
// per-publisher loan cap is already held, or shmalloc.ErrOutOfMemory if
// the segment's allocator has no free chunk.
func (p *Publisher[T]) LoanUninit() (*Loan[T], error) {
	if int(p.loaned.Add(1)) > p.cfg.PublisherMaxLoanedSamples {
		p.loaned.Add(-1)
		return nil, ErrExceedsMaxLoanedSamples
	}
	offset, err := p.seg.Allocator().Allocate(p.bucket)
	if err != nil {
		p.loaned.Add(-1)
		return nil, err
	}
	value, err := resolvePayload[T](p.seg, offset, p.payload)
	if err != nil {
		p.seg.Allocator().Deallocate(offset)
		p.loaned.Add(-1)
		return nil, err
	}
	return &Loan[T]{publisher: p, offset: offset, value: value}, nil
}

// releaseLoan returns a loan's chunk to the allocator, used by both
// Loan.Abandon and internally once Send has copied the offset out.
func (p *Publisher[T]) releaseLoan(offset shmalloc.PointerOffset) {
	p.seg.Allocator().Deallocate(offset)
	p.loaned.Add(-1)
}

// Send commits loan: stamps the system header, reconciles the connection
// roster, and pushes the chunk's offset to every connected subscriber per
// this publisher's OverflowPolicy. Returns the number of subscribers the
// sample was actually delivered to.
func (p *Publisher[T]) Send(loan *Loan[T]) (int, error) {
	if loan.resolved {
		return 0, fmt.Errorf("pubsub: loan already sent or abandoned")
	}
	loan.resolved = true
	p.loaned.Add(-1)

	if err := p.stampHeader(loan.offset); err != nil {
		p.seg.Allocator().Deallocate(loan.offset)
		return 0, err
	}

	p.updateConnections()

	p.mu.Lock()
	p.history = append(p.history, loan.offset)
	if over := len(p.history) - p.cfg.PublisherHistorySize; over > 0 {
		p.history = p.history[over:]
	}
	p.mu.Unlock()

	conns := p.reg.connectionsFromPublisher(p.id.String())
	delivered := 0
	blocked := false
	for _, c := range conns {
		c.drainRetrieved()
		if p.deliver(c, loan.offset) {
			delivered++
		} else if p.overflow == Block {
			blocked = true
		}
	}
	if blocked {
		return delivered, ErrWouldBlock
	}
	return delivered, nil
}

// SendCopy is the loan+write+send convenience for small fixed payloads.
func (p *Publisher[T]) SendCopy(value T) (int, error) {
	loan, err := p.LoanUninit()
	if err != nil {
		return 0, err
	}
	*loan.Value() = value
	return p.Send(loan)
}

// UpdateConnections reconciles this publisher's connection map with the
// current subscriber roster. Send calls this implicitly; exported so a
// long-idle publisher can pick up new subscribers without sending.
func (p *Publisher[T]) UpdateConnections() { p.updateConnections() }

func (p *Publisher[T]) updateConnections() {
	p.reg.reconcilePublisher(p)
}

func (p *Publisher[T]) deliver(c *connection, offset shmalloc.PointerOffset) bool {
	if c.dataQueue.Push(offset) {
		return true
	}
	switch p.overflow {
	case OverflowingOldest:
		if p.cfg.EnableSafeOverflow {
			if evicted, ok := c.dataQueue.Pop(); ok {
				if alloc := c.segment.Allocator(); alloc != nil {
					alloc.Deallocate(evicted)
				}
				return c.dataQueue.Push(offset)
			}
		}
		return false
	case DiscardSample, Block:
		return false
	default:
		return false
	}
}

func (p *Publisher[T]) stampHeader(offset shmalloc.PointerOffset) error {
	ptr, err := p.seg.PointerAt(offset)
	if err != nil {
		return err
	}
	h := (*systemHeader)(unsafe.Pointer(ptr))
	h.PublisherNode = [16]byte(p.id.Node)
	h.PublisherCounter = p.id.Counter
	h.PayloadSize = uint32(payloadLayoutFor[T]().Size)
	h.NumElements = 1
	return nil
}

// Close releases this publisher's data segment and deregisters it from
// every connection. It does not unlink the segment - that is decided by
// the reference-count check in /.
func (p *Publisher[T]) Close() error {
	p.reg.removePublisher(p.id.String())
	if p.seg.RefCount() == 0 {
		if err := p.seg.Unlink(); err != nil {
			return err
		}
	}
	return p.seg.Close()
}
