package pubsub

import (
	"fmt"
	"sync/atomic"

	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

// subscriberState is the part of a Subscriber[T] the registry and a
// Sample[T] need without knowing T.
type subscriberState struct {
	id node.UniqueSubscriberID
	buffer int
	borrowed atomic.Int64
	reg *serviceRegistry
}

func (s *subscriberState) portIDString() string { return s.id.String() }
func (s *subscriberState) bufferSize() int { return s.buffer }
func (s *subscriberState) nodeID() node.NodeId { return s.id.Node }
func (s *subscriberState) portCounter() uint64 { return s.id.Counter }

// Subscriber borrows samples of payload type T from every publisher
// currently connected on its service. Round-robins across
// connections so no single fast publisher can starve the others.
type Subscriber[T any] struct {
	n *node.Node
	svc *service.Service
	cfg *service.PublishSubscribeConfig
	state *subscriberState

	rrCursor int
}

// NewSubscriber creates a Subscriber[T] for svc, owned by n, with the
// given receive buffer size (must not exceed the service's configured
// max).
func NewSubscriber[T any](n *node.Node, svc *service.Service, bufferSize int) (*Subscriber[T], error) {
	if svc.Static.Pattern != service.PublishSubscribe {
		return nil, fmt.Errorf("pubsub: service %q is not a publish-subscribe service", svc.Static.Name)
	}
	cfg := svc.Static.PublishSubscribe
	if bufferSize <= 0 || bufferSize > cfg.SubscriberMaxBufferSize {
		bufferSize = cfg.SubscriberMaxBufferSize
	}

	reg, err := registryFor(svc)
	if err != nil {
		return nil, err
	}

	id := n.NextSubscriberID()
	state := &subscriberState{id: id, buffer: bufferSize, reg: reg}
	sub := &Subscriber[T]{n: n, svc: svc, cfg: cfg, state: state}
	if err := reg.registerSubscriber(state); err != nil {
		return nil, err
	}
	return sub, nil
}

// ID returns this subscriber's unique port id.
func (s *Subscriber[T]) ID() node.UniqueSubscriberID { return s.state.id }

// UpdateConnections reconciles this subscriber's connection set with the
// current publisher roster.
func (s *Subscriber[T]) UpdateConnections() {
	s.state.reg.reconcileSubscriber(s.state)
}

// HasSamples reports, without consuming anything, whether any connected
// publisher currently has an undelivered sample queued.
func (s *Subscriber[T]) HasSamples() bool {
	for _, c := range s.state.reg.connectionsToSubscriber(s.state.portIDString()) {
		if c.dataQueue.Len() > 0 {
			return true
		}
	}
	return false
}

// Receive dequeues the next available sample in round-robin order across
// connected publishers. Returns (nil, nil) if every queue is currently
// empty. Fails with ErrExceedsMaxBorrowedSamples if this subscriber
// already holds its configured cap of un-released samples, or
// ErrConnectionFailure if a publisher's segment can no longer be mapped.
func (s *Subscriber[T]) Receive() (*Sample[T], error) {
	conns := s.state.reg.connectionsToSubscriber(s.state.portIDString())
	if len(conns) == 0 {
		return nil, nil
	}

	for i := 0; i < len(conns); i++ {
		idx := (s.rrCursor + i) % len(conns)
		c := conns[idx]
		offset, ok := c.dataQueue.Pop()
		if !ok {
			continue
		}
		s.rrCursor = (idx + 1) % len(conns)

		if int(s.state.borrowed.Add(1)) > s.cfg.SubscriberMaxBorrowed {
			s.state.borrowed.Add(-1)
			c.retrieveQueue.Push(offset)
			return nil, ErrExceedsMaxBorrowedSamples
		}

		_, _, payloadOff := bucketLayoutFor[T]()
		value, err := resolvePayload[T](c.segment, offset, payloadOff)
		if err != nil {
			s.state.borrowed.Add(-1)
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailure, err)
		}
		return &Sample[T]{conn: c, sub: s.state, offset: offset, value: value}, nil
	}
	return nil, nil
}

// Close detaches the subscriber from its service, dropping every
// connection feeding it. Samples it still holds unreleased are not
// reclaimed here; the owning publisher's history/retrieve accounting
// eventually reclaims them via dead-node cleanup.
func (s *Subscriber[T]) Close() error {
	s.state.reg.removeSubscriber(s.state.portIDString())
	return nil
}
