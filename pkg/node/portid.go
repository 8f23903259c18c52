package node

import (
	"encoding/hex"
)

// portID is the common representation behind every UniquePortID kind: the
// owning node's id plus that node's per-port monotonic counter value at
// the moment the port was created. Two ports of different kinds built by
// the same node at the same sequence number are never confused with each
// other because each kind is a distinct named Go type wrapping portID,
// not a bare alias.
type portID struct {
	Node NodeId
	Counter uint64
}

// String renders a portID as {node-id-hex}-{counter-hex}, matching the
// "service id + port id + purpose" naming scheme uses to build
// shared-memory object names.
func (p portID) String() string {
	var cbuf [8]byte
	for i := range cbuf {
		cbuf[i] = byte(p.Counter >> (8 * (7 - i)))
	}
	return p.Node.String() + "-" + hex.EncodeToString(cbuf[:])
}

// UniquePublisherID identifies one publisher port, unique across the
// system for the lifetime of the node that created it.
type UniquePublisherID struct{ portID }

// UniqueSubscriberID identifies one subscriber port.
type UniqueSubscriberID struct{ portID }

// UniqueNotifierID identifies one event notifier port.
type UniqueNotifierID struct{ portID }

// UniqueListenerID identifies one event listener port.
type UniqueListenerID struct{ portID }

// UniqueServerID identifies one request-response server port.
type UniqueServerID struct{ portID }

// UniqueClientID identifies one request-response client port.
type UniqueClientID struct{ portID }

// UniqueWriterID identifies one blackboard writer port.
type UniqueWriterID struct{ portID }

// UniqueReaderID identifies one blackboard reader port.
type UniqueReaderID struct{ portID }

// NextPublisherID draws the node's next port sequence number and wraps it
// as a UniquePublisherID.
func (n *Node) NextPublisherID() UniquePublisherID {
	return UniquePublisherID{portID{Node: n.id, Counter: n.nextPortSeq()}}
}

// NextSubscriberID draws the node's next port sequence number and wraps
// it as a UniqueSubscriberID.
func (n *Node) NextSubscriberID() UniqueSubscriberID {
	return UniqueSubscriberID{portID{Node: n.id, Counter: n.nextPortSeq()}}
}

// NextNotifierID draws the node's next port sequence number and wraps it
// as a UniqueNotifierID.
func (n *Node) NextNotifierID() UniqueNotifierID {
	return UniqueNotifierID{portID{Node: n.id, Counter: n.nextPortSeq()}}
}

// NextListenerID draws the node's next port sequence number and wraps it
// as a UniqueListenerID.
func (n *Node) NextListenerID() UniqueListenerID {
	return UniqueListenerID{portID{Node: n.id, Counter: n.nextPortSeq()}}
}

// NextServerID draws the node's next port sequence number and wraps it as
// a UniqueServerID.
func (n *Node) NextServerID() UniqueServerID {
	return UniqueServerID{portID{Node: n.id, Counter: n.nextPortSeq()}}
}

// NextClientID draws the node's next port sequence number and wraps it as
// a UniqueClientID.
func (n *Node) NextClientID() UniqueClientID {
	return UniqueClientID{portID{Node: n.id, Counter: n.nextPortSeq()}}
}

// NextWriterID draws the node's next port sequence number and wraps it as
// a UniqueWriterID.
func (n *Node) NextWriterID() UniqueWriterID {
	return UniqueWriterID{portID{Node: n.id, Counter: n.nextPortSeq()}}
}

// NextReaderID draws the node's next port sequence number and wraps it as
// a UniqueReaderID.
func (n *Node) NextReaderID() UniqueReaderID {
	return UniqueReaderID{portID{Node: n.id, Counter: n.nextPortSeq()}}
}
