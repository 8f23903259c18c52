// Package node implements the per-process participant identity (
// ): a Node is constructed once per process, holds an exclusive
// advisory lock that is the system's definition of "alive", and hands out
// the monotonically increasing per-node port ids every port constructor
// needs to build a UniquePortID. Dead-node detection and cleanup dispatch
// live here too, since both hinge on the same file lock.
package node

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/go-ipcx/ipcx/internal/ospal"
	"github.com/go-ipcx/ipcx/pkg/config"
)

// NodeId is a 128-bit value unique across the system for the lifetime of
// the process that owns it. Unlike a UniquePortID it is not
// derived from anything else - it is pure random identity.
type NodeId [16]byte

// String renders id as lowercase hex. Node/port ids are raw random or
// counter bytes, not content hashes, so hex is used here instead of the
// base64url encoding service ids use (internal/ospal.HashToBase64URL).
func (id NodeId) String() string { return hex.EncodeToString(id[:]) }

// generateNodeID fills a NodeId from crypto/rand. A 128-bit random value
// has no format contract to satisfy here - no dashes, no RFC4122 variant
// bits - so crypto/rand.Read is used directly instead of pulling in a
// UUID library (see DESIGN.md).
func generateNodeID() (NodeId, error) {
	var id NodeId
	if _, err := rand.Read(id[:]); err != nil {
		return NodeId{}, fmt.Errorf("node: generate id: %w", err)
	}
	return id, nil
}

// Node is a process's participant identity: its id, optional name, the
// config it was built with, the exclusive file lock proving it is alive,
// and the monotonic counter every port constructor draws from to build a
// UniquePortID.
type Node struct {
	cfg config.Config
	id NodeId
	name string
	lock *ospal.FileLock
	portSeq atomic.Uint64
	recordPath string
}

// ID returns this node's unique identity.
func (n *Node) ID() NodeId { return n.id }

// Name returns the node's optional human-readable name, empty if none was
// given.
func (n *Node) Name() string { return n.name }

// Config returns the config this node was built with.
func (n *Node) Config() config.Config { return n.cfg }

// RecordPath returns the path of this node's liveness-lock record file.
func (n *Node) RecordPath() string { return n.recordPath }

// nextPortSeq draws the next value of this node's monotonic per-node port
// counter, used to build every UniquePortID kind.
func (n *Node) nextPortSeq() uint64 { return n.portSeq.Add(1) }

// Close releases the node's liveness lock without removing its record
// file. A live node holds the lock for the entire lifetime of the
// process; Close exists for orderly shutdown paths and tests, not normal
// operation - a crashed process simply loses the lock to the kernel,
// which is the entire point of 's design.
func (n *Node) Close() error {
	if n.lock == nil {
		return nil
	}
	log.Info("node closed", "id", n.id.String())
	return n.lock.Release()
}
