// Package discovery implements the roster tracker (SPEC_FULL.md §2,
// C11): a Tracker periodically re-lists every service on disk and
// publishes one Change per service that has appeared or disappeared
// since its last poll, so any Watcher attached to the same discovery
// service learns about new or departed services without polling the
// filesystem itself. Built on pkg/pubsub's connection primitives rather
// than duplicating them, per the note in pkg/pubsub's design.
package discovery

import (
	"github.com/go-ipcx/ipcx/pkg/service"
)

// ChangeKind distinguishes a service appearing from a service
// disappearing.
type ChangeKind uint8

const (
	Added ChangeKind = iota
	Removed
)

func (k ChangeKind) String() string {
	if k == Removed {
		return "removed"
	}
	return "added"
}

// maxIDLen/maxNameLen bound how much of a service.ID/service.Name a
// Change can carry. An id is a base64url SHA-1 digest, well under 64
// bytes; maxNameLen equals service.MaxNameLength, so every valid name
// fits whole.
const (
	maxIDLen   = 64
	maxNameLen = service.MaxNameLength
)

// Change is the fixed-size, pointer-free payload published over
// pkg/pubsub for one service roster change - fixed-size because a
// pubsub payload is copied into a shared-memory bucket byte-for-byte and
// so can never hold a Go string or slice header safely.
type Change struct {
	Kind    ChangeKind
	Pattern service.Pattern
	idLen   uint8
	id      [maxIDLen]byte
	nameLen uint8
	name    [maxNameLen]byte
}

func newChange(kind ChangeKind, sc service.StaticConfig) Change {
	c := Change{Kind: kind, Pattern: sc.Pattern}
	idLen := copy(c.id[:], string(sc.ID))
	c.idLen = uint8(idLen)
	nameLen := copy(c.name[:], string(sc.Name))
	c.nameLen = uint8(nameLen)
	return c
}

// ID returns the changed service's id.
func (c Change) ID() service.ID { return service.ID(c.id[:c.idLen]) }

// Name returns the changed service's name.
func (c Change) Name() service.Name { return service.Name(c.name[:c.nameLen]) }
