package node

import (
	"encoding/binary"
	"fmt"

	"github.com/go-ipcx/ipcx/internal/obslog"
	"github.com/go-ipcx/ipcx/internal/ospal"
	"github.com/go-ipcx/ipcx/pkg/config"
)

var log = obslog.Named(nil, "node")

// recordMagic tags the start of a node record file so a later reader can
// tell "present but malformed" (State Undefined) apart from "not a node
// record at all".
const recordMagic uint32 = 0x4e4f4445 // "NODE"

// Builder constructs Node values bound to one process-wide Config.
type Builder struct {
	cfg config.Config
}

// NewBuilder creates a Builder bound to cfg.
func NewBuilder(cfg config.Config) *Builder { return &Builder{cfg: cfg} }

// Create allocates a NodeId, writes this node's record into the nodes
// directory, and acquires the exclusive lock on that record whose
// presence is the system's definition of "this node is alive" (
// ). name may be empty.
func (b *Builder) Create(name string) (*Node, error) {
	if err := ospal.EnsureDir(NodesDir(b.cfg)); err != nil {
		return nil, err
	}

	id, err := generateNodeID()
	if err != nil {
		return nil, err
	}
	path := recordPath(b.cfg, id)

	if err := writeRecord(path, name); err != nil {
		return nil, fmt.Errorf("node: create: %w", err)
	}

	lock, err := ospal.AcquireFileLock(path)
	if err != nil {
		return nil, fmt.Errorf("node: acquire liveness lock %s: %w", path, err)
	}

	log.Info("node created", "id", id.String(), "name", name, "record", path)
	return &Node{cfg: b.cfg, id: id, name: name, lock: lock, recordPath: path}, nil
}

// writeRecord persists name into the record file at path, truncating any
// existing content - used by Create.
func writeRecord(path, name string) error {
	buf := ospal.AppendUint32(nil, recordMagic)
	buf = ospal.AppendString(buf, name)
	return ospal.WriteFileAtomic(path, buf)
}

// decodeRecord parses the bytes written by writeRecord, returning
// ErrMalformedRecord if the magic or length prefix doesn't check out.
func decodeRecord(data []byte) (string, error) {
	if len(data) < 4 {
		return "", ErrMalformedRecord
	}
	if binary.LittleEndian.Uint32(data[:4]) != recordMagic {
		return "", ErrMalformedRecord
	}
	data = data[4:]
	if len(data) < 8 {
		return "", ErrMalformedRecord
	}
	n := binary.LittleEndian.Uint64(data[:8])
	data = data[8:]
	if uint64(len(data)) < n {
		return "", ErrMalformedRecord
	}
	return string(data[:n]), nil
}
