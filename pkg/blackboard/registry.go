package blackboard

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ipcx/ipcx/internal/dynstorage"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
)

func init() {
	node.RegisterPatternCleaner(cleaner{})
}

type cleaner struct{}

// CleanupNode drops the attachment record of every writer/reader port
// owned by a dead node, and retires their slots in the shared-memory
// writer/reader port rosters behind them. It does not touch any
// cellTable's key->slot index or cell contents: a blackboard's
// last-value-wins semantics mean a key a dead writer wrote stays readable,
// exactly as it would after that writer exited cleanly - only the roster
// of who is currently attached is node-scoped.
func (cleaner) CleanupNode(id node.NodeId) error {
	prefix := id.String() + "-"
	attachments.Range(func(_, v any) bool {
		v.(*attachmentSet).pruneNode(prefix)
		return true
	})
	return nil
}

// attachmentSet tracks which writer/reader port ids are currently
// attached to one service - the blackboard equivalent of pkg/pubsub's
// publisher/subscriber maps - kept separate from cellTable's key->slot
// index because the two are scoped differently (ports come and go with
// nodes, keys persist for the life of the service). Occupancy is backed
// by shared-memory internal/dynstorage.Roster instances, capped at the
// static config's max-writers/max-readers the same way for every process
// attached to the service.
type attachmentSet struct {
	mu      sync.Mutex
	writers map[string]bool
	readers map[string]bool

	writerRoster  *dynstorage.Roster
	writerHandles map[string]dynstorage.Handle
	readerRoster  *dynstorage.Roster
	readerHandles map[string]dynstorage.Handle
}

func (a *attachmentSet) addWriter(portID string, node_ node.NodeId, counter uint64) error {
	h, err := a.writerRoster.Insert([16]byte(node_), counter)
	if err != nil {
		if errors.Is(err, dynstorage.ErrFull) {
			return ErrExceedsMaxWriters
		}
		return err
	}
	a.mu.Lock()
	a.writers[portID] = true
	a.writerHandles[portID] = h
	a.mu.Unlock()
	return nil
}

func (a *attachmentSet) removeWriter(portID string) {
	a.mu.Lock()
	delete(a.writers, portID)
	h, ok := a.writerHandles[portID]
	delete(a.writerHandles, portID)
	a.mu.Unlock()
	if ok {
		a.writerRoster.Remove(h)
	}
}

func (a *attachmentSet) addReader(portID string, node_ node.NodeId, counter uint64) error {
	h, err := a.readerRoster.Insert([16]byte(node_), counter)
	if err != nil {
		if errors.Is(err, dynstorage.ErrFull) {
			return ErrExceedsMaxReaders
		}
		return err
	}
	a.mu.Lock()
	a.readers[portID] = true
	a.readerHandles[portID] = h
	a.mu.Unlock()
	return nil
}

func (a *attachmentSet) removeReader(portID string) {
	a.mu.Lock()
	delete(a.readers, portID)
	h, ok := a.readerHandles[portID]
	delete(a.readerHandles, portID)
	a.mu.Unlock()
	if ok {
		a.readerRoster.Remove(h)
	}
}

func (a *attachmentSet) pruneNode(prefix string) {
	a.mu.Lock()
	var deadWriterHandles, deadReaderHandles []dynstorage.Handle
	for id := range a.writers {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		delete(a.writers, id)
		if h, ok := a.writerHandles[id]; ok {
			deadWriterHandles = append(deadWriterHandles, h)
			delete(a.writerHandles, id)
		}
	}
	for id := range a.readers {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		delete(a.readers, id)
		if h, ok := a.readerHandles[id]; ok {
			deadReaderHandles = append(deadReaderHandles, h)
			delete(a.readerHandles, id)
		}
	}
	a.mu.Unlock()

	for _, h := range deadWriterHandles {
		a.writerRoster.Remove(h)
	}
	for _, h := range deadReaderHandles {
		a.readerRoster.Remove(h)
	}
}

var (
	attachmentsMu sync.Mutex
	attachments   sync.Map // serviceID string -> *attachmentSet
)

// attachmentsFor returns (opening/creating its rosters if absent) the
// attachment set for svc.
func attachmentsFor(svc *service.Service) (*attachmentSet, error) {
	serviceID := string(svc.Static.ID)
	if v, ok := attachments.Load(serviceID); ok {
		return v.(*attachmentSet), nil
	}

	attachmentsMu.Lock()
	defer attachmentsMu.Unlock()
	if v, ok := attachments.Load(serviceID); ok {
		return v.(*attachmentSet), nil
	}

	cfg := svc.Static.Blackboard
	writerRoster, err := dynstorage.OpenOrCreateRoster(svc.PortRosterPath("writer"), cfg.MaxWriters)
	if err != nil {
		return nil, fmt.Errorf("blackboard: writer roster: %w", err)
	}
	readerRoster, err := dynstorage.OpenOrCreateRoster(svc.PortRosterPath("reader"), cfg.MaxReaders)
	if err != nil {
		writerRoster.Close()
		return nil, fmt.Errorf("blackboard: reader roster: %w", err)
	}

	a := &attachmentSet{
		writers:       map[string]bool{},
		readers:       map[string]bool{},
		writerRoster:  writerRoster,
		writerHandles: map[string]dynstorage.Handle{},
		readerRoster:  readerRoster,
		readerHandles: map[string]dynstorage.Handle{},
	}
	attachments.Store(serviceID, a)
	return a, nil
}

// tables holds one cellTable[K, V] per service id, shared in-process by
// every Writer[K,V]/Reader[K,V] attached to that service - the
// blackboard equivalent of pkg/reqres's channel table. Safe for the same
// type-assertion reason: a service id is only ever opened against one
// concrete (K, V) pair, enforced by pkg/service.Open's TypeDetails check
// before any blackboard code runs.
var tables sync.Map

var tablesMu sync.Mutex

// tableFor returns (creating the backing shared-memory segment if
// absent) the cell table for serviceID.
func tableFor[K comparable, V any](serviceID, path string, capacity int) (*cellTable[K, V], error) {
	if v, ok := tables.Load(serviceID); ok {
		return v.(*cellTable[K, V]), nil
	}

	tablesMu.Lock()
	defer tablesMu.Unlock()
	if v, ok := tables.Load(serviceID); ok {
		return v.(*cellTable[K, V]), nil
	}

	t, err := createCellTable[K, V](path, capacity)
	if err != nil {
		return nil, err
	}
	tables.Store(serviceID, t)
	return t, nil
}

func dropTable(serviceID string) {
	tables.Delete(serviceID)
}
