// Package service implements the service registry and create/open/
// open-or-create builder protocol: service naming and id
// derivation, the exclusive creation-lock arbitration, and static config
// persistence. Per-pattern port machinery (publish-subscribe, event,
// request-response, blackboard) builds on top of the Service handle this
// package hands back, each owning its own dynamic config roster sized
// from the StaticConfig this package persisted.
package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ipcx/ipcx/internal/dynstorage"
	"github.com/go-ipcx/ipcx/internal/obslog"
	"github.com/go-ipcx/ipcx/internal/ospal"
	"github.com/go-ipcx/ipcx/pkg/config"
	"github.com/go-ipcx/ipcx/pkg/node"
)

var log = obslog.Named(nil, "service")

// Service is an opened or newly created service: its immutable
// StaticConfig, the filesystem locations every port needs to attach its
// own dynamic storage, and the shared-memory node roster this opener was
// added to.
type Service struct {
	cfg config.Config
	Static StaticConfig

	nodeRoster *dynstorage.Roster
	nodeHandle dynstorage.Handle
	hasNodeHandle bool
}

// Config returns the process-wide configuration this service was
// opened/created under.
func (s *Service) Config() config.Config { return s.cfg }

// DynamicConfigPath returns the path of the service's dynamic config
// shared memory - the node roster every Open maps read-write.
func (s *Service) DynamicConfigPath() string {
	return DynamicConfigPath(s.cfg, s.Static.ID)
}

// DataSegmentPath returns the path a publisher port (or any other
// sender-owned segment) should map its data segment at, keyed by its own
// unique port id so multiple senders on the same service never collide.
func (s *Service) DataSegmentPath(portID string) string {
	return DataSegmentPath(s.cfg, portID)
}

// PortRosterPath returns the path of this service's port roster of the
// given kind - the internal/dynstorage.Roster a pattern package's port
// constructor creates or opens to register/cap its own ports.
func (s *Service) PortRosterPath(kind string) string {
	return PortRosterPath(s.cfg, s.Static.ID, kind)
}

// Close detaches this opener from the service: removes its node from the
// node roster (if one was attached) and unmaps the roster. It does not
// remove the service itself.
func (s *Service) Close() error {
	if s.nodeRoster == nil {
		return nil
	}
	if s.hasNodeHandle {
		s.nodeRoster.Remove(s.nodeHandle)
	}
	return s.nodeRoster.Close()
}

// attachNode inserts n into the service's node roster, enforcing the
// static config's max-nodes cap ( step 6: "add this node
// to the service's node roster; if roster full -> ExceedsMaxSupportedNodes").
func (s *Service) attachNode(n *node.Node) error {
	id := n.ID()
	h, err := s.nodeRoster.Insert([16]byte(id), 0)
	if err != nil {
		if errors.Is(err, dynstorage.ErrFull) {
			return ErrExceedsMaxSupportedNodes
		}
		return err
	}
	s.nodeHandle = h
	s.hasNodeHandle = true
	return nil
}

// Builder creates and opens services against one process-wide Config, on
// behalf of one node. It is the thing a pkg/node.Node hands to every port
// constructor, the same way the teacher's Network is the single object
// every NodeProcessor is built through.
type Builder struct {
	cfg config.Config
	n *node.Node
}

// NewBuilder creates a Builder bound to cfg, acting on behalf of n. Every
// Create/Open/OpenOrCreate made through it adds n to the resulting
// service's node roster.
func NewBuilder(cfg config.Config, n *node.Node) *Builder { return &Builder{cfg: cfg, n: n} }

// Create implements create protocol: ensure directories
// exist, take the exclusive creation lock, persist the static config,
// then release the lock - the lock is never left behind, it exists only
// to arbitrate the creation race itself.
func (b *Builder) Create(sc StaticConfig) (*Service, error) {
	if err := sc.Name.Validate(); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := ospal.EnsureDir(ServicesDir(b.cfg)); err != nil {
		return nil, err
	}
	if err := ospal.EnsureDir(SegmentsDir(b.cfg)); err != nil {
		return nil, err
	}

	lockPath := CreationLockPath(b.cfg, sc.ID)
	lock, err := ospal.CreateExclusive(lockPath)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	defer func() {
		lock.Close()
		os.Remove(lockPath)
	}()

	staticPath := StaticConfigPath(b.cfg, sc.ID)
	if _, err := os.Stat(staticPath); err == nil {
		return nil, ErrAlreadyExists
	}

	// Allocate the dynamic config shared memory sized to the requested
	// maxima before anything durable is written, so a failure here never
	// leaves a static config with no roster behind it.
	roster, err := dynstorage.CreateRoster(DynamicConfigPath(b.cfg, sc.ID), sc.maxNodes())
	if err != nil {
		return nil, fmt.Errorf("service: create %s: allocate dynamic config: %w", sc.Name, err)
	}

	if err := config.PersistStatic(staticPath, sc.ToSections); err != nil {
		roster.Unlink()
		return nil, fmt.Errorf("service: create %s: %w", sc.Name, err)
	}

	svc := &Service{cfg: b.cfg, Static: sc, nodeRoster: roster}
	if err := svc.attachNode(b.n); err != nil {
		roster.Unlink()
		os.Remove(staticPath)
		return nil, err
	}

	log.Info("service created", "name", sc.Name, "pattern", sc.Pattern.String())
	return svc, nil
}

// Open implements open protocol: derive the id from
// (pattern, typeDetails, name), load its static config, and verify it
// actually matches what the caller asked for. If no service is found
// under the derived id, Open distinguishes "truly absent" from "exists
// under this name but with an incompatible pattern/type" by scanning the
// services directory for any static config whose Name matches.
func (b *Builder) Open(pattern Pattern, name Name, typeDetails string) (*Service, error) {
	id := DeriveID(pattern, typeDetails, name)
	staticPath := StaticConfigPath(b.cfg, id)

	sections, err := config.LoadStatic(staticPath)
	if err != nil {
		if mismatch := b.findIncompatible(name, pattern, typeDetails); mismatch != nil {
			return nil, mismatch
		}
		return nil, ErrDoesNotExist
	}

	sc, err := StaticConfigFromSections(sections)
	if err != nil {
		return nil, err
	}

	// Map the dynamic config shared memory read-write and add this node
	// to the service's node roster ( step 5-6).
	roster, err := dynstorage.OpenRoster(DynamicConfigPath(b.cfg, sc.ID), sc.maxNodes())
	if err != nil {
		return nil, fmt.Errorf("service: open %s: map dynamic config: %w", sc.Name, err)
	}

	svc := &Service{cfg: b.cfg, Static: sc, nodeRoster: roster}
	if err := svc.attachNode(b.n); err != nil {
		roster.Close()
		return nil, err
	}
	return svc, nil
}

// OpenOrCreate opens the service if it already exists, otherwise creates
// it with sc. A bounded retry absorbs the ordinary race where another
// caller wins the create between our failed Open and our Create attempt
//.
func (b *Builder) OpenOrCreate(pattern Pattern, sc StaticConfig) (*Service, error) {
	const maxAttempts = 8
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		svc, err := b.Open(pattern, sc.Name, sc.TypeDetails())
		if err == nil {
			return svc, nil
		}
		if !errors.Is(err, ErrDoesNotExist) {
			lastErr = err
			break
		}
		svc, err = b.Create(sc)
		if err == nil {
			return svc, nil
		}
		if errors.Is(err, ErrAlreadyExists) {
			// Someone else created it between our Open and our Create;
			// loop and Open it on the next pass.
			lastErr = err
			continue
		}
		lastErr = err
		break
	}
	return nil, lastErr
}

// findIncompatible scans ServicesDir for a static config whose Name
// matches but whose pattern or type details don't, so Open can report
// the precise reason instead of a generic ErrDoesNotExist.
func (b *Builder) findIncompatible(name Name, pattern Pattern, typeDetails string) error {
	entries, err := ospal.ListEntries(ServicesDir(b.cfg), ".service")
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		sections, err := config.LoadStatic(filepath.Join(ServicesDir(b.cfg), entry))
		if err != nil {
			continue
		}
		sc, err := StaticConfigFromSections(sections)
		if err != nil {
			continue
		}
		if sc.Name != name {
			continue
		}
		if sc.Pattern != pattern {
			return ErrIncompatiblePattern
		}
		if sc.TypeDetails() != typeDetails {
			return ErrIncompatibleTypes
		}
	}
	return nil
}
