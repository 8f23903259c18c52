package node

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ipcx/ipcx/internal/ospal"
	"github.com/go-ipcx/ipcx/pkg/config"
)

// Info describes one node record discovered by ListNodes: its id, its
// recorded name (empty if the record could not be read), its observed
// State, and the record's path for a caller that wants to act on it
// directly (e.g. ReclaimIfDead).
type Info struct {
	ID NodeId
	Name string
	Path string
	State
}

// ListNodes walks NodesDir and reports the observed State of every node
// record found there.
func ListNodes(cfg config.Config) ([]Info, error) {
	entries, err := ospal.ListEntries(NodesDir(cfg), ".node")
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(NodesDir(cfg), entry)
		id, ok := idFromFileName(cfg, entry)
		if !ok {
			continue
		}
		infos = append(infos, probeRecord(path, id))
	}
	return infos, nil
}

// idFromFileName strips cfg's prefix and the.node extension from a
// record file's base name and hex-decodes what remains back into a
// NodeId.
func idFromFileName(cfg config.Config, fileName string) (NodeId, bool) {
	trimmed := strings.TrimSuffix(fileName, ".node")
	trimmed = strings.TrimPrefix(trimmed, cfg.Global.Prefix)
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 16 {
		return NodeId{}, false
	}
	var id NodeId
	copy(id[:], raw)
	return id, true
}

// probeRecord determines a single record's State: Alive if its lock can't
// be taken (someone else holds it), Dead if it can (and is immediately
// released - probing must never itself claim liveness), Inaccessible on
// a permissions error, Undefined if the record's contents don't parse.
func probeRecord(path string, id NodeId) Info {
	info := Info{ID: id, Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			info.State = Inaccessible
			return info
		}
		info.State = Undefined
		return info
	}
	name, err := decodeRecord(data)
	if err != nil {
		info.State = Undefined
		return info
	}
	info.Name = name

	lock, err := ospal.TryFlock(path)
	switch {
	case err == nil:
		lock.Release()
		info.State = Dead
	case errors.Is(err, ospal.ErrWouldBlock):
		info.State = Alive
	case errors.Is(err, os.ErrPermission):
		info.State = Inaccessible
	default:
		info.State = Undefined
	}
	return info
}
