package node

import (
	"path/filepath"

	"github.com/go-ipcx/ipcx/internal/ospal"
	"github.com/go-ipcx/ipcx/pkg/config"
)

// NodesDir returns the directory holding every *.node record file - the
// "well-known nodes directory" of.
func NodesDir(cfg config.Config) string {
	return filepath.Join(cfg.Global.RootPath, "nodes")
}

// recordPath returns the path of id's record file within NodesDir.
func recordPath(cfg config.Config, id NodeId) string {
	name := ospal.NodeRecordName(cfg.Global.Prefix, id.String())
	return filepath.Join(NodesDir(cfg), name)
}
