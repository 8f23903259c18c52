package service

import (
	"path/filepath"

	"github.com/go-ipcx/ipcx/internal/ospal"
	"github.com/go-ipcx/ipcx/pkg/config"
)

// configDiscriminator / dynDiscriminator are the hash("config") /
// hash("dyn") components of naming scheme - fixed
// discriminators that distinguish a static config file from a dynamic
// config segment sharing the same service id, not a per-service value.
var (
	configDiscriminator = ospal.HashToBase64URL([]byte("config"))
	dynDiscriminator = ospal.HashToBase64URL([]byte("dyn"))
)

// ServicesDir returns the directory holding every *.service static
// config file.
func ServicesDir(cfg config.Config) string {
	return filepath.Join(cfg.Global.RootPath, "services")
}

// SegmentsDir returns the directory holding dynamic config segments and
// publisher data segments - everything internal/ospal.SharedMemory maps.
func SegmentsDir(cfg config.Config) string {
	return filepath.Join(cfg.Global.RootPath, "shm")
}

// StaticConfigPath returns the path to id's static config file.
func StaticConfigPath(cfg config.Config, id ID) string {
	name := ospal.StaticConfigName(cfg.Global.Prefix, configDiscriminator, string(id))
	return filepath.Join(ServicesDir(cfg), name)
}

// DynamicConfigPath returns the path to id's dynamic config shared
// memory object.
func DynamicConfigPath(cfg config.Config, id ID) string {
	name := ospal.DynamicConfigName(cfg.Global.Prefix, dynDiscriminator, string(id))
	return filepath.Join(SegmentsDir(cfg), name)
}

// CreationLockPath returns the path to id's creation lock file - the
// O_CREAT|O_EXCL primitive that arbitrates which of several racing
// creators actually gets to create the service.
func CreationLockPath(cfg config.Config, id ID) string {
	name := ospal.CreationLockName(cfg.Global.Prefix, string(id))
	return filepath.Join(ServicesDir(cfg), name)
}

// DataSegmentPath returns the path to a publisher's owned data segment.
func DataSegmentPath(cfg config.Config, publisherID string) string {
	name := ospal.PublisherDataSegmentName(cfg.Global.Prefix, publisherID)
	return filepath.Join(SegmentsDir(cfg), name)
}

// PortRosterPath returns the path to id's port roster of the given kind
// ("pub", "sub", "notif", "listen", "client", "server", "writer",
// "reader") - the internal/dynstorage.Roster backing that pattern's port
// table, sibling to the service's node roster at DynamicConfigPath.
func PortRosterPath(cfg config.Config, id ID, kind string) string {
	name := ospal.PortRosterName(cfg.Global.Prefix, string(id), kind)
	return filepath.Join(SegmentsDir(cfg), name)
}
