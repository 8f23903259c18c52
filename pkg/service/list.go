package service

import (
	"path/filepath"

	"github.com/go-ipcx/ipcx/internal/ospal"
	"github.com/go-ipcx/ipcx/pkg/config"
)

// ListServices walks ServicesDir and decodes every static config file
// found there, the service-registry equivalent of pkg/node.ListNodes.
// A file that fails to decode (truncated write, foreign format) is
// silently skipped rather than failing the whole listing, matching
// findIncompatible's tolerance of unreadable entries.
func ListServices(cfg config.Config) ([]StaticConfig, error) {
	entries, err := ospal.ListEntries(ServicesDir(cfg), ".service")
	if err != nil {
		return nil, err
	}

	scs := make([]StaticConfig, 0, len(entries))
	for _, entry := range entries {
		sections, err := config.LoadStatic(filepath.Join(ServicesDir(cfg), entry))
		if err != nil {
			continue
		}
		sc, err := StaticConfigFromSections(sections)
		if err != nil {
			continue
		}
		scs = append(scs, sc)
	}
	return scs, nil
}
