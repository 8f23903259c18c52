package service

import (
	"strings"
	"testing"

	"github.com/go-ipcx/ipcx/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestServicesAndSegmentsDirsAreDistinctAndRootedUnderConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Global.RootPath = "/tmp/ipcx-paths-test"

	services := ServicesDir(cfg)
	segments := SegmentsDir(cfg)

	assert.True(t, strings.HasPrefix(services, cfg.Global.RootPath))
	assert.True(t, strings.HasPrefix(segments, cfg.Global.RootPath))
	assert.NotEqual(t, services, segments)
}

func TestStaticConfigPathUsesPrefixAndServiceExtension(t *testing.T) {
	cfg := config.Default()
	cfg.Global.Prefix = "myprefix_"

	path := StaticConfigPath(cfg, ID("abc123"))
	assert.True(t, strings.HasSuffix(path, ".service"))
	assert.Contains(t, path, "myprefix_")
	assert.Contains(t, path, "abc123")
}

func TestDynamicConfigPathUsesDynamicExtension(t *testing.T) {
	cfg := config.Default()
	path := DynamicConfigPath(cfg, ID("abc123"))
	assert.True(t, strings.HasSuffix(path, ".dynamic"))
}

func TestCreationLockPathUsesLockExtensionAndLivesInServicesDir(t *testing.T) {
	cfg := config.Default()
	path := CreationLockPath(cfg, ID("abc123"))
	assert.True(t, strings.HasSuffix(path, ".lock"))
	assert.True(t, strings.HasPrefix(path, ServicesDir(cfg)))
}

func TestDataSegmentPathUsesDataExtensionAndLivesInSegmentsDir(t *testing.T) {
	cfg := config.Default()
	path := DataSegmentPath(cfg, "publisher-xyz")
	assert.True(t, strings.HasSuffix(path, ".data"))
	assert.True(t, strings.HasPrefix(path, SegmentsDir(cfg)))
	assert.Contains(t, path, "publisher-xyz")
}

func TestStaticAndDynamicConfigPathsDifferForSameID(t *testing.T) {
	cfg := config.Default()
	id := ID("same-id")
	assert.NotEqual(t, StaticConfigPath(cfg, id), DynamicConfigPath(cfg, id))
}
