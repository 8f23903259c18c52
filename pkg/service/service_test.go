package service

import (
	"path/filepath"
	"testing"

	"github.com/go-ipcx/ipcx/pkg/config"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Global.RootPath = t.TempDir()
	return cfg
}

func testBuilder(t *testing.T) *Builder {
	cfg := testConfig(t)
	n, err := node.NewBuilder(cfg).Create("test-node")
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })
	return NewBuilder(cfg, n)
}

func TestBuilderCreateThenOpen(t *testing.T) {
	b := testBuilder(t)
	name, _ := NewName("temperature")
	sc := NewPublishSubscribeStaticConfig(b.cfg, name, "float64")

	created, err := b.Create(sc)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, created.Static.ID)

	opened, err := b.Open(PublishSubscribe, name, "float64")
	require.NoError(t, err)
	assert.Equal(t, sc.ID, opened.Static.ID)
	assert.Equal(t, sc.PublishSubscribe.MaxPublishers, opened.Static.PublishSubscribe.MaxPublishers)
}

func TestBuilderCreateTwiceFails(t *testing.T) {
	b := testBuilder(t)
	name, _ := NewName("temperature")
	sc := NewPublishSubscribeStaticConfig(b.cfg, name, "float64")

	_, err := b.Create(sc)
	require.NoError(t, err)

	_, err = b.Create(sc)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestBuilderOpenMissingServiceFails(t *testing.T) {
	b := testBuilder(t)
	name, _ := NewName("nonexistent")
	_, err := b.Open(PublishSubscribe, name, "float64")
	assert.ErrorIs(t, err, ErrDoesNotExist)
}

func TestBuilderOpenIncompatiblePattern(t *testing.T) {
	b := testBuilder(t)
	name, _ := NewName("temperature")
	sc := NewPublishSubscribeStaticConfig(b.cfg, name, "float64")
	_, err := b.Create(sc)
	require.NoError(t, err)

	_, err = b.Open(Event, name, "float64")
	assert.ErrorIs(t, err, ErrIncompatiblePattern)
}

func TestBuilderOpenIncompatibleTypes(t *testing.T) {
	b := testBuilder(t)
	name, _ := NewName("temperature")
	sc := NewPublishSubscribeStaticConfig(b.cfg, name, "float64")
	_, err := b.Create(sc)
	require.NoError(t, err)

	_, err = b.Open(PublishSubscribe, name, "int32")
	assert.ErrorIs(t, err, ErrIncompatibleTypes)
}

func TestBuilderOpenOrCreateCreatesOnFirstCallAndOpensOnSecond(t *testing.T) {
	b := testBuilder(t)
	name, _ := NewName("temperature")
	sc := NewPublishSubscribeStaticConfig(b.cfg, name, "float64")

	first, err := b.OpenOrCreate(PublishSubscribe, sc)
	require.NoError(t, err)

	second, err := b.OpenOrCreate(PublishSubscribe, sc)
	require.NoError(t, err)

	assert.Equal(t, first.Static.ID, second.Static.ID)
}

func TestBuilderCreateLeavesNoLockFileBehind(t *testing.T) {
	b := testBuilder(t)
	name, _ := NewName("temperature")
	sc := NewPublishSubscribeStaticConfig(b.cfg, name, "float64")

	_, err := b.Create(sc)
	require.NoError(t, err)

	lockPath := CreationLockPath(b.cfg, sc.ID)
	_, statErr := filepath.Glob(lockPath)
	require.NoError(t, statErr)

	matches, err := filepath.Glob(lockPath)
	require.NoError(t, err)
	assert.Empty(t, matches, "creation lock must be removed once create succeeds")
}
