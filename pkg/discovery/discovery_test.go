package discovery

import (
	"testing"

	"github.com/go-ipcx/ipcx/pkg/config"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSetup(t *testing.T) (config.Config, *node.Node) {
	cfg := config.Default()
	cfg.Global.RootPath = t.TempDir()
	n, err := node.NewBuilder(cfg).Create("test-node")
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })
	return cfg, n
}

func createService(t *testing.T, cfg config.Config, n *node.Node, name string) {
	svcName, err := service.NewName(name)
	require.NoError(t, err)
	sc := service.NewPublishSubscribeStaticConfig(cfg, svcName, "int32")
	_, err = service.NewBuilder(cfg, n).Create(sc)
	require.NoError(t, err)
}

func TestTrackerPublishesAddedOnNewService(t *testing.T) {
	cfg, n := testSetup(t)

	tr, err := NewTracker(n, cfg)
	require.NoError(t, err)
	defer tr.Close()

	w, err := NewWatcher(n, cfg, 8)
	require.NoError(t, err)
	defer w.Close()

	createService(t, cfg, n, "temperature-sensor")

	changes, err := tr.Poll()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Added, changes[0].Kind)
	assert.Equal(t, service.Name("temperature-sensor"), changes[0].Name())

	change, ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Added, change.Kind)
	assert.Equal(t, service.Name("temperature-sensor"), change.Name())
}

func TestWatcherNextReturnsFalseWhenEmpty(t *testing.T) {
	cfg, n := testSetup(t)

	tr, err := NewTracker(n, cfg)
	require.NoError(t, err)
	defer tr.Close()

	w, err := NewWatcher(n, cfg, 8)
	require.NoError(t, err)
	defer w.Close()

	_, ok, err := w.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrackerServicesReflectsLastPoll(t *testing.T) {
	cfg, n := testSetup(t)

	tr, err := NewTracker(n, cfg)
	require.NoError(t, err)
	defer tr.Close()

	createService(t, cfg, n, "pressure-sensor")
	_, err = tr.Poll()
	require.NoError(t, err)

	names := map[service.Name]bool{}
	for _, sc := range tr.Services() {
		names[sc.Name] = true
	}
	assert.True(t, names["pressure-sensor"])
}
