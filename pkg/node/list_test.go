package node

import (
	"os"
	"testing"

	"github.com/go-ipcx/ipcx/internal/ospal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListNodesReportsAliveForHeldLock(t *testing.T) {
	cfg := testConfig(t)
	b := NewBuilder(cfg)
	n, err := b.Create("alive-node")
	require.NoError(t, err)
	defer n.Close()

	infos, err := ListNodes(cfg)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, Alive, infos[0].State)
	assert.Equal(t, "alive-node", infos[0].Name)
	assert.Equal(t, n.ID(), infos[0].ID)
}

func TestListNodesReportsDeadOnceLockReleased(t *testing.T) {
	cfg := testConfig(t)
	b := NewBuilder(cfg)
	n, err := b.Create("will-die")
	require.NoError(t, err)
	require.NoError(t, n.Close())

	infos, err := ListNodes(cfg)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, Dead, infos[0].State)
}

func TestListNodesReportsUndefinedForMalformedRecord(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, ospal.EnsureDir(NodesDir(cfg)))
	path := recordPath(cfg, NodeId{1, 2, 3})
	require.NoError(t, os.WriteFile(path, []byte("not a node record"), 0o644))

	infos, err := ListNodes(cfg)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, Undefined, infos[0].State)
}

func TestListNodesOnEmptyDirReturnsEmpty(t *testing.T) {
	cfg := testConfig(t)
	infos, err := ListNodes(cfg)
	require.NoError(t, err)
	assert.Empty(t, infos)
}
