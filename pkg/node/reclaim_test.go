package node

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReclaimIfDeadDoesNothingWhileNodeIsAlive(t *testing.T) {
	cfg := testConfig(t)
	b := NewBuilder(cfg)
	n, err := b.Create("alive")
	require.NoError(t, err)
	defer n.Close()

	called := false
	reclaimed, err := ReclaimIfDead(n.RecordPath(), n.ID(), func(NodeId) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, reclaimed)
	assert.False(t, called)

	_, err = os.Stat(n.RecordPath())
	assert.NoError(t, err, "record must still exist for a live node")
}

func TestReclaimIfDeadRunsCleanupAndUnlinksRecord(t *testing.T) {
	cfg := testConfig(t)
	b := NewBuilder(cfg)
	n, err := b.Create("dying")
	require.NoError(t, err)
	path := n.RecordPath()
	require.NoError(t, n.Close())

	var gotID NodeId
	reclaimed, err := ReclaimIfDead(path, n.ID(), func(id NodeId) error {
		gotID = id
		return nil
	})
	require.NoError(t, err)
	assert.True(t, reclaimed)
	assert.Equal(t, n.ID(), gotID)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReclaimIfDeadPropagatesCleanupError(t *testing.T) {
	cfg := testConfig(t)
	b := NewBuilder(cfg)
	n, err := b.Create("dying")
	require.NoError(t, err)
	path := n.RecordPath()
	require.NoError(t, n.Close())

	boom := assert.AnError
	_, err = ReclaimIfDead(path, n.ID(), func(NodeId) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "record must survive a failed cleanup so a later caller can retry")
}

func TestReclaimIfDeadOnMissingRecordIsANoop(t *testing.T) {
	cfg := testConfig(t)
	reclaimed, err := ReclaimIfDead(recordPath(cfg, NodeId{9}), NodeId{9}, nil)
	require.NoError(t, err)
	assert.False(t, reclaimed)
}
