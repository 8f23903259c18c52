package ospal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedMemoryCreateWriteOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.shm")

	owner, err := CreateSharedMemory(path, 64)
	require.NoError(t, err)
	defer owner.Close()
	assert.Equal(t, 64, owner.Len())

	copy(owner.Bytes(), []byte("hello shared world"))

	reader, err := OpenSharedMemory(path, true)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, "hello shared world", string(reader.Bytes()[:len("hello shared world")]))
}

func TestOpenSharedMemoryMissingFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.shm")
	_, err := OpenSharedMemory(path, false)
	assert.Error(t, err)
}

func TestUnlinkSharedMemoryIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.shm")
	shm, err := CreateSharedMemory(path, 16)
	require.NoError(t, err)
	require.NoError(t, shm.Close())

	require.NoError(t, UnlinkSharedMemory(path))
	// A second unlink of an already-removed object is not an error:
	// last-detacher-unlinks races are expected, not exceptional.
	require.NoError(t, UnlinkSharedMemory(path))
}
