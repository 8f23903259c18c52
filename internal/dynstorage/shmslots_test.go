package dynstorage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(n byte) []byte {
	return []byte{n, n, n, n}
}

func TestShmSlotArrayInsertGetRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.dynamic")
	a, err := CreateShmSlotArray(path, 2, 4)
	require.NoError(t, err)
	defer a.Close()

	h1, err := a.Insert(record(1))
	require.NoError(t, err)
	h2, err := a.Insert(record(2))
	require.NoError(t, err)

	_, err = a.Insert(record(3))
	assert.ErrorIs(t, err, ErrFull)

	got, err := a.Get(h1)
	require.NoError(t, err)
	assert.Equal(t, record(1), got)

	require.NoError(t, a.Remove(h1))
	_, err = a.Get(h1)
	assert.ErrorIs(t, err, ErrStale)

	got, err = a.Get(h2)
	require.NoError(t, err)
	assert.Equal(t, record(2), got)

	assert.Equal(t, 1, a.Len())
}

func TestShmSlotArrayStaleHandleAfterReuse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.dynamic")
	a, err := CreateShmSlotArray(path, 1, 4)
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Insert(record(1))
	require.NoError(t, err)
	require.NoError(t, a.Remove(h))

	h2, err := a.Insert(record(2))
	require.NoError(t, err)
	assert.Equal(t, h.Index, h2.Index)
	assert.NotEqual(t, h.Generation, h2.Generation)

	_, err = a.Get(h)
	assert.ErrorIs(t, err, ErrStale)
}

func TestShmSlotArrayRemoveStaleIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.dynamic")
	a, err := CreateShmSlotArray(path, 1, 4)
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Insert(record(1))
	require.NoError(t, err)
	require.NoError(t, a.Remove(h))

	// A second racing cleanup attempt on the same handle must not panic or
	// double-free, only report ErrStale.
	err = a.Remove(h)
	assert.ErrorIs(t, err, ErrStale)
}

func TestShmSlotArrayOpenFromAnotherHandleSharesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.dynamic")
	owner, err := CreateShmSlotArray(path, 2, 4)
	require.NoError(t, err)
	defer owner.Close()

	h, err := owner.Insert(record(7))
	require.NoError(t, err)

	opener, err := OpenShmSlotArray(path, 2, 4)
	require.NoError(t, err)
	defer opener.Close()

	got, err := opener.Get(h)
	require.NoError(t, err)
	assert.Equal(t, record(7), got)
}

func TestShmSlotArrayEachVisitsOnlyOccupied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.dynamic")
	a, err := CreateShmSlotArray(path, 3, 4)
	require.NoError(t, err)
	defer a.Close()

	h1, _ := a.Insert(record(1))
	_, _ = a.Insert(record(2))
	require.NoError(t, a.Remove(h1))

	count := 0
	a.Each(func(h Handle, payload []byte) {
		count++
		assert.Equal(t, record(2), payload)
	})
	assert.Equal(t, 1, count)
}

func TestPutGetUint32Uint64RoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	PutUint32(buf, 0, 0xABCD1234)
	PutUint64(buf, 4, 0x1122334455667788)
	assert.Equal(t, uint32(0xABCD1234), GetUint32(buf, 0))
	assert.Equal(t, uint64(0x1122334455667788), GetUint64(buf, 4))
}
