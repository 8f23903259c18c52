package shmalloc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentCreateOpenPointerResolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pub.data")
	bucket := Layout{Size: 32, Alignment: 8}

	owner, err := CreateSegment(path, 128, 4, bucket, 0)
	require.NoError(t, err)
	defer owner.Close()

	off, err := owner.Allocator().Allocate(bucket)
	require.NoError(t, err)

	payload := []byte("zero-copy-payload-bytes")
	buf, err := owner.BytesAt(off, len(payload))
	require.NoError(t, err)
	copy(buf, payload)

	reader, err := OpenSegment(path)
	require.NoError(t, err)
	defer reader.Close()

	reader.Acquire()
	assert.EqualValues(t, 1, reader.RefCount())

	got, err := reader.BytesAt(off, len(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	left := reader.Release()
	assert.EqualValues(t, 0, left)
}

func TestSegmentBytesAtOutOfBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pub.data")
	bucket := Layout{Size: 16, Alignment: 8}
	seg, err := CreateSegment(path, 32, 2, bucket, 0)
	require.NoError(t, err)
	defer seg.Close()

	_, err = seg.BytesAt(NewPointerOffset(30), 16)
	assert.Error(t, err)
}

func TestSegmentSegmentIDAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pub.data")
	bucket := Layout{Size: 16, Alignment: 8}
	seg, err := CreateSegment(path, 32, 2, bucket, 3)
	require.NoError(t, err)
	defer seg.Close()

	assert.Equal(t, SegmentId(3), seg.SegmentID())
	assert.Equal(t, path, seg.Path())
}
