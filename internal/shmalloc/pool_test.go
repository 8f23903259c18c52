package shmalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAllocatorAllocateDeallocateRoundTrip(t *testing.T) {
	bucket := Layout{Size: 32, Alignment: 8}
	p := NewPoolAllocator(4, bucket, 0)
	assert.Equal(t, 4, p.Capacity())
	assert.Equal(t, uint64(8), p.MaxAlignment())

	offsets := make([]PointerOffset, 0, 4)
	for i := 0; i < 4; i++ {
		off, err := p.Allocate(bucket)
		require.NoError(t, err)
		offsets = append(offsets, off)
		assert.Equal(t, SegmentId(0), off.SegmentID())
	}

	_, err := p.Allocate(bucket)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	p.Deallocate(offsets[0])
	reused, err := p.Allocate(bucket)
	require.NoError(t, err)
	assert.Equal(t, offsets[0], reused, "a freed bucket's offset is the noop round-trip law from ")
}

func TestPoolAllocatorRejectsOversizeLayout(t *testing.T) {
	bucket := Layout{Size: 16, Alignment: 8}
	p := NewPoolAllocator(2, bucket, 0)

	_, err := p.Allocate(Layout{Size: 32, Alignment: 8})
	assert.ErrorIs(t, err, ErrAlignmentInsufficient)
}

func TestPoolAllocatorTagsSegmentID(t *testing.T) {
	bucket := Layout{Size: 16, Alignment: 8}
	p := NewPoolAllocator(1, bucket, 5)
	off, err := p.Allocate(bucket)
	require.NoError(t, err)
	assert.Equal(t, SegmentId(5), off.SegmentID())
}

func TestPoolAllocatorFreeSnapshot(t *testing.T) {
	bucket := Layout{Size: 8, Alignment: 4}
	p := NewPoolAllocator(3, bucket, 0)
	assert.Equal(t, 3, p.Free())

	_, err := p.Allocate(bucket)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Free())
}
