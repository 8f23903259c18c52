package shmalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointerOffsetRoundTrip(t *testing.T) {
	for _, off := range []uint64{0, 1, 4096, 1 << 40} {
		p := NewPointerOffset(off)
		assert.Equal(t, off, p.Offset())
		assert.Equal(t, SegmentId(0), p.SegmentID())
	}
}

func TestPointerOffsetWithSegmentIDPreservesOffset(t *testing.T) {
	p := NewPointerOffset(12345)
	tagged := p.WithSegmentID(7)
	assert.Equal(t, uint64(12345), tagged.Offset())
	assert.Equal(t, SegmentId(7), tagged.SegmentID())

	retagged := tagged.WithSegmentID(9)
	assert.Equal(t, uint64(12345), retagged.Offset())
	assert.Equal(t, SegmentId(9), retagged.SegmentID())
}

func TestMaxSegmentID(t *testing.T) {
	p := NewPointerOffset(0).WithSegmentID(MaxSegmentId)
	assert.Equal(t, MaxSegmentId, p.SegmentID())
}
