// Package shmalloc implements the pointer-offset addressing scheme and the
// two allocator strategies (bump, pool) that carve a sender's data segment
// into chunks.
package shmalloc

// SegmentId distinguishes successive generations of a publisher's data
// segment after it grows: receivers key their mapped-
// segment cache on SegmentId so an offset from an old segment is never
// mistaken for one in the new segment.
type SegmentId uint8

// MaxSegmentId is the largest representable SegmentId.
const MaxSegmentId = SegmentId(0xFF)

// segmentIdBits is the width of the SegmentId field packed into the low
// bits of a PointerOffset.
const segmentIdBits = 8

// PointerOffset is a 64-bit word packing two fields: bits [0,8) hold the
// SegmentId, bits [8,64) hold the byte offset from the segment's payload
// base. It is the only currency shared-memory pointer graphs use in this
// codebase - never an absolute pointer.
type PointerOffset uint64

// NewPointerOffset creates a PointerOffset for the given byte offset with
// SegmentId 0 (the initial segment); round-trip law:
// NewPointerOffset(o).Offset() == o for all o < 2^56.
func NewPointerOffset(offset uint64) PointerOffset {
	return PointerOffset(offset << segmentIdBits)
}

// Offset returns the byte offset component.
func (p PointerOffset) Offset() uint64 {
	return uint64(p) >> segmentIdBits
}

// SegmentID returns the segment-id component.
func (p PointerOffset) SegmentID() SegmentId {
	return SegmentId(uint64(p) & ((1 << segmentIdBits) - 1))
}

// WithSegmentID returns a copy of p with its SegmentId replaced by id,
// leaving the offset untouched - the other round-trip law.
func (p PointerOffset) WithSegmentID(id SegmentId) PointerOffset {
	cleared := uint64(p) &^ ((1 << segmentIdBits) - 1)
	return PointerOffset(cleared | uint64(id))
}
