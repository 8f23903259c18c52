package shmalloc

import "fmt"

// Layout describes the size and alignment of one allocation unit: the
// combined (payload + user header + system header) chunk a publisher's
// pool allocator carves its segment into.
type Layout struct {
	Size uint64
	Alignment uint64
}

// ErrAlignmentInsufficient is returned when the allocator can't guarantee
// the alignment a service's type requires.
var ErrAlignmentInsufficient = fmt.Errorf("shmalloc: allocator's max supported alignment is insufficient for the requested layout")

// align rounds size up to the next multiple of alignment (alignment must
// be a power of two, as it always is for any type the Go compiler lays
// out).
func align(size, alignment uint64) uint64 {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

// BucketLayout computes the single combined layout every chunk in a pool
// uses,: bucket_layout = (payload + user_header +
// system_header, max(align, alignof_max)).
func BucketLayout(payload, userHeader, systemHeader Layout) Layout {
	maxAlign := payload.Alignment
	if userHeader.Alignment > maxAlign {
		maxAlign = userHeader.Alignment
	}
	if systemHeader.Alignment > maxAlign {
		maxAlign = systemHeader.Alignment
	}
	size := align(systemHeader.Size, payload.Alignment) + payload.Size
	size = align(size, userHeader.Alignment) + userHeader.Size
	size = align(size, maxAlign)
	return Layout{Size: size, Alignment: maxAlign}
}
