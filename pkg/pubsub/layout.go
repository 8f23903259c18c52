package pubsub

import (
	"unsafe"

	"github.com/go-ipcx/ipcx/internal/shmalloc"
)

// systemHeader is stamped into every chunk's bucket ahead of the payload
// at send time ( "stamps the system header: publisher id,
// payload size, number-of-elements"). PublisherNode/PublisherCounter
// together are the sending UniquePublisherID; NumElements supports a
// future slice-payload extension and is 1 for any scalar/struct T.
type systemHeader struct {
	PublisherNode [16]byte
	PublisherCounter uint64
	PayloadSize uint32
	NumElements uint32
}

func systemHeaderLayout() shmalloc.Layout {
	var h systemHeader
	return shmalloc.Layout{Size: uint64(unsafe.Sizeof(h)), Alignment: uint64(unsafe.Alignof(h))}
}

func payloadLayoutFor[T any]() shmalloc.Layout {
	var zero T
	return shmalloc.Layout{Size: uint64(unsafe.Sizeof(zero)), Alignment: uint64(unsafe.Alignof(zero))}
}

// bucketLayoutFor computes the combined (system header + payload) layout
// every chunk of a Publisher[T]'s segment uses (
// "bucket_layout"). There is no user header in this implementation (see
// DESIGN.md - user_header_size is accepted as a parameter but
// not separately exposed since nothing in this spec's scope needs a
// second, independently-typed header region).
func bucketLayoutFor[T any]() (bucket shmalloc.Layout, headerOffset, payloadOffset uint64) {
	payload := payloadLayoutFor[T]()
	header := systemHeaderLayout()
	bucket = shmalloc.BucketLayout(payload, shmalloc.Layout{Size: 0, Alignment: 1}, header)
	headerOffset = 0
	payloadOffset = alignUp(header.Size, payload.Alignment)
	return bucket, headerOffset, payloadOffset
}

func alignUp(size, alignment uint64) uint64 {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}
