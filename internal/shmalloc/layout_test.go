package shmalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketLayoutAlignsAndSums(t *testing.T) {
	payload := Layout{Size: 10, Alignment: 8}
	userHeader := Layout{Size: 4, Alignment: 4}
	systemHeader := Layout{Size: 6, Alignment: 8}

	got := BucketLayout(payload, userHeader, systemHeader)

	assert.Equal(t, uint64(8), got.Alignment)
	assert.True(t, got.Size%got.Alignment == 0, "bucket size must be a multiple of its alignment")
	assert.GreaterOrEqual(t, got.Size, systemHeader.Size+payload.Size+userHeader.Size)
}

func TestBucketLayoutZeroHeaders(t *testing.T) {
	payload := Layout{Size: 16, Alignment: 4}
	zero := Layout{}
	got := BucketLayout(payload, zero, zero)
	assert.Equal(t, uint64(4), got.Alignment)
	assert.Equal(t, uint64(16), got.Size)
}
