package lockfree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitsetSetClearTest(t *testing.T) {
	b := NewBitset(128)
	assert.Equal(t, 128, b.Len())
	assert.False(t, b.Test(64))

	prev := b.Set(64)
	assert.False(t, prev)
	assert.True(t, b.Test(64))

	prev = b.Set(64)
	assert.True(t, prev, "setting an already-set bit reports the previous value")

	assert.Equal(t, 1, b.Count())

	prev = b.Clear(64)
	assert.True(t, prev)
	assert.False(t, b.Test(64))
	assert.Equal(t, 0, b.Count())
}

func TestBitsetCountAcrossWords(t *testing.T) {
	b := NewBitset(200)
	for _, i := range []int{0, 63, 64, 127, 199} {
		b.Set(i)
	}
	assert.Equal(t, 5, b.Count())
}
