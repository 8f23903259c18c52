package lockfree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotMapInsertGetRemove(t *testing.T) {
	m := NewSlotMap[string](2)
	assert.Equal(t, 2, m.Cap())

	h1, ok := m.Insert("alice")
	require.True(t, ok)
	h2, ok := m.Insert("bob")
	require.True(t, ok)

	_, ok = m.Insert("overflow")
	assert.False(t, ok, "a third insert into a capacity-2 map must fail")

	v, ok := m.Get(h1)
	require.True(t, ok)
	assert.Equal(t, "alice", v)

	assert.True(t, m.Remove(h1))
	_, ok = m.Get(h1)
	assert.False(t, ok)

	v, ok = m.Get(h2)
	require.True(t, ok)
	assert.Equal(t, "bob", v)
}

func TestSlotMapStaleHandleAfterReuse(t *testing.T) {
	m := NewSlotMap[int](1)
	h, ok := m.Insert(1)
	require.True(t, ok)
	require.True(t, m.Remove(h))

	h2, ok := m.Insert(2)
	require.True(t, ok)
	assert.Equal(t, h.Index, h2.Index)
	assert.NotEqual(t, h.Generation, h2.Generation)

	_, ok = m.Get(h)
	assert.False(t, ok, "stale handle from before reuse must not resolve to the new occupant")

	v, ok := m.Get(h2)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestSlotMapUpdate(t *testing.T) {
	m := NewSlotMap[int](1)
	h, _ := m.Insert(10)
	ok := m.Update(h, func(v int) int { return v + 5 })
	assert.True(t, ok)
	v, _ := m.Get(h)
	assert.Equal(t, 15, v)
}

func TestSlotMapEachSkipsEmptySlots(t *testing.T) {
	m := NewSlotMap[int](3)
	h1, _ := m.Insert(1)
	_, _ = m.Insert(2)
	m.Remove(h1)

	seen := map[uint32]int{}
	m.Each(func(h Handle, v int) { seen[h.Index] = v })
	assert.Len(t, seen, 1)
	assert.Equal(t, 1, m.Len())
}
