package lockfree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeListDrainsAllIndicesExactlyOnce(t *testing.T) {
	fl := NewFreeList(8)
	seen := map[uint32]bool{}
	for i := 0; i < 8; i++ {
		idx, ok := fl.Pop()
		require.True(t, ok)
		assert.False(t, seen[idx], "index %d popped twice", idx)
		seen[idx] = true
	}
	_, ok := fl.Pop()
	assert.False(t, ok, "a fully-drained free list must report empty")
}

func TestFreeListPushMakesIndexAvailableAgain(t *testing.T) {
	fl := NewFreeList(2)
	a, _ := fl.Pop()
	_, _ = fl.Pop()
	_, ok := fl.Pop()
	require.False(t, ok)

	fl.Push(a)
	back, ok := fl.Pop()
	require.True(t, ok)
	assert.Equal(t, a, back)
}

func TestFreeListConcurrentPopPushNeverDuplicates(t *testing.T) {
	const capacity = 64
	fl := NewFreeList(capacity)

	var mu sync.Mutex
	outstanding := map[uint32]bool{}
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				idx, ok := fl.Pop()
				if !ok {
					continue
				}
				mu.Lock()
				dup := outstanding[idx]
				outstanding[idx] = true
				mu.Unlock()
				assert.False(t, dup, "index %d handed out while already outstanding", idx)

				mu.Lock()
				delete(outstanding, idx)
				mu.Unlock()
				fl.Push(idx)
			}
		}()
	}
	wg.Wait()
}
