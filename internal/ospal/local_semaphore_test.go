package ospal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalSemaphorePostTryWait(t *testing.T) {
	s := NewLocalSemaphore()

	ok, err := s.TryWait()
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Post())

	ok, err = s.TryWait()
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalSemaphoreWaitTimeout(t *testing.T) {
	s := NewLocalSemaphore()
	err := s.WaitTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimedOut)
}

func TestLocalSemaphoreWaitWakesOnPost(t *testing.T) {
	s := NewLocalSemaphore()
	done := make(chan struct{})
	go func() {
		_ = s.Wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, s.Post())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after Post")
	}
}
