package waitset

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeListener is a minimal Listener test double backed by a channel,
// standing in for pkg/event.Listener without creating an import cycle
// between the two packages' test suites.
type fakeListener struct {
	ch chan uint64
}

func newFakeListener() *fakeListener { return &fakeListener{ch: make(chan uint64, 8)} }

func (f *fakeListener) push(eventID uint64) { f.ch <- eventID }

func (f *fakeListener) TryWait() []uint64 {
	var ids []uint64
	for {
		select {
		case v := <-f.ch:
			ids = append(ids, v)
		default:
			return ids
		}
	}
}

func (f *fakeListener) Wait(timeout time.Duration) ([]uint64, error) {
	select {
	case v := <-f.ch:
		return []uint64{v}, nil
	case <-time.After(timeout):
		return nil, context.DeadlineExceeded
	}
}

func TestWaitAndProcessFiresOnListenerEvent(t *testing.T) {
	ws := New()
	l := newFakeListener()
	id := ws.AttachListener(l)

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ws.WaitAndProcess(ctx, func(got AttachmentID) {
			assert.Equal(t, id, got)
			fired.Add(1)
			cancel()
		})
		close(done)
	}()

	l.push(42)
	<-done
	assert.Equal(t, int32(1), fired.Load())
}

func TestWaitAndProcessFiresOnDeadline(t *testing.T) {
	ws := New()
	id := ws.AttachDeadline(time.Now().Add(20 * time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var gotID AttachmentID
	go func() {
		ws.WaitAndProcess(ctx, func(got AttachmentID) {
			gotID = got
			cancel()
		})
		close(done)
	}()

	<-done
	assert.Equal(t, id, gotID)
}

func TestWaitAndProcessFiresIntervalRepeatedly(t *testing.T) {
	ws := New()
	ws.AttachInterval(15 * time.Millisecond)

	var count atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ws.WaitAndProcess(ctx, func(AttachmentID) {
			if count.Add(1) >= 3 {
				cancel()
			}
		})
		close(done)
	}()

	<-done
	assert.GreaterOrEqual(t, count.Load(), int32(3))
}

func TestDetachListenerTwiceFailsWithUnknownAttachment(t *testing.T) {
	ws := New()
	l := newFakeListener()
	id := ws.AttachListener(l)
	require.NoError(t, ws.Detach(id))

	assert.ErrorIs(t, ws.Detach(id), ErrUnknownAttachment)
}

func TestWaitAndProcessReturnsWhenContextCanceled(t *testing.T) {
	ws := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ws.WaitAndProcess(ctx, func(AttachmentID) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitAndProcessRejectsConcurrentRun(t *testing.T) {
	ws := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		ws.WaitAndProcess(ctx, func(AttachmentID) {})
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	err := ws.WaitAndProcess(context.Background(), func(AttachmentID) {})
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}
