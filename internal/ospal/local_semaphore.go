package ospal

import "time"

// LocalSemaphore is a process-local SignalMechanism implementation backed
// by a buffered channel. It satisfies the same contract as EventFD
// (notify wakes exactly one pending wait; try/timed/blocking variants) but
// never leaves the process, so it is used by in-process tests and by the
// single-process fast path where crossing into the kernel for an eventfd
// would be wasted work.
type LocalSemaphore struct {
	ch chan struct{}
}

// NewLocalSemaphore creates a semaphore with room for a single outstanding
// post, matching eventfd's saturating-at-one-pending-wakeup semantics used
// by this codebase (the event id payload, not the wakeup count, is what
// carries multiplicity - see pkg/event).
func NewLocalSemaphore() *LocalSemaphore {
	return &LocalSemaphore{ch: make(chan struct{}, 1)}
}

// Post wakes one pending waiter, or arms the next wait to return
// immediately.
func (s *LocalSemaphore) Post() error {
	select {
	case s.ch <- struct{}{}:
	default:
	}
	return nil
}

// TryWait is non-blocking.
func (s *LocalSemaphore) TryWait() (bool, error) {
	select {
	case <-s.ch:
		return true, nil
	default:
		return false, nil
	}
}

// WaitTimeout blocks up to timeout. A zero timeout behaves like TryWait.
func (s *LocalSemaphore) WaitTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		ok, _ := s.TryWait()
		if !ok {
			return ErrTimedOut
		}
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-s.ch:
		return nil
	case <-t.C:
		return ErrTimedOut
	}
}

// Wait blocks indefinitely. Process-local semaphores cannot be interrupted
// by a POSIX signal in the sense EventFD can (Go's signal handling is
// delivered to os/signal channels, not by EINTR-ing a select), so this
// never returns ErrInterrupted; callers that need signal-driven shutdown
// use pkg/waitset, which selects over both this channel and a signal
// channel.
func (s *LocalSemaphore) Wait() error {
	<-s.ch
	return nil
}

func (s *LocalSemaphore) Close() error { return nil }
