package ospal

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ErrInterrupted is returned by any wait call interrupted by a signal
// before its timeout or semantic condition was reached.
var ErrInterrupted = errors.New("ospal: wait interrupted by signal")

// ErrTimedOut is returned by Wait when the deadline elapses with no post.
var ErrTimedOut = errors.New("ospal: wait timed out")

// EventFD is a cross-process signal primitive backed by Linux eventfd(2),
// standing in for a POSIX unnamed semaphore: Post increments the kernel
// counter and wakes exactly one pending Wait; Wait (and TryWait/WaitTimeout)
// decrement it back to zero.
//
// Interrupted waits are reported explicitly as ErrInterrupted rather than
// silently retried on EINTR, so a caller's own signal handling decides
// whether to resume waiting.
type EventFD struct {
	fd int
}

// NewEventFD creates a fresh, zero-valued eventfd. The descriptor is
// process-local; another process can use it only once it inherits or
// receives the fd and wraps it with OpenEventFD.
func NewEventFD() (*EventFD, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("ospal: eventfd: %w", err)
	}
	return &EventFD{fd: fd}, nil
}

// OpenEventFD wraps an already-open eventfd descriptor, e.g. one received
// via SCM_RIGHTS or inherited across fork/exec.
func OpenEventFD(fd int) *EventFD { return &EventFD{fd: fd} }

// FD returns the underlying file descriptor, for passing across processes.
func (e *EventFD) FD() int { return e.fd }

// Post wakes one pending waiter (or arms the next Wait to return
// immediately, if none is currently pending).
func (e *EventFD) Post() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(e.fd, buf[:])
	if err != nil {
		return fmt.Errorf("ospal: eventfd post: %w", err)
	}
	return nil
}

// TryWait is a non-blocking poll: returns true if a pending post was
// consumed, false if none was available.
func (e *EventFD) TryWait() (bool, error) {
	var buf [8]byte
	_, err := unix.Read(e.fd, buf[:])
	if err == nil {
		return true, nil
	}
	if err == unix.EAGAIN {
		return false, nil
	}
	return false, fmt.Errorf("ospal: eventfd try-wait: %w", err)
}

// WaitTimeout blocks until a post arrives, the timeout elapses
// (ErrTimedOut), or a signal interrupts the wait (ErrInterrupted). A zero
// timeout behaves like TryWait.
func (e *EventFD) WaitTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		ok, err := e.TryWait()
		if err != nil {
			return err
		}
		if !ok {
			return ErrTimedOut
		}
		return nil
	}

	deadline := time.Now().Add(timeout)
	pfd := []unix.PollFd{{Fd: int32(e.fd), Events: unix.POLLIN}}
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrTimedOut
		}
		n, err := unix.Poll(pfd, int(remaining.Milliseconds())+1)
		if err != nil {
			if err == unix.EINTR {
				return ErrInterrupted
			}
			return fmt.Errorf("ospal: eventfd poll: %w", err)
		}
		if n == 0 {
			return ErrTimedOut
		}
		ok, err := e.TryWait()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		// Spurious wakeup (another waiter consumed the post first under a
		// multi-waiter misuse) - loop until the deadline.
	}
}

// Wait blocks until a post arrives or a signal interrupts the wait.
func (e *EventFD) Wait() error {
	pfd := []unix.PollFd{{Fd: int32(e.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(pfd, -1)
		if err != nil {
			if err == unix.EINTR {
				return ErrInterrupted
			}
			return fmt.Errorf("ospal: eventfd poll: %w", err)
		}
		if n == 0 {
			continue
		}
		ok, err := e.TryWait()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

// Close releases the file descriptor.
func (e *EventFD) Close() error {
	if e.fd < 0 {
		return nil
	}
	err := unix.Close(e.fd)
	e.fd = -1
	if err != nil {
		return fmt.Errorf("ospal: eventfd close: %w", err)
	}
	return nil
}
