package event

import "time"

// SignalMechanism is the Open Question (i) resolution named in
// SPEC_FULL.md §4.4: a Listener waits on one of these, a Notifier posts
// to it, and both internal/ospal.EventFD (cross-process, eventfd(2)) and
// internal/ospal.LocalSemaphore (process-local, channel-backed) satisfy
// it with the same interrupted/timed-out contract.
type SignalMechanism interface {
	Post() error
	TryWait() (bool, error)
	WaitTimeout(timeout time.Duration) error
	Wait() error
	Close() error
}
