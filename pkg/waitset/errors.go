// Package waitset implements the cooperative single-threaded reactor
// (SPEC_FULL.md §4.6): a WaitSet collects Listener, Deadline and
// Interval attachments and invokes a caller-supplied callback for
// whichever one becomes ready, once per WaitAndProcess loop iteration,
// without spawning a goroutine per attachment's business logic.
package waitset

import "errors"

// ErrUnknownAttachment is returned by Detach when id does not name a
// currently attached entry.
var ErrUnknownAttachment = errors.New("waitset: unknown attachment")

// ErrAlreadyRunning is returned by WaitAndProcess if called on a WaitSet
// that is already running a loop on another goroutine.
var ErrAlreadyRunning = errors.New("waitset: already running")
