// Package event implements the event messaging pattern (SPEC_FULL.md
// §4.4): a Notifier pushes event ids to every connected Listener and wakes
// it through a SignalMechanism, the same Connect/Notify/Wait shape as
// pkg/pubsub's loan/send/receive cycle but carrying a small integer
// instead of a shared-memory payload.
package event

import "errors"

// ErrExceedsMaxNotifiers is returned when a service's notifier roster is
// already at its configured cap.
var ErrExceedsMaxNotifiers = errors.New("event: exceeds max notifiers for this service")

// ErrExceedsMaxListeners is returned when a service's listener roster is
// already at its configured cap.
var ErrExceedsMaxListeners = errors.New("event: exceeds max listeners for this service")

// ErrEventIDOutOfRange is returned by Notify when eventID exceeds the
// service's configured EventIDMaxValue.
var ErrEventIDOutOfRange = errors.New("event: event id exceeds service maximum")

// ErrConnectionFailure mirrors pkg/pubsub.ErrConnectionFailure: a
// listener's queue could not accept an id, most often because its
// process died and the connection is stale.
var ErrConnectionFailure = errors.New("event: connection failure")
