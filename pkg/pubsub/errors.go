// Package pubsub implements the publish-subscribe messaging pattern
//: a Publisher owns a data segment carved by
// internal/shmalloc, a Subscriber borrows samples out of it by resolving
// the PointerOffset handed across a connection, and the service's
// in-process serviceRegistry reconciles the pair against the service's
// publisher/subscriber roster.
package pubsub

import "errors"

// ErrExceedsMaxLoanedSamples is returned by LoanUninit when the calling
// publisher already holds its configured cap of un-sent loans (
// ).
var ErrExceedsMaxLoanedSamples = errors.New("pubsub: exceeds max loaned samples")

// ErrExceedsMaxBorrowedSamples is returned by Receive when the calling
// subscriber already holds its configured cap of un-released samples.
var ErrExceedsMaxBorrowedSamples = errors.New("pubsub: exceeds max borrowed samples")

// ErrConnectionFailure is returned when a publisher's data segment can no
// longer be mapped - most often because the publisher process died and
// its segment was unlinked by the dead-node cleanup protocol (
// ) before this subscriber finished with it.
var ErrConnectionFailure = errors.New("pubsub: connection failure")

// ErrExceedsMaxSupportedPorts is returned when a service's publisher or
// subscriber roster is already full ( step 6,
// "ExceedsMaxSupportedNodes").
var ErrExceedsMaxSupportedPorts = errors.New("pubsub: exceeds max supported ports for this service")

// ErrAlreadyReleased is returned by Sample.Release if called more than
// once.
var ErrAlreadyReleased = errors.New("pubsub: sample already released")

// ErrWouldBlock is returned by Send when a publisher configured with the
// Block overflow policy finds a connected subscriber's queue full.
var ErrWouldBlock = errors.New("pubsub: send would block")
