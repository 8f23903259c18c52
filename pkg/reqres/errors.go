// Package reqres implements the request-response messaging pattern
// (SPEC_FULL.md §4.5): a Client sends a request and gets back a stream of
// correlated responses, a Server receives requests and replies on the
// same correlation id. Grounded on the teacher's SDO client/server
// request/response correlation machinery (pkg/sdo/client.go,
// pkg/sdo/server.go) - same shape, one side issues a request carrying a
// correlation id and the other replies on a correlated stream - reworked
// from CANopen's segmented/block transfer semantics to this spec's
// push/queue semantics.
package reqres

import "errors"

// ErrExceedsMaxActiveRequests is returned by Client.Send when the client
// already holds its configured cap of un-received-response requests.
var ErrExceedsMaxActiveRequests = errors.New("reqres: exceeds max active requests for this client")

// ErrExceedsMaxBorrowedResponses is returned by ActiveRequest.Receive when
// its configured per-pending-response borrow cap is already held.
var ErrExceedsMaxBorrowedResponses = errors.New("reqres: exceeds max borrowed responses")

// ErrConnectionFailure mirrors pkg/pubsub.ErrConnectionFailure.
var ErrConnectionFailure = errors.New("reqres: connection failure")

// ErrAlreadyReleased is returned by Response.Release if called more than
// once.
var ErrAlreadyReleased = errors.New("reqres: response already released")

// ErrNoServer is returned by Client.Send when no server is currently
// connected to receive the request.
var ErrNoServer = errors.New("reqres: no server connected")

// ErrExceedsMaxClients is returned when a service's client roster is
// already at its configured cap.
var ErrExceedsMaxClients = errors.New("reqres: exceeds max clients for this service")

// ErrExceedsMaxServers is returned when a service's server roster is
// already at its configured cap.
var ErrExceedsMaxServers = errors.New("reqres: exceeds max servers for this service")
