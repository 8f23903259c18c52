// Package blackboard implements the blackboard messaging pattern
// (SPEC_FULL.md §4.9): a single Writer[K,V] holds a shared-memory table
// of fixed-size, seqlock-protected cells, one per key; any number of
// Reader[K,V] take last-value-wins snapshots of a key's current cell
// without any queue or history - unlike pkg/pubsub, a blackboard never
// delivers what was written while nobody was reading it.
package blackboard

import "errors"

// ErrExceedsMaxEntries is returned by Writer.Set when the key table
// already holds its configured maximum distinct keys and key is not
// already among them.
var ErrExceedsMaxEntries = errors.New("blackboard: exceeds max entries for this service")

// ErrKeyNotFound is returned by Reader.Get when key has never been
// written by this service's Writer.
var ErrKeyNotFound = errors.New("blackboard: key not found")

// ErrTornRead is returned by Reader.Get when a cell could not be read
// consistently within the bounded number of seqlock retries - the writer
// is updating it faster than the reader can keep up.
var ErrTornRead = errors.New("blackboard: torn read, writer contention exceeded retry budget")

// ErrExceedsMaxWriters is returned when a service's writer roster is
// already at its configured cap.
var ErrExceedsMaxWriters = errors.New("blackboard: exceeds max writers for this service")

// ErrExceedsMaxReaders is returned when a service's reader roster is
// already at its configured cap.
var ErrExceedsMaxReaders = errors.New("blackboard: exceeds max readers for this service")
