package node

import "errors"

// ErrMalformedRecord is returned when a node record file's contents don't
// parse.
var ErrMalformedRecord = errors.New("node: record is malformed")
