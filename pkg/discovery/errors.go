package discovery

import "errors"

// ErrTrackerNameTaken is returned by NewTracker if the well-known
// discovery service already exists under an incompatible pattern or
// type - practically unreachable unless something else on the node
// collides with the reserved service name.
var ErrTrackerNameTaken = errors.New("discovery: reserved tracker service name is taken by an incompatible service")
