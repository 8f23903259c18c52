package node

import "sync"

// PatternCleaner is implemented by each messaging pattern package
// (pkg/pubsub, pkg/event, pkg/reqres, pkg/blackboard) so dead-node
// cleanup dispatch (SPEC_FULL.md §4.7) can prune that pattern's ports for
// a dead node without pkg/node needing to know what a port is. Each
// pattern package registers its implementation from an init func, since
// pkg/node cannot import any of them directly - they already import
// pkg/node for UniquePortID/NodeId.
type PatternCleaner interface {
	CleanupNode(id NodeId) error
}

var (
	cleanersMu sync.Mutex
	cleaners []PatternCleaner
)

// RegisterPatternCleaner adds c to the set CleanupDeadNode invokes.
func RegisterPatternCleaner(c PatternCleaner) {
	cleanersMu.Lock()
	defer cleanersMu.Unlock()
	cleaners = append(cleaners, c)
}

// CleanupDeadNode invokes every registered PatternCleaner for id. Pass
// this as the cleanup callback to ReclaimIfDead so every messaging
// pattern gets a chance to drop the dead node's ports and connections
// before its record file is unlinked.
func CleanupDeadNode(id NodeId) error {
	cleanersMu.Lock()
	list := make([]PatternCleaner, len(cleaners))
	copy(list, cleaners)
	cleanersMu.Unlock()

	for _, c := range list {
		if err := c.CleanupNode(id); err != nil {
			return err
		}
	}
	return nil
}
