package node

import (
	"errors"
	"os"

	"github.com/go-ipcx/ipcx/internal/ospal"
)

// ReclaimIfDead implements dead-node detection step: it
// attempts to take the exclusive lock on the node record at path. Success
// proves the owning process is gone - the kernel would have refused the
// lock otherwise - and the caller becomes the cleaner: cleanup is invoked
// while still holding the lock, so concurrent reclaimers racing on the
// same dead node are funneled into exactly one winner. Once cleanup
// returns without error, the record file is unlinked and the lock
// released. If the lock is already held, ReclaimIfDead returns
// (false, nil): the node is alive, there is nothing to do.
//
// cleanup is supplied by the caller (normally CleanupDeadNode, which
// dispatches to every registered pattern cleaner) since pkg/node has no
// notion of what a
// port is; it receives the dead node's id so it can enumerate that node's
// ports from the service's dynamic config and run the pattern-specific
// close-connection/unlink-segment/remove-roster-entry routine for each.
func ReclaimIfDead(path string, id NodeId, cleanup func(NodeId) error) (bool, error) {
	lock, err := ospal.TryFlock(path)
	if err != nil {
		if errors.Is(err, ospal.ErrWouldBlock) {
			return false, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer lock.Release()

	if cleanup != nil {
		if err := cleanup(id); err != nil {
			return false, err
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, err
	}
	return true, nil
}
