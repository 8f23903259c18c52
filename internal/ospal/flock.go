package ospal

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by TryFlock when the lock is currently held by
// another process.
var ErrWouldBlock = errors.New("ospal: lock is held by another process")

// FileLock is an exclusive advisory lock on a regular file. Holding one is
// the system's definition of "this node is alive": the lock is
// released implicitly, by the kernel, when the owning process exits or is
// killed, with no cooperation required from the dying process.
type FileLock struct {
	file *os.File
	path string
}

// AcquireFileLock opens (creating if needed) the file at path and takes an
// exclusive, non-blocking flock on it. Returns ErrWouldBlock if another
// process already holds it.
func AcquireFileLock(path string) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ospal: open lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrWouldBlock
		}
		return nil, fmt.Errorf("ospal: flock %s: %w", path, err)
	}
	return &FileLock{file: f, path: path}, nil
}

// TryFlock attempts to take the same exclusive lock another node holds,
// without creating the file. Used by dead-node detection: success
// here means the owning process is gone, because the kernel would have
// refused it otherwise. The returned lock, if any, should be released with
// Release once cleanup of the dead node's resources is done.
func TryFlock(path string) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		if os.IsPermission(err) {
			return nil, os.ErrPermission
		}
		return nil, fmt.Errorf("ospal: open lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrWouldBlock
		}
		return nil, fmt.Errorf("ospal: flock %s: %w", path, err)
	}
	return &FileLock{file: f, path: path}, nil
}

// Release unlocks and closes the file. It does not remove the file; the
// caller unlinks the node record separately once it has finished reading
// whatever state the dead node left behind.
func (l *FileLock) Release() error {
	if l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	cerr := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("ospal: unlock %s: %w", l.path, err)
	}
	return cerr
}

// Path returns the locked file's path.
func (l *FileLock) Path() string { return l.path }

// CreateExclusive implements the O_CREAT|O_EXCL creation-lock primitive
// used by the service create protocol: exactly one caller
// across all processes succeeds; everyone else observes os.ErrExist.
func CreateExclusive(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, os.ErrExist
		}
		return nil, fmt.Errorf("ospal: create-exclusive %s: %w", path, err)
	}
	return f, nil
}
