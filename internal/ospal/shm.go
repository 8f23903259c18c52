// Package ospal wraps the OS primitives the core needs: shared memory
// objects, advisory file locks, exclusive-creation files, an eventfd-based
// signal mechanism, clocks and directory scanning. Everything above this
// package talks to these primitives only through the types here, never
// directly to syscall/unix, so that a future non-Linux backend only has to
// reimplement this one package.
package ospal

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// SharedMemory is a named, file-backed mapping usable from multiple
// processes. The owner creates it with Create; every other process opens
// the same path read-write or read-only with Open.
type SharedMemory struct {
	file *os.File
	data []byte
	readOnly bool
}

// CreateSharedMemory creates (or truncates) a shared memory object of the
// given size at path and maps it read-write.
func CreateSharedMemory(path string, size int) (*SharedMemory, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ospal: create shared memory %s: %w", path, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("ospal: truncate shared memory %s: %w", path, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("ospal: mmap shared memory %s: %w", path, err)
	}
	return &SharedMemory{file: f, data: data}, nil
}

// OpenSharedMemory maps an existing shared memory object. readOnly maps it
// PROT_READ only, as a receiver does with a sender's data segment.
func OpenSharedMemory(path string, readOnly bool) (*SharedMemory, error) {
	flag := os.O_RDWR
	prot := unix.PROT_READ | unix.PROT_WRITE
	if readOnly {
		flag = os.O_RDONLY
		prot = unix.PROT_READ
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("ospal: open shared memory %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ospal: stat shared memory %s: %w", path, err)
	}
	size := int(info.Size())
	if size == 0 {
		f.Close()
		return nil, fmt.Errorf("ospal: shared memory %s is empty", path)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ospal: mmap shared memory %s: %w", path, err)
	}
	return &SharedMemory{file: f, data: data, readOnly: readOnly}, nil
}

// Bytes returns the mapped region. Mutating it when the mapping was opened
// read-only is a programmer error and will fault.
func (s *SharedMemory) Bytes() []byte { return s.data }

// Len returns the size in bytes of the mapped region.
func (s *SharedMemory) Len() int { return len(s.data) }

// Close unmaps the region and closes the backing file descriptor. It does
// not unlink the backing file; call Unlink (or os.Remove) separately once
// ownership rules say it is safe to do so.
func (s *SharedMemory) Close() error {
	if s.data != nil {
		if err := unix.Munmap(s.data); err != nil {
			s.file.Close()
			return fmt.Errorf("ospal: munmap: %w", err)
		}
		s.data = nil
	}
	return s.file.Close()
}

// UnlinkSharedMemory removes the backing object. Safe to call after every
// mapping process has closed it, per the last-detacher-unlinks rule.
func UnlinkSharedMemory(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ospal: unlink shared memory %s: %w", path, err)
	}
	return nil
}
