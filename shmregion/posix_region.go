package shmregion

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// PosixRegion is a Region backed by an mmap-ed fixed-size file, guarded
// by flock(2) for the read/write lock modes. This is the real
// cross-process backend: any process that opens the same path and mmaps
// it observes the same bytes, and flock's LOCK_SH/LOCK_EX give the
// actual shared-reader / exclusive-writer semantics spec.md's region
// primitive asks for.
//
// Grounded on the pack's own mmap+flock shared binary file
// (calvinalkan-agent-task's cache_binary.go and lock.go), generalized
// from a single-writer CLI cache file to a concurrently-attached,
// multi-process region.
type PosixRegion struct {
	file *os.File
	data []byte
}

// NewPosixRegion opens (creating if necessary) the file at path,
// ensures it is at least size bytes, and mmaps it PROT_READ|PROT_WRITE,
// MAP_SHARED so writes are visible to every other process with the same
// file mapped.
func NewPosixRegion(path string, size int) (*PosixRegion, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shmregion: open %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("shmregion: stat %s: %w", path, err)
	}
	if info.Size() < int64(size) {
		if err := file.Truncate(int64(size)); err != nil {
			file.Close()
			return nil, fmt.Errorf("shmregion: truncate %s: %w", path, err)
		}
	}

	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("shmregion: mmap %s: %w", path, err)
	}

	return &PosixRegion{file: file, data: data}, nil
}

func (r *PosixRegion) View() []byte { return r.data }

func (r *PosixRegion) Capacity() int { return len(r.data) }

func (r *PosixRegion) RLock() error {
	if err := unix.Flock(int(r.file.Fd()), unix.LOCK_SH); err != nil {
		return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	return nil
}

func (r *PosixRegion) WLock() error {
	if err := unix.Flock(int(r.file.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	return nil
}

func (r *PosixRegion) Unlock() error {
	return unix.Flock(int(r.file.Fd()), unix.LOCK_UN)
}

// Close unmaps the region and closes the underlying file. It does not
// remove the file: the region outlives any single attacher.
func (r *PosixRegion) Close() error {
	if err := unix.Munmap(r.data); err != nil {
		r.file.Close()
		return fmt.Errorf("shmregion: munmap: %w", err)
	}
	return r.file.Close()
}
