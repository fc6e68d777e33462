// Package shmregion provides the Shared Region Primitive: a fixed-size
// byte buffer visible to cooperating processes, plus advisory read and
// write locks on it.
package shmregion

import "errors"

// ErrLockUnavailable is returned by RLock/WLock when the host-level
// locking primitive reports a failure (e.g. a stale flock on a region
// whose original holder died). sharedtable treats it the same way as
// region exhaustion: logged, absorbed, never raised into a metric-
// recording hot path.
var ErrLockUnavailable = errors.New("shmregion: lock unavailable")

// Region abstracts a fixed-size byte buffer shared by all cooperating
// processes on one host, plus advisory read/write locks on it. This is
// spec.md's region primitive: memoryview/rlock/wlock/unlock.
type Region interface {
	// View returns the region's backing bytes. The returned slice
	// aliases the region's memory; callers must hold RLock or WLock
	// while reading or writing through it.
	View() []byte

	// Capacity returns the fixed size of the region in bytes.
	Capacity() int

	// RLock acquires the region's shared read lock, blocking until
	// available.
	RLock() error

	// WLock acquires the region's exclusive write lock, blocking until
	// available.
	WLock() error

	// Unlock releases whichever lock mode the caller currently holds.
	Unlock() error
}
