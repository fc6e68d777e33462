package shmregion

import "sync"

// MemoryRegion is an in-process Region backed by a plain byte slice. It
// exists so sharedtable.Table can run its exact production code path in
// tests, and in single-process programs that want the shared-counter
// machinery without a real shared memory segment, without attaching to
// an actual file.
//
// Both lock modes map onto the same exclusive mutex. PosixRegion, below,
// is the backend that gives genuinely concurrent shared readers across
// processes via flock(2); MemoryRegion's test-double role never needs
// that, so a single mutex keeps Unlock unambiguous (flock's LOCK_UN
// needs no mode argument either, for the same reason — whatever mode
// you hold, unlock releases it).
type MemoryRegion struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryRegion allocates a zeroed region of the given size. A freshly
// allocated region starts with used == 0 at offset 0, which sharedtable
// interprets as "uninitialized" per spec.md's lifecycle.
func NewMemoryRegion(size int) *MemoryRegion {
	return &MemoryRegion{data: make([]byte, size)}
}

func (r *MemoryRegion) View() []byte { return r.data }

func (r *MemoryRegion) Capacity() int { return len(r.data) }

func (r *MemoryRegion) RLock() error {
	r.mu.Lock()
	return nil
}

func (r *MemoryRegion) WLock() error {
	r.mu.Lock()
	return nil
}

func (r *MemoryRegion) Unlock() error {
	r.mu.Unlock()
	return nil
}
