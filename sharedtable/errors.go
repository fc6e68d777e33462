package sharedtable

import "errors"

// ErrRegionExhausted is returned internally when an append would exceed
// the region's fixed capacity. It never escapes Table's public methods:
// callers absorb it, count it (Table.DropCount), log it, and return the
// documented sentinel (0.0 for Inc, a no-op for Set) — see spec.md §7.
var ErrRegionExhausted = errors.New("sharedtable: region exhausted")

// ErrRegionCorrupt is returned when reconcile, scanning under a lock it
// does not hold in write mode, finds a record whose self-description is
// inconsistent (e.g. key_len runs past used). Under a write lock this
// condition instead triggers a clear-and-reinitialize and reconcile
// returns nil.
var ErrRegionCorrupt = errors.New("sharedtable: region corrupt")
