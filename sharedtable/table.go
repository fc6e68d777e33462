// Package sharedtable implements the Shared Counter Table: an
// append-only table of (key-length, key-bytes, float64 value) records
// living inside a shmregion.Region, guarded by a header of region-used
// size plus a change sign. Every attached Table maintains a private
// key-to-offset index and reconciles it against the sign before any
// operation that depends on it.
package sharedtable

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/observability"
	"github.com/coldglass/shmprom/resilience"
	"github.com/coldglass/shmprom/shmregion"
)

const (
	headerUsedOffset = 0
	headerSignOffset = 4
	headerSize       = 14 // offset 14 is where records begin
)

// Record is one decoded (key, value) pair returned by Iterate.
type Record struct {
	Key   key.Key
	Value float64
}

// BatchItem is one entry of an IncBatch/SetBatch call.
type BatchItem struct {
	Key   key.Key
	Value float64 // interpreted as a delta for IncBatch, an absolute value for SetBatch
}

type offsets struct {
	recordStart int
	keyStart    int
	valueStart  int
	recordEnd   int
}

type indexEntry struct {
	keyBytes []byte
	off      offsets
}

// Table is one process's attachment to a shared region. Its index
// fields are private to the attaching Table; nothing about them is
// shared with other processes except through the region's bytes.
type Table struct {
	region  shmregion.Region
	codec   *key.Codec
	breaker *resilience.CircuitBreaker

	idxMu       sync.RWMutex
	cachedSign  [signSize]byte
	cachedUsed  uint32
	initialized bool
	index       map[uint64][]indexEntry

	dropCount uint64
}

// NewTable attaches a Table to region, encoding keys with codec and
// routing lock acquisition through breaker.
func NewTable(region shmregion.Region, codec *key.Codec, breaker *resilience.CircuitBreaker) *Table {
	return &Table{
		region:  region,
		codec:   codec,
		breaker: breaker,
		index:   make(map[uint64][]indexEntry),
	}
}

// Inc atomically increments key's value by delta, creating the key with
// initial value delta if absent, and returns the new value. On region
// exhaustion the increment is dropped: DropCount is incremented, the
// event is logged, and Inc returns 0 without error.
func (t *Table) Inc(ctx context.Context, k key.Key, delta float64) (float64, error) {
	kb, err := t.codec.Encode(k)
	if err != nil {
		return 0, err
	}

	var result float64
	lockErr := t.withWriteLock(func(view []byte) error {
		if err := t.reconcileWrite(view); err != nil {
			return err
		}
		v, _, err := t.appendOrMutate(view, kb, delta, func(old float64) float64 { return old + delta })
		if err == ErrRegionExhausted {
			t.recordDrop(ctx, "inc", k)
			result = 0
			return nil
		}
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if lockErr != nil {
		return 0, lockErr
	}
	return result, nil
}

// Set atomically overwrites key's value with v, creating the key with
// value v if absent, and returns v. On region exhaustion the write is
// dropped and Set returns 0 without error.
func (t *Table) Set(ctx context.Context, k key.Key, v float64) (float64, error) {
	kb, err := t.codec.Encode(k)
	if err != nil {
		return 0, err
	}

	var result float64
	lockErr := t.withWriteLock(func(view []byte) error {
		if err := t.reconcileWrite(view); err != nil {
			return err
		}
		newVal, _, err := t.appendOrMutate(view, kb, v, func(old float64) float64 { return v })
		if err == ErrRegionExhausted {
			t.recordDrop(ctx, "set", k)
			result = 0
			return nil
		}
		if err != nil {
			return err
		}
		result = newVal
		return nil
	})
	if lockErr != nil {
		return 0, lockErr
	}
	return result, nil
}

// Get returns key's current value, or 0.0 if absent. Get never creates
// a key — see SPEC_FULL.md §7, Open Question (2).
//
// Get takes the write lock, not the read lock, because it performs
// lazy index reconciliation (spec.md §4.2): an absent local index entry
// might just mean this process hasn't rescanned since another process
// appended the key.
func (t *Table) Get(ctx context.Context, k key.Key) (float64, error) {
	kb, err := t.codec.Encode(k)
	if err != nil {
		return 0, err
	}

	var result float64
	lockErr := t.withWriteLock(func(view []byte) error {
		if err := t.reconcileWrite(view); err != nil {
			return err
		}
		t.idxMu.RLock()
		e := findEntry(t.index[key.HashBytes(kb)], kb)
		t.idxMu.RUnlock()
		if e == nil {
			result = 0
			return nil
		}
		result = readValue(view, e.off)
		return nil
	})
	return result, lockErr
}

// Iterate returns a snapshot of every (key, value) pair currently in the
// region, under a read lock.
func (t *Table) Iterate(ctx context.Context) ([]Record, error) {
	var records []Record
	lockErr := t.withReadLock(func(view []byte) error {
		if err := t.reconcileRead(view); err != nil {
			return err
		}
		t.idxMu.RLock()
		defer t.idxMu.RUnlock()
		for _, bucket := range t.index {
			for _, e := range bucket {
				k, err := t.codec.Decode(e.keyBytes)
				if err != nil {
					return err
				}
				records = append(records, Record{Key: k, Value: readValue(view, e.off)})
			}
		}
		return nil
	})
	return records, lockErr
}

// Len returns the number of distinct keys known to the local index
// after a reconcile. It takes the write lock so that, like Get, it
// initializes the header of a region nobody has touched yet.
func (t *Table) Len(ctx context.Context) (int, error) {
	var n int
	lockErr := t.withWriteLock(func(view []byte) error {
		if err := t.reconcileWrite(view); err != nil {
			return err
		}
		t.idxMu.RLock()
		defer t.idxMu.RUnlock()
		for _, bucket := range t.index {
			n += len(bucket)
		}
		return nil
	})
	return n, lockErr
}

// Clear resets the region's used count to 0 and drops the local index.
// The region is lazily re-initialized (used restored to headerSize) by
// the next operation that takes the write lock, matching spec.md §8
// scenario 7.
func (t *Table) Clear(ctx context.Context) error {
	return t.withWriteLock(func(view []byte) error {
		t.clearLocked(view)
		return nil
	})
}

// IncBatch applies every item as an increment under a single lock
// acquisition, amortizing lock contention across many small increments.
// This is what storage.Flush's Flush method uses to drain its local
// buffer.
func (t *Table) IncBatch(ctx context.Context, items []BatchItem) error {
	return t.withWriteLock(func(view []byte) error {
		if err := t.reconcileWrite(view); err != nil {
			return err
		}
		for _, item := range items {
			kb, err := t.codec.Encode(item.Key)
			if err != nil {
				return err
			}
			delta := item.Value
			_, _, err = t.appendOrMutate(view, kb, delta, func(old float64) float64 { return old + delta })
			if err == ErrRegionExhausted {
				t.recordDrop(ctx, "inc_batch", item.Key)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SetBatch applies every item as an absolute write under a single lock
// acquisition.
func (t *Table) SetBatch(ctx context.Context, items []BatchItem) error {
	return t.withWriteLock(func(view []byte) error {
		if err := t.reconcileWrite(view); err != nil {
			return err
		}
		for _, item := range items {
			kb, err := t.codec.Encode(item.Key)
			if err != nil {
				return err
			}
			v := item.Value
			_, _, err = t.appendOrMutate(view, kb, v, func(old float64) float64 { return v })
			if err == ErrRegionExhausted {
				t.recordDrop(ctx, "set_batch", item.Key)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// MemorySize returns the region's used byte count as of the last
// reconcile this Table performed. Exposed as a pure accessor so
// collector.TableCollector can report it without Table holding a
// registry reference, per the self-instrumentation design note.
func (t *Table) MemorySize() uint32 {
	t.idxMu.RLock()
	defer t.idxMu.RUnlock()
	return t.cachedUsed
}

// NumKeys returns the number of distinct keys known to the local index
// as of the last reconcile this Table performed.
func (t *Table) NumKeys() int {
	t.idxMu.RLock()
	defer t.idxMu.RUnlock()
	n := 0
	for _, bucket := range t.index {
		n += len(bucket)
	}
	return n
}

// DropCount returns the number of writes dropped due to region
// exhaustion over this Table's lifetime.
func (t *Table) DropCount() uint64 {
	return atomic.LoadUint64(&t.dropCount)
}

func (t *Table) recordDrop(ctx context.Context, op string, k key.Key) {
	atomic.AddUint64(&t.dropCount, 1)
	observability.LogError(ctx, "RegionExhausted", ErrRegionExhausted, map[string]any{
		"op":     op,
		"metric": k.Name,
	})
}

func (t *Table) withWriteLock(fn func(view []byte) error) error {
	return absorbLockFailure(t.breaker.ExecuteVoid(func() error {
		guard, err := shmregion.Acquire(t.region, shmregion.ModeWrite)
		if err != nil {
			return fmt.Errorf("%w: %v", shmregion.ErrLockUnavailable, err)
		}
		defer guard.Release()
		return fn(t.region.View())
	}))
}

func (t *Table) withReadLock(fn func(view []byte) error) error {
	return absorbLockFailure(t.breaker.ExecuteVoid(func() error {
		guard, err := shmregion.Acquire(t.region, shmregion.ModeRead)
		if err != nil {
			return fmt.Errorf("%w: %v", shmregion.ErrLockUnavailable, err)
		}
		defer guard.Release()
		return fn(t.region.View())
	}))
}

// absorbLockFailure logs a lock acquisition failure and swallows it, so
// the public methods return their zero-value sentinel without error, as
// they do on region exhaustion. ErrRegionCorrupt from a read-only
// reconcile is logged and still returned, aborting the operation.
func absorbLockFailure(err error) error {
	switch {
	case errors.Is(err, shmregion.ErrLockUnavailable):
		observability.LogError(context.Background(), "LockUnavailable", err, nil)
		return nil
	case errors.Is(err, ErrRegionCorrupt):
		observability.LogError(context.Background(), "RegionCorrupt", err, nil)
	}
	return err
}

func readValue(view []byte, off offsets) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(view[off.valueStart:off.recordEnd]))
}

func findEntry(bucket []indexEntry, kb []byte) *indexEntry {
	for i := range bucket {
		if string(bucket[i].keyBytes) == string(kb) {
			return &bucket[i]
		}
	}
	return nil
}
