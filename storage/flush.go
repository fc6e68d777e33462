package storage

import (
	"context"
	"sync"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/sharedtable"
)

// Flush is the two-tier hybrid storage: increments accumulate in an
// in-process buffer and are periodically drained into the shared table
// with a single batched lock acquisition, amortizing lock contention
// across many small increments per request. Reads always go to the
// shared table so cross-process aggregates stay observable.
//
// Its correctness condition (spec.md §4.3) is that only inc-style
// aggregation is buffered: Set bypasses the local buffer entirely and
// writes straight through to the shared table, because buffering a
// "last write wins" Set locally would silently discard whichever
// writer's Set didn't happen to run last before the next flush — data
// loss that inc's additive, order-independent nature doesn't share.
type Flush struct {
	shared *Shared

	mu     sync.Mutex
	buffer map[uint64]bufferedDelta
}

type bufferedDelta struct {
	key   key.Key
	delta float64
}

// NewFlush wraps table in a Flush storage.
func NewFlush(table *sharedtable.Table) *Flush {
	return &Flush{
		shared: NewShared(table),
		buffer: make(map[uint64]bufferedDelta),
	}
}

func (f *Flush) Inc(ctx context.Context, k key.Key, delta float64) (float64, error) {
	h := key.HashBytes(mustEncode(k))
	f.mu.Lock()
	b, ok := f.buffer[h]
	if !ok {
		b = bufferedDelta{key: k}
	}
	b.delta += delta
	f.buffer[h] = b
	f.mu.Unlock()
	return b.delta, nil
}

// Set bypasses the local buffer and writes straight to the shared
// table; see the Flush doc comment.
func (f *Flush) Set(ctx context.Context, k key.Key, v float64) (float64, error) {
	return f.shared.Set(ctx, k, v)
}

func (f *Flush) Get(ctx context.Context, k key.Key) (float64, error) {
	return f.shared.Get(ctx, k)
}

func (f *Flush) Iterate(ctx context.Context) ([]Record, error) {
	return f.shared.Iterate(ctx)
}

func (f *Flush) Len(ctx context.Context) (int, error) {
	return f.shared.Len(ctx)
}

func (f *Flush) Clear(ctx context.Context) error {
	f.mu.Lock()
	f.buffer = make(map[uint64]bufferedDelta)
	f.mu.Unlock()
	return f.shared.Clear(ctx)
}

// Flush drains the local buffer into the shared table via a single
// IncBatch call, then clears the buffer. Pending increments not yet
// flushed are invisible to Get/Iterate/Len, matching spec.md §8
// scenario 6.
func (f *Flush) Flush(ctx context.Context) error {
	f.mu.Lock()
	if len(f.buffer) == 0 {
		f.mu.Unlock()
		return nil
	}
	items := make([]sharedtable.BatchItem, 0, len(f.buffer))
	for _, b := range f.buffer {
		items = append(items, sharedtable.BatchItem{Key: b.key, Value: b.delta})
	}
	f.buffer = make(map[uint64]bufferedDelta)
	f.mu.Unlock()

	return f.shared.table.IncBatch(ctx, items)
}

var encodeCodec = key.NewCodec()

func mustEncode(k key.Key) []byte {
	b, err := encodeCodec.Encode(k)
	if err != nil {
		// Keys passed through the public metrics API are always built
		// via key.NewKey and therefore always encodable; a failure here
		// means an aggregator constructed a Key by hand with an
		// over-length field, which is a programmer error, not a
		// runtime condition Flush needs to recover from.
		panic(err)
	}
	return b
}
