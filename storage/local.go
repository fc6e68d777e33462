package storage

import (
	"context"
	"sync"

	"github.com/coldglass/shmprom/key"
)

// Local is a pure in-process map storage — the Go analogue of
// pyprometheus's LocalMemoryStorage. Used directly by process-local
// gauges, and as the front tier of Flush.
type Local struct {
	mu     sync.RWMutex
	codec  *key.Codec
	values map[uint64]localEntry
}

type localEntry struct {
	key   key.Key
	value float64
}

// NewLocal returns an empty Local storage.
func NewLocal() *Local {
	return &Local{codec: key.NewCodec(), values: make(map[uint64]localEntry)}
}

func (l *Local) hashOf(k key.Key) uint64 {
	b, _ := l.codec.Encode(k) // encoding a Key never fails for values constructed via NewKey
	return key.HashBytes(b)
}

func (l *Local) Inc(ctx context.Context, k key.Key, delta float64) (float64, error) {
	h := l.hashOf(k)
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.values[h]
	if !ok {
		e = localEntry{key: k, value: 0}
	}
	e.value += delta
	e.key = k
	l.values[h] = e
	return e.value, nil
}

func (l *Local) Set(ctx context.Context, k key.Key, v float64) (float64, error) {
	h := l.hashOf(k)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values[h] = localEntry{key: k, value: v}
	return v, nil
}

func (l *Local) Get(ctx context.Context, k key.Key) (float64, error) {
	h := l.hashOf(k)
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.values[h].value, nil
}

func (l *Local) Iterate(ctx context.Context) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records := make([]Record, 0, len(l.values))
	for _, e := range l.values {
		records = append(records, Record{Key: e.key, Value: e.value})
	}
	return records, nil
}

func (l *Local) Len(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.values), nil
}

func (l *Local) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = make(map[uint64]localEntry)
	return nil
}
