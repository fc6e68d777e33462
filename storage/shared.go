package storage

import (
	"context"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/sharedtable"
)

// Shared adapts a *sharedtable.Table to the Storage interface, so
// aggregators can hold a Storage without knowing whether it's backed by
// the shared region directly or wrapped in a Flush buffer.
type Shared struct {
	table *sharedtable.Table
}

// NewShared wraps table as a Storage.
func NewShared(table *sharedtable.Table) *Shared {
	return &Shared{table: table}
}

func (s *Shared) Inc(ctx context.Context, k key.Key, delta float64) (float64, error) {
	return s.table.Inc(ctx, k, delta)
}

func (s *Shared) Set(ctx context.Context, k key.Key, v float64) (float64, error) {
	return s.table.Set(ctx, k, v)
}

func (s *Shared) Get(ctx context.Context, k key.Key) (float64, error) {
	return s.table.Get(ctx, k)
}

func (s *Shared) Iterate(ctx context.Context) ([]Record, error) {
	recs, err := s.table.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = Record{Key: r.Key, Value: r.Value}
	}
	return out, nil
}

func (s *Shared) Len(ctx context.Context) (int, error) {
	return s.table.Len(ctx)
}

func (s *Shared) Clear(ctx context.Context) error {
	return s.table.Clear(ctx)
}
