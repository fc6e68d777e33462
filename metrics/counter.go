package metrics

import (
	"context"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/storage"
)

// Counter is a monotonically increasing metric, one series per distinct
// label value tuple.
type Counter struct {
	desc    Desc
	storage storage.Storage
}

// NewCounter returns a Counter backed by st. labelNames fixes the arity
// and order label values must be supplied in on every call.
func NewCounter(st storage.Storage, name, help string, labelNames ...string) *Counter {
	return &Counter{
		desc:    Desc{Name: name, Help: help, Type: "counter", LabelNames: labelNames},
		storage: st,
	}
}

// Desc returns the counter's family description.
func (c *Counter) Desc() Desc { return c.desc }

// Inc increments the series identified by labelValues by 1.
func (c *Counter) Inc(ctx context.Context, labelValues ...string) (float64, error) {
	return c.Add(ctx, 1, labelValues...)
}

// Add increments the series identified by labelValues by delta. Negative
// deltas are rejected: counters are monotonic by definition.
func (c *Counter) Add(ctx context.Context, delta float64, labelValues ...string) (float64, error) {
	if delta < 0 {
		return 0, errNegativeDelta
	}
	k := key.NewKey(key.TypeCounter, c.desc.Name, "", labelsFromValues(c.desc.LabelNames, labelValues))
	return c.storage.Inc(ctx, k, delta)
}

// Value returns the current value of the series identified by
// labelValues, or 0 if it has never been observed.
func (c *Counter) Value(ctx context.Context, labelValues ...string) (float64, error) {
	k := key.NewKey(key.TypeCounter, c.desc.Name, "", labelsFromValues(c.desc.LabelNames, labelValues))
	return c.storage.Get(ctx, k)
}
