package metrics

import (
	"context"
	"time"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/storage"
)

// Gauge is an arbitrary float64 metric that can move in either
// direction, one series per distinct label value tuple.
type Gauge struct {
	desc    Desc
	storage storage.Storage
}

// NewGauge returns a Gauge backed by st.
func NewGauge(st storage.Storage, name, help string, labelNames ...string) *Gauge {
	return &Gauge{
		desc:    Desc{Name: name, Help: help, Type: "gauge", LabelNames: labelNames},
		storage: st,
	}
}

// Desc returns the gauge's family description.
func (g *Gauge) Desc() Desc { return g.desc }

// Set overwrites the series identified by labelValues with v.
func (g *Gauge) Set(ctx context.Context, v float64, labelValues ...string) (float64, error) {
	k := g.key(labelValues)
	return g.storage.Set(ctx, k, v)
}

// Inc increments the series identified by labelValues by 1.
func (g *Gauge) Inc(ctx context.Context, labelValues ...string) (float64, error) {
	return g.Add(ctx, 1, labelValues...)
}

// Dec decrements the series identified by labelValues by 1.
func (g *Gauge) Dec(ctx context.Context, labelValues ...string) (float64, error) {
	return g.Add(ctx, -1, labelValues...)
}

// Add adds delta (which may be negative) to the series identified by
// labelValues.
func (g *Gauge) Add(ctx context.Context, delta float64, labelValues ...string) (float64, error) {
	return g.storage.Inc(ctx, g.key(labelValues), delta)
}

// SetToCurrentTime sets the series to the current Unix time in seconds,
// the idiom Prometheus client libraries use for "last activity" gauges.
func (g *Gauge) SetToCurrentTime(ctx context.Context, labelValues ...string) (float64, error) {
	return g.Set(ctx, float64(time.Now().Unix()), labelValues...)
}

// Value returns the current value of the series identified by
// labelValues, or 0 if it has never been set.
func (g *Gauge) Value(ctx context.Context, labelValues ...string) (float64, error) {
	return g.storage.Get(ctx, g.key(labelValues))
}

func (g *Gauge) key(labelValues []string) key.Key {
	return key.NewKey(key.TypeGauge, g.desc.Name, "", labelsFromValues(g.desc.LabelNames, labelValues))
}

// TrackInprogress increments g for the duration of fn and decrements it
// again on return, even if fn panics or returns an error — the
// idiomatic way to expose "requests currently being handled" as a
// gauge.
func TrackInprogress(ctx context.Context, g *Gauge, labelValues []string, fn func() error) error {
	if _, err := g.Inc(ctx, labelValues...); err != nil {
		return err
	}
	defer g.Dec(ctx, labelValues...)
	return fn()
}

// TimeToGauge runs fn and records its wall-clock duration, in seconds,
// as g's value for labelValues — useful for a gauge that should reflect
// only the most recent run's duration rather than a cumulative
// histogram.
func TimeToGauge(ctx context.Context, g *Gauge, labelValues []string, fn func() error) error {
	start := time.Now()
	err := fn()
	if _, setErr := g.Set(ctx, time.Since(start).Seconds(), labelValues...); setErr != nil && err == nil {
		return setErr
	}
	return err
}
