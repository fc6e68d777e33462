package metrics

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/storage"
)

// DefaultBuckets are the cumulative upper bounds used when NewHistogram
// is called with no explicit buckets, carried over unchanged from the
// original implementation's DEFAULT_BUCKETS.
var DefaultBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 7.5, 10.0,
}

// Histogram tracks the distribution of observations into cumulative
// "<=" buckets, plus overall sum and count, per label set. "bucket" and
// "le" are reserved label names (the former is the internal storage
// label spec.md's core uses; exposition.WriteText rewrites it to "le"
// at the text boundary).
type Histogram struct {
	desc    Desc
	bounds  []float64 // ascending, finite upper bounds; +Inf is implicit
	storage storage.Storage
}

// NewHistogram returns a Histogram backed by st. If bounds is nil,
// DefaultBuckets is used.
func NewHistogram(st storage.Storage, name, help string, bounds []float64, labelNames ...string) *Histogram {
	for _, n := range labelNames {
		if n == "bucket" || n == "le" {
			panic(`metrics: "bucket"/"le" are reserved label names for Histogram`)
		}
	}
	if bounds == nil {
		bounds = DefaultBuckets
	}
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	return &Histogram{
		desc:    Desc{Name: name, Help: help, Type: "histogram", LabelNames: labelNames},
		bounds:  sorted,
		storage: st,
	}
}

// Desc returns the histogram's family description.
func (h *Histogram) Desc() Desc { return h.desc }

// Observe records a single observation v: every bucket whose upper
// bound is >= v is incremented, the +Inf bucket is always incremented,
// and sum/count are updated.
func (h *Histogram) Observe(ctx context.Context, v float64, labelValues ...string) error {
	baseLabels := labelsFromValues(h.desc.LabelNames, labelValues)

	for _, bound := range h.bounds {
		if v > bound {
			continue
		}
		if err := h.incBucket(ctx, baseLabels, bound); err != nil {
			return err
		}
	}
	if err := h.incBucket(ctx, baseLabels, math.Inf(1)); err != nil {
		return err
	}

	sumKey := key.NewKey(key.TypeHistogramSum, h.desc.Name, "_sum", baseLabels)
	if _, err := h.storage.Inc(ctx, sumKey, v); err != nil {
		return err
	}
	countKey := key.NewKey(key.TypeHistogramCount, h.desc.Name, "_count", baseLabels)
	if _, err := h.storage.Inc(ctx, countKey, 1); err != nil {
		return err
	}
	return nil
}

func (h *Histogram) incBucket(ctx context.Context, baseLabels []key.Label, bound float64) error {
	labels := append(append([]key.Label(nil), baseLabels...), key.NewLabel("bucket", bucketLabelValue(bound)))
	k := key.NewKey(key.TypeHistogramBucket, h.desc.Name, "_bucket", labels)
	_, err := h.storage.Inc(ctx, k, 1)
	return err
}

func bucketLabelValue(bound float64) string {
	if math.IsInf(bound, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(bound, 'g', -1, 64)
}

// Sum returns the accumulated sum of observations for labelValues.
func (h *Histogram) Sum(ctx context.Context, labelValues ...string) (float64, error) {
	labels := labelsFromValues(h.desc.LabelNames, labelValues)
	return h.storage.Get(ctx, key.NewKey(key.TypeHistogramSum, h.desc.Name, "_sum", labels))
}

// Count returns the number of observations for labelValues.
func (h *Histogram) Count(ctx context.Context, labelValues ...string) (float64, error) {
	labels := labelsFromValues(h.desc.LabelNames, labelValues)
	return h.storage.Get(ctx, key.NewKey(key.TypeHistogramCount, h.desc.Name, "_count", labels))
}

// BucketCount returns the cumulative count for the bucket whose upper
// bound is bound (pass math.Inf(1) for the +Inf bucket).
func (h *Histogram) BucketCount(ctx context.Context, bound float64, labelValues ...string) (float64, error) {
	labels := append(labelsFromValues(h.desc.LabelNames, labelValues), key.NewLabel("bucket", bucketLabelValue(bound)))
	return h.storage.Get(ctx, key.NewKey(key.TypeHistogramBucket, h.desc.Name, "_bucket", labels))
}
