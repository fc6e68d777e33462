package metrics

import (
	"context"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/storage"
)

// Summary tracks the count and sum of observations per label set. It
// does not estimate streaming quantiles — the TypeSummaryQuantile slot
// is reserved in the key type system but intentionally unused; Quantile
// always returns 0, matching the Non-goal carried over from the
// original implementation (a streaming quantile estimator is out of
// scope).
type Summary struct {
	desc    Desc
	storage storage.Storage
}

// NewSummary returns a Summary backed by st. "quantile" is a reserved
// label name and must not appear in labelNames.
func NewSummary(st storage.Storage, name, help string, labelNames ...string) *Summary {
	for _, n := range labelNames {
		if n == "quantile" {
			panic(`metrics: "quantile" is a reserved label name for Summary`)
		}
	}
	return &Summary{
		desc:    Desc{Name: name, Help: help, Type: "summary", LabelNames: labelNames},
		storage: st,
	}
}

// Desc returns the summary's family description.
func (s *Summary) Desc() Desc { return s.desc }

// Observe records a single observation v.
func (s *Summary) Observe(ctx context.Context, v float64, labelValues ...string) error {
	labels := labelsFromValues(s.desc.LabelNames, labelValues)
	sumKey := key.NewKey(key.TypeSummarySum, s.desc.Name, "_sum", labels)
	countKey := key.NewKey(key.TypeSummaryCount, s.desc.Name, "_count", labels)

	if _, err := s.storage.Inc(ctx, sumKey, v); err != nil {
		return err
	}
	if _, err := s.storage.Inc(ctx, countKey, 1); err != nil {
		return err
	}
	return nil
}

// Sum returns the accumulated sum of observations for labelValues.
func (s *Summary) Sum(ctx context.Context, labelValues ...string) (float64, error) {
	labels := labelsFromValues(s.desc.LabelNames, labelValues)
	return s.storage.Get(ctx, key.NewKey(key.TypeSummarySum, s.desc.Name, "_sum", labels))
}

// Count returns the number of observations for labelValues.
func (s *Summary) Count(ctx context.Context, labelValues ...string) (float64, error) {
	labels := labelsFromValues(s.desc.LabelNames, labelValues)
	return s.storage.Get(ctx, key.NewKey(key.TypeSummaryCount, s.desc.Name, "_count", labels))
}

// Quantile is a placeholder: no streaming quantile estimator is
// implemented, so it always returns 0.
func (s *Summary) Quantile(q float64) float64 {
	return 0
}
