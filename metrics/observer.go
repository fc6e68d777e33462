package metrics

import (
	"context"
	"time"
)

// Observer is satisfied by any metric type that records individual
// observations of a value distribution — Summary and Histogram.
type Observer interface {
	Observe(ctx context.Context, v float64, labelValues ...string) error
}

// Timer measures the duration between its creation and a call to
// ObserveDuration, then feeds the elapsed seconds to an Observer — the
// same role client_golang's prometheus.Timer plays, generalized to
// shmprom's structured-key Observer interface.
type Timer struct {
	observer    Observer
	labelValues []string
	start       time.Time
}

// NewTimer starts a timer that will report to obs when ObserveDuration
// is called.
func NewTimer(obs Observer, labelValues ...string) *Timer {
	return &Timer{observer: obs, labelValues: labelValues, start: time.Now()}
}

// ObserveDuration records the elapsed time since NewTimer, in seconds,
// and returns it.
func (t *Timer) ObserveDuration(ctx context.Context) (float64, error) {
	elapsed := time.Since(t.start).Seconds()
	if err := t.observer.Observe(ctx, elapsed, t.labelValues...); err != nil {
		return elapsed, err
	}
	return elapsed, nil
}
