// Package metrics implements the four Prometheus-compatible aggregator
// types — Counter, Gauge, Summary, Histogram — as thin wrappers over a
// storage.Storage, translating each call into the structured keys the
// storage facade understands.
package metrics

import "github.com/coldglass/shmprom/key"

// Desc describes one metric family: its exposition name, help text, and
// the label names every series of this family carries. registry.Family
// reads Desc to render the "# HELP"/"# TYPE" header lines.
type Desc struct {
	Name       string
	Help       string
	Type       string // "counter", "gauge", "summary", "histogram"
	LabelNames []string
}

func labelsFromValues(names, values []string) []key.Label {
	if len(names) != len(values) {
		panic("metrics: label value count does not match label name count")
	}
	labels := make([]key.Label, len(names))
	for i := range names {
		labels[i] = key.Label{Name: names[i], Value: values[i]}
	}
	return labels
}
