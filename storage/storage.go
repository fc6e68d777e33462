// Package storage implements the Storage Facade every metric aggregator
// writes through: an in-process local map, a shared-table-backed
// adapter, and a flush-style hybrid composing the two. All three
// satisfy the same Storage interface.
package storage

import (
	"context"
	"sort"

	"github.com/coldglass/shmprom/key"
)

// Storage is the contract every concrete storage satisfies, used by
// metric aggregators in package metrics.
type Storage interface {
	Inc(ctx context.Context, k key.Key, delta float64) (float64, error)
	Set(ctx context.Context, k key.Key, v float64) (float64, error)
	Get(ctx context.Context, k key.Key) (float64, error)
	Iterate(ctx context.Context) ([]Record, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Record is one decoded (key, value) pair, the common currency between
// a Storage and exposition.WriteText.
type Record struct {
	Key   key.Key
	Value float64
}

// LabelGroup is every record sharing one label set (after stripping the
// "bucket" label) within a metric name.
type LabelGroup struct {
	Labels  []key.Label
	Records []Record
}

// NameGroup is every record sharing one metric name, broken down into
// LabelGroups.
type NameGroup struct {
	Name   string
	Groups []LabelGroup
}

// GroupByName implements items_grouped_by_name: records are grouped by
// name, then by their label set with the "bucket" label stripped (so
// every threshold of one histogram series lands in the same group),
// and within a group, records are ordered by bucket threshold when
// present, else by full label string, then by key type.
func GroupByName(records []Record) []NameGroup {
	byName := make(map[string][]Record)
	var names []string
	for _, r := range records {
		if _, ok := byName[r.Key.Name]; !ok {
			names = append(names, r.Key.Name)
		}
		byName[r.Key.Name] = append(byName[r.Key.Name], r)
	}
	sort.Strings(names)

	result := make([]NameGroup, 0, len(names))
	for _, name := range names {
		result = append(result, NameGroup{Name: name, Groups: groupByLabels(byName[name])})
	}
	return result
}

func groupByLabels(records []Record) []LabelGroup {
	type bucketed struct {
		key     string
		labels  []key.Label
		records []Record
	}
	byLabels := make(map[string]*bucketed)
	var order []string

	for _, r := range records {
		labels := r.Key.LabelsWithoutBucket()
		lk := labelsKey(labels)
		b, ok := byLabels[lk]
		if !ok {
			b = &bucketed{key: lk, labels: labels}
			byLabels[lk] = b
			order = append(order, lk)
		}
		b.records = append(b.records, r)
	}
	sort.Strings(order)

	groups := make([]LabelGroup, 0, len(order))
	for _, lk := range order {
		b := byLabels[lk]
		sort.SliceStable(b.records, func(i, j int) bool {
			ti, iHasBucket := b.records[i].Key.BucketThreshold()
			tj, jHasBucket := b.records[j].Key.BucketThreshold()
			if iHasBucket && jHasBucket {
				return ti < tj
			}
			li, lj := labelsKey(b.records[i].Key.Labels), labelsKey(b.records[j].Key.Labels)
			if li != lj {
				return li < lj
			}
			return b.records[i].Key.Type < b.records[j].Key.Type
		})
		groups = append(groups, LabelGroup{Labels: b.labels, Records: b.records})
	}
	return groups
}

func labelsKey(labels []key.Label) string {
	s := ""
	for _, l := range labels {
		s += l.Name + "=" + l.Value + ";"
	}
	return s
}
