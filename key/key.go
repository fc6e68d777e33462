// Package key defines the structured metric key shape and its
// deterministic, injective byte encoding — the only thing the shared
// counter table ever stores.
package key

import (
	"fmt"
	"sort"
	"strconv"
)

// Type tags a key with the metric-family kind it belongs to. The values
// are reserved and stable across the wire format: a decoder on one
// process must agree with an encoder on another.
type Type uint8

const (
	TypeBase            Type = 1
	TypeGauge           Type = 2
	TypeCounter         Type = 3
	TypeSummary         Type = 4
	TypeSummarySum      Type = 5
	TypeSummaryCount    Type = 7
	TypeSummaryQuantile Type = 8
	TypeHistogram       Type = 10
	TypeHistogramSum    Type = 11
	TypeHistogramCount  Type = 12
	TypeHistogramBucket Type = 13
)

// Label is a single (name, value) pair. Scalar label values (bucket
// thresholds, quantile targets) are formatted to string at construction
// time via NewLabel, so Key stays comparable without reflection.
type Label struct {
	Name  string
	Value string
}

// Key is the structured, language-native form of the metric key spec.md
// describes as a tuple of (type_tag, name, postfix, labels). Labels are
// kept sorted by Name, with a "bucket" label — if present — always
// first; see NewKey.
type Key struct {
	Type    Type
	Name    string
	Postfix string
	Labels  []Label
}

// NewKey builds a Key with labels sorted by Name, bucket label first.
// The bucket label is skipped for series-grouping purposes downstream
// (see storage.GroupByName) but is always kept in the encoded key so
// each bucket is a distinct record.
func NewKey(typ Type, name, postfix string, labels []Label) Key {
	sorted := make([]Label, len(labels))
	copy(sorted, labels)
	sort.SliceStable(sorted, func(i, j int) bool {
		bi, bj := sorted[i].Name == "bucket", sorted[j].Name == "bucket"
		if bi != bj {
			return bi
		}
		return sorted[i].Name < sorted[j].Name
	})
	return Key{Type: typ, Name: name, Postfix: postfix, Labels: sorted}
}

// NewLabel formats value to its canonical string form. Accepted scalar
// kinds mirror what a metric call site would realistically pass: label
// strings, and numeric bucket/quantile thresholds.
func NewLabel(name string, value any) Label {
	return Label{Name: name, Value: formatScalar(value)}
}

// LabelsFromPairs builds a label slice from alternating name/value
// strings, the same ergonomic shape as a prometheus client's
// variadic-string label list.
func LabelsFromPairs(pairs ...string) []Label {
	if len(pairs)%2 != 0 {
		panic("key: LabelsFromPairs requires an even number of arguments")
	}
	labels := make([]Label, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		labels = append(labels, Label{Name: pairs[i], Value: pairs[i+1]})
	}
	return labels
}

func formatScalar(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal reports whether k and other encode to the same byte string,
// without actually encoding either. Used by Codec to verify a hash hit
// before trusting a cached encoding.
func (k Key) Equal(other Key) bool {
	if k.Type != other.Type || k.Name != other.Name || k.Postfix != other.Postfix {
		return false
	}
	if len(k.Labels) != len(other.Labels) {
		return false
	}
	for i := range k.Labels {
		if k.Labels[i] != other.Labels[i] {
			return false
		}
	}
	return true
}

// LabelsWithoutBucket returns k.Labels with any "bucket" label removed,
// preserving order of the rest.
func (k Key) LabelsWithoutBucket() []Label {
	out := make([]Label, 0, len(k.Labels))
	for _, l := range k.Labels {
		if l.Name == "bucket" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// BucketThreshold returns the numeric value of the "bucket" label, if
// present.
func (k Key) BucketThreshold() (float64, bool) {
	for _, l := range k.Labels {
		if l.Name == "bucket" {
			v, err := strconv.ParseFloat(l.Value, 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}
