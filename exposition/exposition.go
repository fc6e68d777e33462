// Package exposition renders a registry snapshot as Prometheus text
// exposition format. This is the one place the "bucket"→"le" label
// rewrite and +Inf/-Inf/NaN numeric rendering happen — the core
// (key, sharedtable, storage) never knows about either, per spec.md §6.
package exposition

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/registry"
	"github.com/coldglass/shmprom/storage"
)

// WriteText renders every family in families to w as Prometheus text
// format (content type "text/plain; version=0.0.4; charset=utf-8"),
// one "# HELP"/"# TYPE" header pair per family followed by its samples,
// sorted the way storage.GroupByName orders histogram buckets.
func WriteText(w io.Writer, families []registry.Family) error {
	for _, f := range families {
		if _, err := fmt.Fprintf(w, "# HELP %s %s\n", f.Desc.Name, f.Desc.Help); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "# TYPE %s %s\n", f.Desc.Name, f.Desc.Type); err != nil {
			return err
		}
		if err := writeFamilySamples(w, f); err != nil {
			return err
		}
	}
	return nil
}

func writeFamilySamples(w io.Writer, f registry.Family) error {
	groups := storage.GroupByName(f.Records)
	for _, g := range groups {
		for _, lg := range g.Groups {
			for _, rec := range lg.Records {
				if err := writeSample(w, rec); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeSample(w io.Writer, rec storage.Record) error {
	line := fmt.Sprintf("%s%s%s %s\n", rec.Key.Name, rec.Key.Postfix, rewriteLabels(rec.Key.Labels), formatValue(rec.Value))
	_, err := io.WriteString(w, line)
	return err
}

// rewriteLabels formats a label set as Prometheus text syntax,
// renaming "bucket" to "le" — the core's internal label for a
// histogram's bucket threshold is "bucket" (see key.NewKey); "le" is
// the name Prometheus's text format requires.
func rewriteLabels(labels []key.Label) string {
	if len(labels) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, l := range labels {
		if i > 0 {
			sb.WriteByte(',')
		}
		name := l.Name
		if name == "bucket" {
			name = "le"
		}
		sb.WriteString(name)
		sb.WriteString(`="`)
		sb.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(l.Value))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

// formatValue renders a float64 in Prometheus-compatible form,
// including the +Inf/-Inf/NaN special-case spellings spec.md §6 calls
// out.
func formatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
