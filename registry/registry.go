// Package registry collects metric families into snapshots that
// exposition.WriteText can render. It generalizes the teacher's
// observability.Registry (which held concrete Counter/Gauge/Histogram
// values directly) into a Collector-based design matching
// pyprometheus.registry.BaseRegistry, so self-instrumentation
// collectors (collector.ProcessCollector, collector.TableCollector)
// can be registered alongside ordinary metrics.Counter/Gauge/Histogram
// families without the registry needing to know their concrete types.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/coldglass/shmprom/metrics"
	"github.com/coldglass/shmprom/storage"
)

// Family is one metric family's description plus its current records,
// the unit Registry.Collect assembles and exposition.WriteText renders.
type Family struct {
	Desc    metrics.Desc
	Records []storage.Record
}

// Collector is anything that can report its current metric families
// into a registry snapshot. metrics.Counter/Gauge/Summary/Histogram do
// not implement it directly — they're registered via RegisterStorage,
// which reads every family out of the one storage.Storage they share —
// but collector.ProcessCollector and collector.TableCollector, which
// have no backing Storage, implement it directly.
type Collector interface {
	Collect(ctx context.Context) ([]Family, error)
}

// Registry is the root collection point. Unlike pyprometheus's
// BaseRegistry (one dict-backed storage shared by every collector),
// shmprom's Registry holds one set of registered descs, the list of
// storages it was told to expose, plus any number of directly-registered
// Collectors, because shmprom supports several concrete storages
// (Local, Shared, Flush) coexisting in one process.
type Registry struct {
	descs      map[string]metrics.Desc
	storages   []storage.Storage
	collectors []Collector
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{descs: make(map[string]metrics.Desc)}
}

// describer is implemented by every metrics aggregator type.
type describer interface {
	Desc() metrics.Desc
}

// Register records m's family description so Collect can label the
// records it later reads out of the storage m writes to. It does not
// itself read m's value class
func (r *Registry) Register(m describer) error {
	d := m.Desc()
	if _, exists := r.descs[d.Name]; exists {
		return fmt.Errorf("registry: metric %q already registered", d.Name)
	}
	r.descs[d.Name] = d
	return nil
}

// RegisterStorage adds st as a source of records for Collect. Every
// Family whose Desc was Register()-ed is populated by filtering st's
// Iterate() output by name; st must be iterated exactly once per
// Collect even if multiple families draw from it.
func (r *Registry) RegisterStorage(st storage.Storage) {
	r.storages = append(r.storages, st)
}

// RegisterCollector adds an externally-sourced Collector (e.g.
// collector.ProcessCollector) whose families are appended verbatim to
// every Collect snapshot.
func (r *Registry) RegisterCollector(c Collector) {
	r.collectors = append(r.collectors, c)
}

// Collect builds one snapshot: every registered storage is iterated
// once, its records are bucketed by metric name and matched to a
// registered Desc, and every directly-registered Collector's families
// are appended. The Desc-backed families come first, sorted by name;
// collector families follow in registration order.
func (r *Registry) Collect(ctx context.Context) ([]Family, error) {
	byName := make(map[string][]storage.Record)

	for _, st := range r.storages {
		records, err := st.Iterate(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			byName[rec.Key.Name] = append(byName[rec.Key.Name], rec)
		}
	}

	names := make([]string, 0, len(r.descs))
	for name := range r.descs {
		names = append(names, name)
	}
	sort.Strings(names)

	families := make([]Family, 0, len(names)+len(r.collectors))
	for _, name := range names {
		families = append(families, Family{Desc: r.descs[name], Records: byName[name]})
	}

	for _, c := range r.collectors {
		extra, err := c.Collect(ctx)
		if err != nil {
			return nil, err
		}
		families = append(families, extra...)
	}

	return families, nil
}
