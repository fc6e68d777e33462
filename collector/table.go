package collector

import (
	"context"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/metrics"
	"github.com/coldglass/shmprom/registry"
	"github.com/coldglass/shmprom/sharedtable"
	"github.com/coldglass/shmprom/storage"
)

// TableCollector reports a sharedtable.Table's self-instrumentation —
// bytes used, distinct keys, and dropped writes — by reading the pure
// accessor methods spec.md §9 asks for (Table.MemorySize,
// Table.NumKeys, Table.DropCount), without the Table itself holding a
// registry reference.
type TableCollector struct {
	table *sharedtable.Table
}

// NewTableCollector returns a TableCollector for table.
func NewTableCollector(table *sharedtable.Table) *TableCollector {
	return &TableCollector{table: table}
}

// Collect reads table's current bookkeeping counters. It never touches
// the region lock: MemorySize, NumKeys, and DropCount are all cheap,
// lock-free (or index-mutex-only) accessors.
func (c *TableCollector) Collect(ctx context.Context) ([]registry.Family, error) {
	return []registry.Family{
		gaugeFamily("shmprom_table_memory_used_bytes", "Bytes used in the shared region as of the last reconcile.", float64(c.table.MemorySize())),
		gaugeFamily("shmprom_table_keys", "Distinct keys known to this process's local index.", float64(c.table.NumKeys())),
		counterFamily("shmprom_region_drops_total", "Writes dropped due to region exhaustion.", float64(c.table.DropCount())),
	}, nil
}

func counterFamily(name, help string, value float64) registry.Family {
	return registry.Family{
		Desc: metrics.Desc{Name: name, Help: help, Type: "counter"},
		Records: []storage.Record{
			{Key: key.NewKey(key.TypeCounter, name, "", nil), Value: value},
		},
	}
}
