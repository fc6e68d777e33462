// Package collector implements external, self-instrumentation metric
// sources registered directly with registry.Registry via
// RegisterCollector: ProcessCollector reports host-process resource
// usage, TableCollector reports a sharedtable.Table's own bookkeeping.
// Neither goes through a storage.Storage — their samples are produced
// fresh on every Collect call rather than stored.
package collector

import (
	"context"
	"os"

	"github.com/coldglass/shmprom/key"
	"github.com/coldglass/shmprom/metrics"
	"github.com/coldglass/shmprom/registry"
	"github.com/coldglass/shmprom/storage"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessCollector reports the current process's resident memory,
// virtual memory, and CPU usage — the Go-native analogue of
// pyprometheus.contrib.uwsgi_features.UWSGICollector's uwsgi.mem()
// reads, minus the pre-forking worker-table fields that have no
// equivalent outside a uwsgi master process.
type ProcessCollector struct {
	proc *process.Process
}

// NewProcessCollector returns a ProcessCollector for the calling
// process.
func NewProcessCollector() (*ProcessCollector, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &ProcessCollector{proc: p}, nil
}

// Collect samples the process's current memory and CPU usage.
func (c *ProcessCollector) Collect(ctx context.Context) ([]registry.Family, error) {
	mem, err := c.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return nil, err
	}
	cpuPercent, err := c.proc.CPUPercentWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return []registry.Family{
		gaugeFamily("shmprom_process_resident_memory_bytes", "Resident memory size in bytes.", float64(mem.RSS)),
		gaugeFamily("shmprom_process_virtual_memory_bytes", "Virtual memory size in bytes.", float64(mem.VMS)),
		gaugeFamily("shmprom_process_cpu_percent", "CPU usage percentage since the process started.", cpuPercent),
	}, nil
}

func gaugeFamily(name, help string, value float64) registry.Family {
	return registry.Family{
		Desc: metrics.Desc{Name: name, Help: help, Type: "gauge"},
		Records: []storage.Record{
			{Key: key.NewKey(key.TypeGauge, name, "", nil), Value: value},
		},
	}
}
