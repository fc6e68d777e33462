package registry

import (
	"context"
	"testing"

	"github.com/coldglass/shmprom/metrics"
	"github.com/coldglass/shmprom/storage"
)

func TestRegistry_CollectGroupsByRegisteredName(t *testing.T) {
	st := storage.NewLocal()
	reg := NewRegistry()
	reg.RegisterStorage(st)

	c := metrics.NewCounter(st, "requests_total", "total requests", "method")
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctx := context.Background()
	if _, err := c.Inc(ctx, "GET"); err != nil {
		t.Fatalf("Inc: %v", err)
	}
	if _, err := c.Inc(ctx, "POST"); err != nil {
		t.Fatalf("Inc: %v", err)
	}

	families, err := reg.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(families) != 1 {
		t.Fatalf("expected 1 family, got %d", len(families))
	}
	if families[0].Desc.Name != "requests_total" {
		t.Fatalf("unexpected family name %q", families[0].Desc.Name)
	}
	if len(families[0].Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(families[0].Records))
	}
}

func TestRegistry_DuplicateRegisterFails(t *testing.T) {
	st := storage.NewLocal()
	reg := NewRegistry()
	c1 := metrics.NewCounter(st, "dup_total", "dup")
	c2 := metrics.NewCounter(st, "dup_total", "dup again")

	if err := reg.Register(c1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(c2); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

type fakeCollector struct {
	families []Family
}

func (f fakeCollector) Collect(ctx context.Context) ([]Family, error) {
	return f.families, nil
}

func TestRegistry_RegisterCollectorAppendsFamilies(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCollector(fakeCollector{families: []Family{
		{Desc: metrics.Desc{Name: "process_resident_memory_bytes", Type: "gauge"}},
	}})

	families, err := reg.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(families) != 1 || families[0].Desc.Name != "process_resident_memory_bytes" {
		t.Fatalf("expected the externally-sourced family to be present, got %+v", families)
	}
}
