package typeregistry

import (
	"context"
	"testing"
)

func TestRegisterAppliesColumnDefaults(t *testing.T) {
	registry := New()
	if err := registry.Register(Definition{Name: "Computer", Table: "assets_computers"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def, ok := registry.Get("Computer")
	if !ok {
		t.Fatalf("definition not found")
	}
	if def.IDColumn != "id" || def.NameColumn != "name" || def.AssigneeColumn != "users_id" || def.SoftDeleteColumn != "is_deleted" {
		t.Fatalf("unexpected defaults: %+v", def)
	}
}

func TestRegisterRejectsIncompleteDefinitions(t *testing.T) {
	registry := New()
	if err := registry.Register(Definition{Table: "t"}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if err := registry.Register(Definition{Name: "Computer"}); err == nil {
		t.Fatalf("expected error for missing table")
	}
}

func TestEnableDisableMonitoring(t *testing.T) {
	registry := New()
	if err := registry.Register(Definition{Name: "Computer", Table: "t"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if registry.IsMonitored("Computer") {
		t.Fatalf("registering must not enable monitoring")
	}
	if err := registry.Enable("Computer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !registry.IsMonitored("Computer") {
		t.Fatalf("expected Computer to be monitored")
	}
	registry.Disable("Computer")
	if registry.IsMonitored("Computer") {
		t.Fatalf("expected Computer to be unmonitored after disable")
	}

	if err := registry.Enable("Phone"); err == nil {
		t.Fatalf("expected error enabling unregistered type")
	}
}

func TestMonitoredNamesSorted(t *testing.T) {
	registry := New()
	for _, name := range []string{"Monitor", "Computer", "Phone"} {
		if err := registry.Register(Definition{Name: name, Table: "t"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := registry.Enable(name); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	names := registry.MonitoredNames()
	want := []string{"Computer", "Monitor", "Phone"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestResolveInstanceType(t *testing.T) {
	registry := New()
	if err := registry.Register(Definition{Name: "Computer", Table: "t"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Register(Definition{Name: "CustomAsset", Table: "t2", Dynamic: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if name, ok := registry.ResolveInstanceType(ctx, "Computer", 1); !ok || name != "Computer" {
		t.Fatalf("static type must resolve to itself, got %q %v", name, ok)
	}
	if _, ok := registry.ResolveInstanceType(ctx, "Phone", 1); ok {
		t.Fatalf("unknown type must not resolve")
	}
	// Dynamic without a resolver installed fails closed.
	if _, ok := registry.ResolveInstanceType(ctx, "CustomAsset", 1); ok {
		t.Fatalf("dynamic type without resolver must not resolve")
	}

	registry.SetInstanceResolver(func(_ context.Context, _ string, objectID int64) (string, bool) {
		if objectID == 5 {
			return "RackAsset", true
		}
		return "", false
	})
	if name, ok := registry.ResolveInstanceType(ctx, "CustomAsset", 5); !ok || name != "RackAsset" {
		t.Fatalf("expected RackAsset, got %q %v", name, ok)
	}
	if _, ok := registry.ResolveInstanceType(ctx, "CustomAsset", 6); ok {
		t.Fatalf("failed resolution must propagate as not ok")
	}
}
