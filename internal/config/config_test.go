package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spin-market/internal/model"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeTemp(t, `
lattice:
  size: 64
  neutral_fraction: 0.2
  placement: clustered
  init_down_fraction: 0.4
model:
  neighbor_coupling: 1.5
  global_coupling: 8.0
  inverse_temperature: 0.7
  field_policy: per_half_sweep
run:
  sweeps: 250
  seed: 99
  crash:
    sweep: 100
    agents: 50
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := cfg.ToParams()
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}
	if p.L != 64 || p.NeutralFraction != 0.2 || p.InitDownFraction != 0.4 {
		t.Fatalf("lattice params mismatch: %+v", p)
	}
	// "clustered" resolves to the top-left corner block.
	if p.Placement != model.PlacementTopLeft {
		t.Fatalf("Placement = %q, want top_left", p.Placement)
	}
	if p.NeighborCoupling != 1.5 || p.GlobalCoupling != 8.0 || p.Beta != 0.7 {
		t.Fatalf("model params mismatch: %+v", p)
	}
	if p.FieldPolicy != model.FieldPerHalfSweep {
		t.Fatalf("FieldPolicy = %q, want per_half_sweep", p.FieldPolicy)
	}
	if p.Sweeps != 250 || p.Seed != 99 {
		t.Fatalf("run params mismatch: %+v", p)
	}
	if p.Crash == nil || p.Crash.Sweep != 100 || p.Crash.Agents != 50 {
		t.Fatalf("crash spec mismatch: %+v", p.Crash)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTemp(t, `
lattice:
  size: 32
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := cfg.ToParams()
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}
	def := model.DefaultParams()
	if p.L != 32 {
		t.Fatalf("L = %d, want 32", p.L)
	}
	if p.NeighborCoupling != def.NeighborCoupling || p.Beta != def.Beta {
		t.Fatalf("coupling defaults not applied: %+v", p)
	}
	if p.InitDownFraction != def.InitDownFraction {
		t.Fatalf("InitDownFraction = %v, want default %v", p.InitDownFraction, def.InitDownFraction)
	}
	if p.FieldPolicy != def.FieldPolicy || p.Placement != def.Placement {
		t.Fatalf("policy defaults not applied: %+v", p)
	}
	if p.Sweeps != def.Sweeps || p.Seed != def.Seed {
		t.Fatalf("run defaults not applied: %+v", p)
	}
	// An unset global coupling stays 0: it is a legitimate value (pure Ising
	// imitation dynamics) and must not be silently replaced.
	if p.GlobalCoupling != 0 {
		t.Fatalf("GlobalCoupling = %v, want 0", p.GlobalCoupling)
	}
}

func TestExplicitZeroInitDownFraction(t *testing.T) {
	path := writeTemp(t, `
lattice:
  size: 16
  init_down_fraction: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := cfg.ToParams()
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}
	if p.InitDownFraction != 0 {
		t.Fatalf("InitDownFraction = %v, want explicit 0", p.InitDownFraction)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"tiny lattice", "lattice:\n  size: 1\n"},
		{"bad neutral fraction", "lattice:\n  neutral_fraction: 1.5\n"},
		{"bad placement", "lattice:\n  placement: ring\n"},
		{"negative sweeps", "run:\n  sweeps: -5\n"},
		{"bad field policy", "model:\n  field_policy: hourly\n"},
	}
	for _, tc := range cases {
		path := writeTemp(t, tc.yaml)
		if _, err := Load(path); !errors.Is(err, model.ErrInvalidConfiguration) {
			t.Fatalf("%s: Load = %v, want ErrInvalidConfiguration", tc.name, err)
		}
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeTemp(t, "lattice: [not a map")
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted malformed YAML")
	}
}
