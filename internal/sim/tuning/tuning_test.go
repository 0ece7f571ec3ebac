package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	doc := `
protocol_version: nav-1
tick_rate_hz: 10
planner:
  node_budget: 800
stall:
  max_attempts: 5
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 10 || got.Planner.NodeBudget != 800 || got.Stall.MaxAttempts != 5 {
		t.Fatalf("explicit values lost: %+v", got)
	}
	// Omitted fields fall back to built-in defaults.
	if got.Planner.GoalTolerance != 0.5 {
		t.Fatalf("goal tolerance default missing: %v", got.Planner.GoalTolerance)
	}
	if got.Separation.Radius != 2.0 || got.Stall.MinProgress != 3.0 {
		t.Fatalf("defaults missing: %+v", got)
	}
	if got.Movement.PathWeight != 0.7 || got.Movement.SepWeight != 0.3 {
		t.Fatalf("blend defaults missing: %+v", got.Movement)
	}
}

func TestDefaultsComplete(t *testing.T) {
	d := Defaults()
	if d.TickRateHz <= 0 || d.Grid.CellSize <= 0 || d.Planner.NodeBudget <= 0 {
		t.Fatalf("defaults incomplete: %+v", d)
	}
	if d.Recalc.IntervalTicks == 0 || d.Stall.MaxAttempts == 0 {
		t.Fatalf("defaults incomplete: %+v", d)
	}
	if d.Planner.VerticalCost < 1 {
		t.Fatalf("vertical cost below 1: %v", d.Planner.VerticalCost)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: [oops"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
