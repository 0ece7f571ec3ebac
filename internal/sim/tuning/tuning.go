package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int     `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int     `yaml:"snapshot_every_ticks"`
	ObsRadius          float32 `yaml:"obs_radius"`

	Grid       GridTuning       `yaml:"grid"`
	Planner    PlannerTuning    `yaml:"planner"`
	Movement   MovementTuning   `yaml:"movement"`
	Recalc     RecalcTuning     `yaml:"recalc"`
	Stall      StallTuning      `yaml:"stall"`
	Separation SeparationTuning `yaml:"separation"`
}

type GridTuning struct {
	CellSize float32 `yaml:"cell_size"`
}

type PlannerTuning struct {
	NodeBudget    int     `yaml:"node_budget"`
	GoalTolerance float32 `yaml:"goal_tolerance"`
	VerticalCost  float32 `yaml:"vertical_cost"`
}

type MovementTuning struct {
	ArrivalTolerance float32 `yaml:"arrival_tolerance"`
	PathWeight       float32 `yaml:"path_weight"`
	SepWeight        float32 `yaml:"sep_weight"`
}

type RecalcTuning struct {
	IntervalTicks uint64  `yaml:"interval_ticks"`
	DestDriftDist float32 `yaml:"dest_drift_dist"`
}

type StallTuning struct {
	MinProgress    float32 `yaml:"min_progress"`
	OffsetMax      float32 `yaml:"offset_max"`
	RelocateRadius float32 `yaml:"relocate_radius"`
	MaxAttempts    int     `yaml:"max_attempts"`
}

type SeparationTuning struct {
	Radius   float32 `yaml:"radius"`
	MinDist  float32 `yaml:"min_dist"`
	Strength float32 `yaml:"strength"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	return t, nil
}

// Defaults returns a Tuning with every field at its built-in value,
// for tests and for running without a config file.
func Defaults() Tuning {
	var t Tuning
	t.ProtocolVersion = "nav-1"
	t.ApplyDefaults()
	return t
}

func (t *Tuning) ApplyDefaults() {
	if t.TickRateHz <= 0 {
		t.TickRateHz = 5
	}
	if t.SnapshotEveryTicks <= 0 {
		t.SnapshotEveryTicks = 3000
	}
	if t.ObsRadius <= 0 {
		t.ObsRadius = 20
	}
	if t.Grid.CellSize <= 0 {
		t.Grid.CellSize = 10
	}
	if t.Planner.NodeBudget <= 0 {
		t.Planner.NodeBudget = 500
	}
	if t.Planner.GoalTolerance <= 0 {
		t.Planner.GoalTolerance = 0.5
	}
	if t.Planner.VerticalCost < 1 {
		t.Planner.VerticalCost = 1.5
	}
	if t.Movement.ArrivalTolerance <= 0 {
		t.Movement.ArrivalTolerance = 1.0
	}
	if t.Movement.PathWeight <= 0 {
		t.Movement.PathWeight = 0.7
	}
	if t.Movement.SepWeight <= 0 {
		t.Movement.SepWeight = 0.3
	}
	if t.Recalc.IntervalTicks == 0 {
		t.Recalc.IntervalTicks = 5
	}
	if t.Recalc.DestDriftDist <= 0 {
		t.Recalc.DestDriftDist = 10
	}
	if t.Stall.MinProgress <= 0 {
		t.Stall.MinProgress = 3.0
	}
	if t.Stall.OffsetMax <= 0 {
		t.Stall.OffsetMax = 6.0
	}
	if t.Stall.RelocateRadius <= 0 {
		t.Stall.RelocateRadius = 8.0
	}
	if t.Stall.MaxAttempts <= 0 {
		t.Stall.MaxAttempts = 3
	}
	if t.Separation.Radius <= 0 {
		t.Separation.Radius = 2.0
	}
	if t.Separation.MinDist <= 0 {
		t.Separation.MinDist = 0.25
	}
	if t.Separation.Strength <= 0 {
		t.Separation.Strength = 0.3
	}
}
