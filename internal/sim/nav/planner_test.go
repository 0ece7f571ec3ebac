package nav

import (
	"math"
	"testing"
)

func testBounds() Bounds {
	return Bounds{Min: Vec3{-64, -16, -64}, Max: Vec3{64, 16, 64}}
}

func TestFindPathStraightLine(t *testing.T) {
	obs := NewObstacleStore()
	start := Vec3{0, 0, 0}
	goal := Vec3{5, 0, 0}

	p, stats := FindPath(start, goal, obs, testBounds(), PlannerConfig{})
	if !p.Valid {
		t.Fatalf("expected valid path, got invalid (expanded=%d)", stats.Expanded)
	}
	if len(p.Waypoints) == 0 {
		t.Fatalf("valid path with no waypoints")
	}
	last := p.Waypoints[len(p.Waypoints)-1]
	if last != goal {
		t.Fatalf("final waypoint %v, want exact goal %v", last, goal)
	}
	// Open terrain, axis-aligned goal: the search should stay on the
	// direct chain and not fan out.
	if stats.Expanded > 10 {
		t.Fatalf("expanded %d nodes for a trivial straight line", stats.Expanded)
	}
	// Waypoints approach the goal monotonically.
	prev := Dist(start, goal)
	for i, wp := range p.Waypoints {
		d := Dist(wp, goal)
		if d > prev+1e-4 {
			t.Fatalf("waypoint %d at %v moves away from goal (%.3f > %.3f)", i, wp, d, prev)
		}
		prev = d
	}
	if p.Cost < 4.9 || p.Cost > 5.1 {
		t.Fatalf("straight-line cost %.3f, want ~5", p.Cost)
	}
}

func TestFindPathDetoursAroundWall(t *testing.T) {
	obs := NewObstacleStore()
	// Thin wall across the direct route at x=2.
	obs.Add(Obstacle{ID: "wall", Min: Vec3{1.5, -0.5, -2.5}, Max: Vec3{2.5, 0.5, 2.5}})

	start := Vec3{0, 0, 0}
	goal := Vec3{5, 0, 0}
	p, _ := FindPath(start, goal, obs, testBounds(), PlannerConfig{})
	if !p.Valid {
		t.Fatalf("expected a detour, got invalid path")
	}
	for i, wp := range p.Waypoints {
		if obs.Blocked(wp) {
			t.Fatalf("waypoint %d at %v is inside the wall", i, wp)
		}
	}
	if p.Cost <= 5 {
		t.Fatalf("detour cost %.3f not longer than the blocked direct route", p.Cost)
	}
	if p.Cost > 9.5 {
		t.Fatalf("detour cost %.3f, want a tight route around the wall", p.Cost)
	}
	if last := p.Waypoints[len(p.Waypoints)-1]; last != goal {
		t.Fatalf("final waypoint %v, want %v", last, goal)
	}
}

func TestFindPathEnclosedGoalExhaustsBudget(t *testing.T) {
	obs := NewObstacleStore()
	// Goal buried deep inside a solid block: no lattice point near it is
	// reachable, so the search must burn its budget and give up cleanly.
	obs.Add(Obstacle{ID: "block", Min: Vec3{3.5, -1.5, -1.5}, Max: Vec3{6.5, 1.5, 1.5}})

	cfg := PlannerConfig{NodeBudget: 200}
	p, stats := FindPath(Vec3{0, 0, 0}, Vec3{5, 0, 0}, obs, testBounds(), cfg)
	if p.Valid {
		t.Fatalf("expected invalid path for enclosed goal")
	}
	if len(p.Waypoints) != 0 {
		t.Fatalf("invalid path carries %d waypoints", len(p.Waypoints))
	}
	if stats.Expanded != cfg.NodeBudget {
		t.Fatalf("expanded %d, want the full budget %d", stats.Expanded, cfg.NodeBudget)
	}
}

func TestFindPathStartWithinTolerance(t *testing.T) {
	obs := NewObstacleStore()
	start := Vec3{10, 0, 10}
	goal := Vec3{10.3, 0, 10}
	p, stats := FindPath(start, goal, obs, testBounds(), PlannerConfig{})
	if !p.Valid {
		t.Fatalf("expected trivial path")
	}
	if stats.Expanded != 0 {
		t.Fatalf("expanded %d nodes when already at the goal", stats.Expanded)
	}
	if len(p.Waypoints) != 1 || p.Waypoints[0] != goal {
		t.Fatalf("want single exact-goal waypoint, got %v", p.Waypoints)
	}
}

func TestFindPathDeterministic(t *testing.T) {
	obs := NewObstacleStore()
	obs.Add(Obstacle{ID: "a", Min: Vec3{2.5, -0.5, -3.5}, Max: Vec3{3.5, 0.5, 1.5}})
	obs.Add(Obstacle{ID: "b", Min: Vec3{5.5, -0.5, -1.5}, Max: Vec3{6.5, 0.5, 4.5}})

	start := Vec3{0, 0, 0}
	goal := Vec3{9, 0, 1}
	first, fs := FindPath(start, goal, obs, testBounds(), PlannerConfig{})
	for i := 0; i < 5; i++ {
		p, s := FindPath(start, goal, obs, testBounds(), PlannerConfig{})
		if s.Expanded != fs.Expanded {
			t.Fatalf("run %d expanded %d, first run %d", i, s.Expanded, fs.Expanded)
		}
		if len(p.Waypoints) != len(first.Waypoints) {
			t.Fatalf("run %d waypoint count %d, first run %d", i, len(p.Waypoints), len(first.Waypoints))
		}
		for j := range p.Waypoints {
			if p.Waypoints[j] != first.Waypoints[j] {
				t.Fatalf("run %d waypoint %d differs: %v vs %v", i, j, p.Waypoints[j], first.Waypoints[j])
			}
		}
	}
}

func TestFindPathRespectsBounds(t *testing.T) {
	obs := NewObstacleStore()
	b := Bounds{Min: Vec3{-2, -2, -2}, Max: Vec3{8, 2, 2}}
	p, _ := FindPath(Vec3{0, 0, 0}, Vec3{6, 0, 0}, obs, b, PlannerConfig{})
	if !p.Valid {
		t.Fatalf("expected valid in-bounds path")
	}
	for i, wp := range p.Waypoints {
		if !b.Contains(wp) {
			t.Fatalf("waypoint %d at %v escapes bounds", i, wp)
		}
	}
}

func TestFindPathVerticalCost(t *testing.T) {
	obs := NewObstacleStore()
	// 2 units straight up: two vertical edges at the configured weight.
	p, _ := FindPath(Vec3{0, 0, 0}, Vec3{0, 2, 0}, obs, testBounds(), PlannerConfig{VerticalCost: 1.5})
	if !p.Valid {
		t.Fatalf("expected valid vertical path")
	}
	if math.Abs(float64(p.Cost)-3.0) > 0.05 {
		t.Fatalf("vertical cost %.3f, want 2 edges at 1.5", p.Cost)
	}
}
