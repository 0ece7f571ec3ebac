package world

import (
	"math"
	"testing"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

func lastResult(t *testing.T, a *Agent) protocol.Event {
	t.Helper()
	if len(a.Events) == 0 {
		t.Fatalf("no events on agent %s", a.ID)
	}
	return a.Events[len(a.Events)-1]
}

func TestApplyActRejectsStaleTick(t *testing.T) {
	w, err := New(testConfig(1))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	id := joinTest(t, w, "ana", "LABORER")
	a := w.agents[id]

	act := protocol.ActMsg{
		Tick: 5,
		Tasks: []protocol.TaskReq{
			{ID: "K1", Type: protocol.TaskMoveTo, Target: [3]float32{10, 0, 0}},
		},
	}
	w.applyAct(a, act, 10) // outside [8,10]

	if a.HasDest {
		t.Fatalf("stale act still set a destination")
	}
	e := lastResult(t, a)
	if e["ok"] != false || e["code"] != protocol.ErrStale {
		t.Fatalf("stale act result = %v", e)
	}

	// The near edge of the window is still accepted.
	act.Tick = 8
	w.applyAct(a, act, 10)
	if !a.HasDest {
		t.Fatalf("act at now-2 was rejected")
	}
}

func TestApplyMoveToClampsAndSnaps(t *testing.T) {
	cfg := testConfig(1)
	cfg.Layout.Obstacles = []nav.Obstacle{
		{ID: "slab", Min: nav.Vec3{X: 19.5, Y: -0.5, Z: -0.5}, Max: nav.Vec3{X: 20.5, Y: 0.5, Z: 0.5}},
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	id := joinTest(t, w, "ana", "LABORER")
	a := w.agents[id]

	// Far out of bounds clamps to the boundary.
	w.applyTaskReq(a, protocol.TaskReq{ID: "K1", Type: protocol.TaskMoveTo, Target: [3]float32{1e6, 0, 0}}, 0)
	if !a.HasDest {
		t.Fatalf("clamped destination rejected")
	}
	if a.Dest.X != w.bounds.Max.X {
		t.Fatalf("dest.X = %v, want clamp to %v", a.Dest.X, w.bounds.Max.X)
	}

	// NaN components clamp instead of poisoning state.
	nan := float32(math.NaN())
	w.applyTaskReq(a, protocol.TaskReq{ID: "K2", Type: protocol.TaskMoveTo, Target: [3]float32{nan, nan, nan}}, 0)
	if a.Dest.X != a.Dest.X { // NaN check
		t.Fatalf("NaN leaked into destination")
	}

	// A destination inside an obstacle snaps to walkable ground nearby.
	w.applyTaskReq(a, protocol.TaskReq{ID: "K3", Type: protocol.TaskMoveTo, Target: [3]float32{20, 0, 0}}, 0)
	if !a.HasDest {
		t.Fatalf("blocked destination rejected instead of snapped")
	}
	if w.obstacles.Blocked(a.Dest) {
		t.Fatalf("destination still inside obstacle: %v", a.Dest)
	}
	if nav.Dist(a.Dest, nav.Vec3{X: 20, Y: 0, Z: 0}) > 3 {
		t.Fatalf("snap moved destination too far: %v", a.Dest)
	}
}

func TestControlledAgentPermissions(t *testing.T) {
	w, err := New(testConfig(1))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	resp := make(chan JoinResponse, 1)
	w.handleJoin(JoinRequest{Name: "pilot", Role: "GUARD", Controlled: true, Resp: resp})
	ctl := w.agents[(<-resp).Welcome.AgentID]
	npc := w.agents[joinTest(t, w, "ana", "LABORER")]

	// MOVE_TO is for autonomous agents only.
	w.applyTaskReq(ctl, protocol.TaskReq{ID: "K1", Type: protocol.TaskMoveTo, Target: [3]float32{5, 0, 0}}, 0)
	if ctl.HasDest {
		t.Fatalf("controlled agent accepted MOVE_TO")
	}
	if e := lastResult(t, ctl); e["code"] != protocol.ErrNoPermission {
		t.Fatalf("move_to on controlled agent: %v", e)
	}

	// SET_POS is for controlled agents only.
	w.applyTaskReq(npc, protocol.TaskReq{ID: "K2", Type: protocol.TaskSetPos, Target: [3]float32{5, 0, 0}}, 0)
	if e := lastResult(t, npc); e["code"] != protocol.ErrNoPermission {
		t.Fatalf("set_pos on npc: %v", e)
	}

	w.applyTaskReq(ctl, protocol.TaskReq{ID: "K3", Type: protocol.TaskSetPos, Target: [3]float32{5, 0, 0}}, 0)
	if ctl.Pos != (nav.Vec3{X: 5, Y: 0, Z: 0}) {
		t.Fatalf("set_pos did not move controlled agent: %v", ctl.Pos)
	}

	// Controlled agents still appear in the index as separation neighbors.
	w.step(nil, nil, nil)
	found := false
	for _, n := range w.grid.QueryRadius(npc.Pos, 40) {
		if n.ID == ctl.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("controlled agent missing from spatial index")
	}
}

func TestCancelClearsMoveTask(t *testing.T) {
	w, err := New(testConfig(1))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	a := w.agents[joinTest(t, w, "ana", "LABORER")]

	w.applyTaskReq(a, protocol.TaskReq{ID: "K1", Type: protocol.TaskMoveTo, Target: [3]float32{10, 0, 0}}, 0)
	if !a.HasDest || a.MoveTaskID != "K1" {
		t.Fatalf("move task not registered: hasDest=%v id=%q", a.HasDest, a.MoveTaskID)
	}

	w.applyAct(a, protocol.ActMsg{Tick: 0, Cancel: []string{"K1"}}, 0)
	if a.HasDest || a.MoveTaskID != "" {
		t.Fatalf("cancel left task active")
	}

	// Cancelling an unknown task id reports a failure, not a panic.
	w.applyAct(a, protocol.ActMsg{Tick: 0, Cancel: []string{"nope"}}, 0)
	if e := lastResult(t, a); e["ok"] != false || e["code"] != protocol.ErrInvalidTarget {
		t.Fatalf("unknown cancel result: %v", e)
	}
}

func TestSetModifiersSanitizes(t *testing.T) {
	w, err := New(testConfig(1))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	a := w.agents[joinTest(t, w, "ana", "LABORER")]

	mob := float32(-2)
	w.applyTaskReq(a, protocol.TaskReq{ID: "K1", Type: protocol.TaskSetModifiers, Mobility: &mob}, 0)
	if a.Modifiers.Mobility != 0 {
		t.Fatalf("negative mobility = %v, want 0", a.Modifiers.Mobility)
	}

	ter := float32(math.NaN())
	w.applyTaskReq(a, protocol.TaskReq{ID: "K2", Type: protocol.TaskSetModifiers, Terrain: &ter}, 0)
	if a.Modifiers.Terrain != a.Modifiers.Terrain {
		t.Fatalf("NaN terrain leaked")
	}

	// Omitted fields keep their current value.
	mob2 := float32(0.5)
	w.applyTaskReq(a, protocol.TaskReq{ID: "K3", Type: protocol.TaskSetModifiers, Mobility: &mob2}, 0)
	if a.Modifiers.Mobility != 0.5 {
		t.Fatalf("mobility = %v, want 0.5", a.Modifiers.Mobility)
	}
}
