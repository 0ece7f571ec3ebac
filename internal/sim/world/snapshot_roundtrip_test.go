package world

import (
	"testing"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

// A world restored from a snapshot must continue producing the exact
// digest stream of the world it was taken from.
func TestSnapshotRoundtripPreservesDigests(t *testing.T) {
	w1, err := New(testConfig(42))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	a := joinTest(t, w1, "ana", "LABORER")
	b := joinTest(t, w1, "bo", "MERCHANT")

	for tick := uint64(0); tick < 40; tick++ {
		var acts []ActionEnvelope
		if tick == 0 {
			acts = append(acts,
				moveTo(a, tick, nav.Vec3{X: 25, Y: 0, Z: 10}),
				moveTo(b, tick, nav.Vec3{X: -25, Y: 0, Z: -10}),
			)
		}
		w1.step(nil, nil, acts)
	}

	// Export at the point the in-step snapshot hook would: the state
	// after the last completed tick.
	snap := w1.ExportSnapshot(w1.tick.Load() - 1)

	w2, err := ImportSnapshot(testConfig(0), snap)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if w2.CurrentTick() != w1.CurrentTick() {
		t.Fatalf("restored tick %d, want %d", w2.CurrentTick(), w1.CurrentTick())
	}
	if w2.AgentCount() != 2 {
		t.Fatalf("restored %d agents, want 2", w2.AgentCount())
	}

	for i := 0; i < 30; i++ {
		_, d1 := w1.StepOnce(nil, nil, nil)
		_, d2 := w2.StepOnce(nil, nil, nil)
		if d1 != d2 {
			t.Fatalf("digest diverged %d ticks after restore: %s vs %s", i, d1, d2)
		}
	}
}

// Stall history survives a restore: an agent frozen mid-window must
// stall at the same tick in both worlds.
func TestSnapshotRoundtripPreservesStallWindow(t *testing.T) {
	w1, err := New(testConfig(7))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	id := joinTest(t, w1, "ana", "LABORER")

	for tick := uint64(0); tick < 15; tick++ {
		var acts []ActionEnvelope
		if tick == 0 {
			acts = append(acts,
				setMobility(id, tick, 0),
				moveTo(id, tick, nav.Vec3{X: 30, Y: 0, Z: 0}),
			)
		}
		w1.step(nil, nil, acts)
	}

	snap := w1.ExportSnapshot(w1.tick.Load() - 1)
	w2, err := ImportSnapshot(testConfig(0), snap)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	for i := 0; i < 40; i++ {
		_, d1 := w1.StepOnce(nil, nil, nil)
		_, d2 := w2.StepOnce(nil, nil, nil)
		if d1 != d2 {
			t.Fatalf("digest diverged at step %d across the stall window", i)
		}
	}
	if !w2.agents[id].Stalled && w2.agents[id].RecoveryAttempts == 0 {
		t.Fatalf("restored agent never hit the stall path")
	}
}

func TestSnapshotCountersSurvive(t *testing.T) {
	w1, err := New(testConfig(1))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	joinTest(t, w1, "ana", "LABORER")
	joinTest(t, w1, "bo", "GUARD")
	w1.newTaskID()
	w1.step(nil, nil, nil)

	snap := w1.ExportSnapshot(w1.tick.Load() - 1)
	w2, err := ImportSnapshot(testConfig(0), snap)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	// New ids must not collide with pre-snapshot ones.
	resp := make(chan JoinResponse, 1)
	w2.handleJoin(JoinRequest{Name: "cy", Role: "CHILD", Resp: resp})
	if got := (<-resp).Welcome.AgentID; got != "A3" {
		t.Fatalf("post-restore agent id = %q, want A3", got)
	}
	if got := w2.newTaskID(); got != "T000002" {
		t.Fatalf("post-restore task id = %q, want T000002", got)
	}
}

func TestSnapshotExcludesResumeTokens(t *testing.T) {
	w, err := New(testConfig(1))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	id := joinTest(t, w, "ana", "LABORER")
	w.step(nil, nil, nil)

	snap := w.ExportSnapshot(0)
	w2, err := ImportSnapshot(testConfig(0), snap)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if tok := w2.agents[id].ResumeToken; tok != "" {
		t.Fatalf("resume token %q survived the snapshot", tok)
	}
}
