package world

import (
	"testing"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

func setMobility(agentID string, tick uint64, mobility float32) ActionEnvelope {
	return ActionEnvelope{
		AgentID: agentID,
		Act: protocol.ActMsg{
			Type:            protocol.TypeAct,
			ProtocolVersion: protocol.Version,
			Tick:            tick,
			AgentID:         agentID,
			Tasks: []protocol.TaskReq{
				{ID: "M1", Type: protocol.TaskSetModifiers, Mobility: &mobility},
			},
		},
	}
}

// An agent whose mobility is forced to zero makes no progress, so
// the recovery ladder walks offset-dest, relocate, abandon and then
// leaves the agent idle.
func TestStallEscalationEndsInAbandon(t *testing.T) {
	w, err := New(testConfig(9))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	id := joinTest(t, w, "ana", "LABORER")
	a := w.agents[id]

	for tick := uint64(0); tick < 150; tick++ {
		var acts []ActionEnvelope
		if tick == 0 {
			acts = append(acts,
				setMobility(id, tick, 0),
				moveTo(id, tick, nav.Vec3{X: 30, Y: 0, Z: 0}),
			)
		}
		w.step(nil, nil, acts)
	}

	counts := w.Stats().EventCounts()
	if counts[protocol.EventStall] != 3 {
		t.Fatalf("stall count = %d, want 3: %v", counts[protocol.EventStall], counts)
	}
	if counts[protocol.EventRecovery] != 2 {
		t.Fatalf("recovery count = %d, want 2: %v", counts[protocol.EventRecovery], counts)
	}
	if counts[protocol.EventAbandon] != 1 {
		t.Fatalf("abandon count = %d, want 1: %v", counts[protocol.EventAbandon], counts)
	}
	if a.HasDest {
		t.Fatalf("agent still has a destination after abandon")
	}
	if a.Stalled {
		t.Fatalf("agent still marked stalled after abandon")
	}
	if a.RecoveryAttempts != 0 {
		t.Fatalf("recovery attempts = %d, want 0 after abandon", a.RecoveryAttempts)
	}
}

// A temporary blockage that clears mid-journey should cost at most one
// recovery and still end in a normal arrival.
func TestStallRecoversWhenMobilityReturns(t *testing.T) {
	w, err := New(testConfig(9))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	id := joinTest(t, w, "ana", "GUARD")
	a := w.agents[id]

	for tick := uint64(0); tick < 200; tick++ {
		var acts []ActionEnvelope
		switch tick {
		case 0:
			acts = append(acts,
				setMobility(id, tick, 0),
				moveTo(id, tick, nav.Vec3{X: 10, Y: 0, Z: 0}),
			)
		case 40:
			// First recovery has fired by now; unfreeze the agent.
			acts = append(acts, setMobility(id, tick, 1))
		}
		w.step(nil, nil, acts)
		if tick > 40 && !a.HasDest {
			break
		}
	}

	counts := w.Stats().EventCounts()
	if counts[protocol.EventAbandon] != 0 {
		t.Fatalf("abandon count = %d, want 0: %v", counts[protocol.EventAbandon], counts)
	}
	if counts[protocol.EventRecovery] != 1 {
		t.Fatalf("recovery count = %d, want 1: %v", counts[protocol.EventRecovery], counts)
	}
	if counts[protocol.EventArrive] != 1 {
		t.Fatalf("arrive count = %d, want 1: %v", counts[protocol.EventArrive], counts)
	}
	if a.HasDest {
		t.Fatalf("journey never completed after mobility returned")
	}
}

func TestStallIgnoresIdleAgents(t *testing.T) {
	w, err := New(testConfig(9))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	id := joinTest(t, w, "ana", "ELDER")
	a := w.agents[id]

	for tick := uint64(0); tick < 80; tick++ {
		w.step(nil, nil, nil)
	}
	if a.Stalled || a.StallTicks != 0 {
		t.Fatalf("idle agent flagged stalled")
	}
	counts := w.Stats().EventCounts()
	if counts[protocol.EventStall] != 0 {
		t.Fatalf("stall events for idle agent: %v", counts)
	}
}
