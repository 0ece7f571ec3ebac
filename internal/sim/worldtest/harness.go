package worldtest

import (
	"encoding/json"
	"testing"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/persistence/snapshot"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/layout"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/tuning"
	world "github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Join() issues JoinRequest via StepOnce()
// - Step()/StepFor() issues ACT via StepOnce()
// - Per-agent Out channels carry OBS JSON
//
// It intentionally avoids touching world internals so tests can live
// outside the world package.
type Harness struct {
	T *testing.T
	W *world.World

	DefaultAgentID string

	sessions map[string]*session
}

type session struct {
	AgentID string
	Out     chan []byte
	lastObs protocol.ObsMsg
}

func DefaultConfig(seed int64) world.WorldConfig {
	return world.WorldConfig{
		ID:     "test",
		Seed:   seed,
		Tuning: tuning.Defaults(),
		Layout: layout.Layout{
			Name:   "testfield",
			Bounds: nav.Bounds{Min: nav.Vec3{X: -64, Y: -16, Z: -64}, Max: nav.Vec3{X: 64, Y: 16, Z: 64}},
			Spawns: []layout.Spawn{{Name: "plaza", Pos: nav.Vec3{}}},
		},
	}
}

func NewHarness(t *testing.T, cfg world.WorldConfig, agentName, role string) *Harness {
	t.Helper()

	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w, agentName, role)
}

// NewHarnessWithWorld is like NewHarness, but uses an already-constructed
// world instance. Useful for snapshot round-trip tests where the snapshot
// is imported before join.
func NewHarnessWithWorld(t *testing.T, w *world.World, agentName, role string) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}

	h := &Harness{
		T:        t,
		W:        w,
		sessions: map[string]*session{},
	}
	h.DefaultAgentID = h.Join(agentName, role)
	return h
}

func (h *Harness) Join(agentName, role string) string {
	h.T.Helper()

	out := make(chan []byte, 16)
	resp := make(chan world.JoinResponse, 1)
	_, _ = h.W.StepOnce([]world.JoinRequest{{
		Name: agentName,
		Role: role,
		Out:  out,
		Resp: resp,
	}}, nil, nil)
	jr := <-resp
	if jr.Welcome.AgentID == "" {
		h.T.Fatalf("join returned empty agent id")
	}
	s := &session{AgentID: jr.Welcome.AgentID, Out: out}
	h.sessions[s.AgentID] = s
	h.drainAllObs()
	return s.AgentID
}

func (h *Harness) LastObs() protocol.ObsMsg {
	return h.LastObsFor(h.DefaultAgentID)
}

func (h *Harness) LastObsFor(agentID string) protocol.ObsMsg {
	h.T.Helper()
	s := h.sessions[agentID]
	if s == nil {
		h.T.Fatalf("unknown agent id: %q", agentID)
	}
	return s.lastObs
}

func (h *Harness) Step(tasks []protocol.TaskReq, cancel []string) protocol.ObsMsg {
	return h.StepFor(h.DefaultAgentID, tasks, cancel)
}

func (h *Harness) StepFor(agentID string, tasks []protocol.TaskReq, cancel []string) protocol.ObsMsg {
	h.T.Helper()
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            h.W.CurrentTick(),
		AgentID:         agentID,
		Tasks:           tasks,
		Cancel:          cancel,
	}
	_, _ = h.W.StepOnce(nil, nil, []world.ActionEnvelope{{
		AgentID: agentID,
		Act:     act,
	}})
	h.drainAllObs()
	return h.LastObsFor(agentID)
}

func (h *Harness) StepNoop() protocol.ObsMsg {
	h.T.Helper()
	_, _ = h.W.StepOnce(nil, nil, nil)
	h.drainAllObs()
	return h.LastObs()
}

// StepUntil runs noop ticks until pred(lastObs) or the budget runs out.
func (h *Harness) StepUntil(maxTicks int, pred func(protocol.ObsMsg) bool) bool {
	h.T.Helper()
	for i := 0; i < maxTicks; i++ {
		if pred(h.StepNoop()) {
			return true
		}
	}
	return false
}

func (h *Harness) Snapshot() (tick uint64, snap snapshot.SnapshotV1) {
	h.T.Helper()
	// Keep tick stable: export at currentTick-1 then import restores to currentTick.
	cur := h.W.CurrentTick()
	if cur == 0 {
		return 0, h.W.ExportSnapshot(0)
	}
	tick = cur - 1
	return tick, h.W.ExportSnapshot(tick)
}

func (h *Harness) SetAgentPos(pos nav.Vec3) {
	h.SetAgentPosFor(h.DefaultAgentID, pos)
}

func (h *Harness) SetAgentPosFor(agentID string, pos nav.Vec3) {
	h.T.Helper()
	if ok := h.W.DebugSetAgentPos(agentID, pos); !ok {
		h.T.Fatalf("DebugSetAgentPos returned false")
	}
}

func (h *Harness) drainAllObs() {
	h.T.Helper()
	for _, s := range h.sessions {
		h.drainOneObs(s)
	}
}

func (h *Harness) drainOneObs(s *session) {
	h.T.Helper()
	var last []byte
	for {
		select {
		case b := <-s.Out:
			last = b
			continue
		default:
		}
		break
	}
	if len(last) == 0 {
		return
	}
	var obs protocol.ObsMsg
	if err := json.Unmarshal(last, &obs); err != nil {
		h.T.Fatalf("unmarshal OBS: %v", err)
	}
	s.lastObs = obs
}
