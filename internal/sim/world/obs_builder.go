package world

import (
	"math"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

// buildObs assembles the per-agent observation for this tick: own
// navigation state, nearby agents from the spatial index, queued events,
// and the active movement task.
func (w *World) buildObs(a *Agent, events []protocol.Event, nowTick uint64) protocol.ObsMsg {
	self := protocol.SelfObs{
		Pos:        a.Pos.ToArray(),
		Role:       a.Role.String(),
		Activity:   a.Activity(),
		Speed:      a.EffectiveSpeed(),
		StallTicks: a.StallTicks,
		Attempts:   a.RecoveryAttempts,
	}
	if a.HasDest {
		dest := a.Dest.ToArray()
		self.Dest = &dest
		if a.Path.Valid {
			self.PathLen = len(a.Path.Waypoints)
			if !a.PathExhausted() {
				wp := a.Path.Waypoints[a.NextWaypoint].ToArray()
				self.Waypoint = &wp
			}
		}
	}

	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		AgentID:         a.ID,
		Self:            self,
		Neighbors:       w.neighborObs(a),
		Events:          events,
		Tasks:           w.taskObs(a, nowTick),
	}
	if obs.Events == nil {
		obs.Events = []protocol.Event{}
	}
	return obs
}

func (w *World) neighborObs(a *Agent) []protocol.EntityObs {
	out := []protocol.EntityObs{}
	center, ok := w.grid.IndexedPos(a.ID)
	if !ok {
		center = a.Pos
	}
	for _, n := range w.grid.QueryRadius(center, w.cfg.Tuning.ObsRadius) {
		if n.ID == a.ID {
			continue
		}
		other := w.agents[n.ID]
		if other == nil {
			continue
		}
		out = append(out, protocol.EntityObs{
			ID:       other.ID,
			Type:     "AGENT",
			Role:     other.Role.String(),
			Pos:      other.Pos.ToArray(),
			Activity: other.Activity(),
		})
	}
	return out
}

func (w *World) taskObs(a *Agent, nowTick uint64) []protocol.TaskObs {
	out := []protocol.TaskObs{}
	if !a.HasDest || a.MoveTaskID == "" {
		return out
	}
	t := protocol.TaskObs{
		TaskID: a.MoveTaskID,
		Kind:   protocol.TaskMoveTo,
		Target: a.Dest.ToArray(),
	}
	// Progress is a distance-based estimate against the planned cost.
	remain := nav.Dist(a.Pos, a.Dest)
	if a.Path.Valid && a.Path.Cost > 0 {
		p := 1 - float64(remain/a.Path.Cost)
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		t.Progress = p
		if speed := a.EffectiveSpeed(); speed > 0 {
			ticks := float64(remain) / float64(speed) * float64(w.cfg.Tuning.TickRateHz)
			t.EtaTicks = int(math.Ceil(ticks))
		}
	}
	return append(out, t)
}
