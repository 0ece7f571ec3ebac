package world

import (
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

// systemPlanning runs the lazy recalculation policy and the bounded
// planner for every agent that needs a path this tick. A failed plan is a
// normal outcome: the destination clears, the agent goes idle, and a
// PATH_FAIL diagnostic records why.
func (w *World) systemPlanning(nowTick uint64) {
	t := w.cfg.Tuning
	recalcCfg := nav.RecalcConfig{
		IntervalTicks: t.Recalc.IntervalTicks,
		DestDriftDist: t.Recalc.DestDriftDist,
	}
	planCfg := nav.PlannerConfig{
		NodeBudget:    t.Planner.NodeBudget,
		GoalTolerance: t.Planner.GoalTolerance,
		VerticalCost:  t.Planner.VerticalCost,
	}

	for _, a := range w.sortedAgents() {
		if !nav.ShouldRecalculate(&a.Agent, nowTick, recalcCfg) {
			continue
		}
		start := a.Pos
		if w.obstacles.Blocked(start) {
			// Crowd deflection can wedge an agent into an obstacle corner;
			// planning from inside the volume would fail and strand it
			// there. Free the agent first.
			if snapped, ok := w.obstacles.NearestWalkable(start, w.bounds, t.Stall.RelocateRadius); ok {
				a.Pos = snapped
				start = snapped
			}
		}
		path, stats := nav.FindPath(start, a.Dest, w.obstacles, w.bounds, planCfg)
		a.LastPlanTick = nowTick
		a.DestAtPlan = a.Dest
		a.NeedsPlan = false
		if !path.Valid {
			dest := a.Dest
			a.ClearDestination()
			a.MoveTaskID = ""
			w.diagnostic(a, nowTick, protocol.EventPathFail, map[string]any{
				"dest":     dest.ToArray(),
				"expanded": stats.Expanded,
			})
			continue
		}
		a.Path = path
		a.NextWaypoint = 0
	}
}

// systemIndex rewrites the spatial index from current positions. Movement
// later this tick queries the index, so every agent sees the same
// start-of-phase position snapshot regardless of processing order.
func (w *World) systemIndex() {
	for _, a := range w.sortedAgents() {
		w.grid.Upsert(a.ID, a.Pos)
	}
}

// systemMovement advances every pathing agent: separation from indexed
// neighbors blended with path following, then waypoint bookkeeping.
func (w *World) systemMovement(nowTick uint64) {
	t := w.cfg.Tuning
	sepCfg := nav.SeparationConfig{
		Radius:   t.Separation.Radius,
		MinDist:  t.Separation.MinDist,
		Strength: t.Separation.Strength,
	}
	moveCfg := nav.MoveConfig{
		ArrivalTolerance: t.Movement.ArrivalTolerance,
		PathWeight:       t.Movement.PathWeight,
		SepWeight:        t.Movement.SepWeight,
		AvoidRadius:      t.Separation.Radius,
	}
	dt := float32(1) / float32(t.TickRateHz)

	for _, a := range w.sortedAgents() {
		if !a.HasDest || a.Controlled || a.PathExhausted() {
			continue
		}
		indexed, ok := w.grid.IndexedPos(a.ID)
		if !ok {
			indexed = a.Pos
		}
		neighbors := w.grid.QueryRadius(indexed, sepCfg.Radius)
		sep := nav.SeparationVector(a.ID, indexed, neighbors, sepCfg, w.cfg.Seed)

		res := nav.Advance(&a.Agent, sep, neighbors, w.bounds, dt, moveCfg)
		if res.Arrived {
			// A path can run out away from the destination (e.g. it was
			// planned for a target since superseded); only proximity to
			// the current destination completes the journey.
			if nav.Dist(a.Pos, a.Dest) <= moveCfg.ArrivalTolerance {
				w.finishJourney(a, nowTick)
			} else {
				a.Path = nav.Path{}
				a.NextWaypoint = 0
				a.NeedsPlan = true
			}
		}
	}
}

func (w *World) finishJourney(a *Agent, nowTick uint64) {
	dest := a.Dest
	a.ClearDestination()
	a.Arrived = true
	a.RecoveryAttempts = 0
	a.MoveTaskID = ""
	w.diagnostic(a, nowTick, protocol.EventArrive, map[string]any{
		"dest": dest.ToArray(),
		"pos":  a.Pos.ToArray(),
	})
}

// systemStall records positions into each agent's rolling window and flags
// the ones whose distance-to-goal stopped closing.
func (w *World) systemStall(nowTick uint64) {
	t := w.cfg.Tuning
	cfg := nav.StallConfig{
		MinProgress:    t.Stall.MinProgress,
		OffsetMax:      t.Stall.OffsetMax,
		RelocateRadius: t.Stall.RelocateRadius,
		MaxAttempts:    t.Stall.MaxAttempts,
	}
	for _, a := range w.sortedAgents() {
		was := a.Stalled
		if nav.EvaluateStall(&a.Agent, cfg) && !was {
			w.diagnostic(a, nowTick, protocol.EventStall, map[string]any{
				"dest":        a.Dest.ToArray(),
				"stall_ticks": a.StallTicks,
			})
		}
	}
}

// systemRecovery escalates every stalled agent one step up the ladder:
// nudge the destination, relocate to walkable ground, then abandon. Each
// step clears the measurement window so the next verdict waits for a fresh
// full window; the attempt counter only ever grows.
func (w *World) systemRecovery(nowTick uint64) {
	t := w.cfg.Tuning
	cfg := nav.StallConfig{
		MinProgress:    t.Stall.MinProgress,
		OffsetMax:      t.Stall.OffsetMax,
		RelocateRadius: t.Stall.RelocateRadius,
		MaxAttempts:    t.Stall.MaxAttempts,
	}
	for _, a := range w.sortedAgents() {
		if !a.Stalled || !a.HasDest {
			continue
		}
		kind := nav.NextRecovery(&a.Agent, cfg)
		switch kind {
		case nav.RecoveryOffsetDest:
			off := nav.RecoveryOffset(w.cfg.Seed, nowTick, a.ID, cfg.OffsetMax)
			dest := w.bounds.Clamp(a.Dest.Add(off))
			if snapped, ok := w.obstacles.NearestWalkable(dest, w.bounds, cfg.RelocateRadius); ok {
				dest = snapped
			}
			a.Dest = dest
			a.NeedsPlan = true
		case nav.RecoveryRelocate:
			if pos, ok := w.obstacles.NearestWalkable(a.Pos, w.bounds, cfg.RelocateRadius); ok {
				a.Pos = pos
			}
			a.NeedsPlan = true
		case nav.RecoveryAbandon:
			dest := a.Dest
			a.ClearDestination()
			a.MoveTaskID = ""
			a.RecoveryAttempts = 0
			w.diagnostic(a, nowTick, protocol.EventAbandon, map[string]any{
				"dest": dest.ToArray(),
			})
			continue
		}
		a.RecoveryAttempts++
		a.Stalled = false
		a.StallTicks = 0
		a.ClearHistory()
		w.diagnostic(a, nowTick, protocol.EventRecovery, map[string]any{
			"attempt": a.RecoveryAttempts,
			"action":  kind.String(),
		})
	}
}

// diagnostic queues a navigation event for the agent's OBS, appends it to
// the cursor log, and forwards it to the diagnostics logger.
func (w *World) diagnostic(a *Agent, nowTick uint64, kind string, detail map[string]any) {
	e := protocol.Event{"t": nowTick, "kind": kind, "agent_id": a.ID}
	for k, v := range detail {
		e[k] = v
	}
	a.AddEvent(e)
	w.eventLog.append(e)
	w.stats.CountEvent(kind)
	entry := DiagnosticEntry{
		Tick:    nowTick,
		AgentID: a.ID,
		Kind:    kind,
		Detail:  detail,
	}
	w.tickDiags = append(w.tickDiags, entry)
	if w.diagLogger != nil {
		_ = w.diagLogger.WriteDiagnostic(entry)
	}
}
