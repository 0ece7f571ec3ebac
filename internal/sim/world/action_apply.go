package world

import (
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

func (w *World) applyAct(a *Agent, act protocol.ActMsg, nowTick uint64) {
	// Staleness check: accept only [now-2, now].
	if act.Tick+2 < nowTick || act.Tick > nowTick {
		a.AddEvent(actionResult(nowTick, "ACT", false, protocol.ErrStale, "act tick out of range"))
		return
	}

	// Cancel first.
	for _, cid := range act.Cancel {
		if a.MoveTaskID != "" && a.MoveTaskID == cid {
			a.ClearDestination()
			a.MoveTaskID = ""
			a.AddEvent(actionResult(nowTick, cid, true, "", "canceled"))
			continue
		}
		a.AddEvent(actionResult(nowTick, cid, false, protocol.ErrInvalidTarget, "task not found"))
	}

	for _, tr := range act.Tasks {
		w.applyTaskReq(a, tr, nowTick)
	}
}

func (w *World) applyTaskReq(a *Agent, tr protocol.TaskReq, nowTick uint64) {
	switch tr.Type {
	case protocol.TaskMoveTo:
		w.applyMoveTo(a, tr, nowTick)
	case protocol.TaskClearDestination:
		a.ClearDestination()
		a.MoveTaskID = ""
		a.AddEvent(actionResult(nowTick, tr.ID, true, "", "destination cleared"))
	case protocol.TaskSetModifiers:
		w.applySetModifiers(a, tr, nowTick)
	case protocol.TaskSetPos:
		w.applySetPos(a, tr, nowTick)
	default:
		a.AddEvent(actionResult(nowTick, tr.ID, false, protocol.ErrBadRequest, "unknown task type"))
	}
}

// applyMoveTo assigns a destination. Malformed targets are sanitized, not
// rejected: out-of-bounds clamps to the boundary and obstacle interiors
// snap to the nearest walkable spot. Controlled agents do not path-plan.
func (w *World) applyMoveTo(a *Agent, tr protocol.TaskReq, nowTick uint64) {
	if a.Controlled {
		a.AddEvent(actionResult(nowTick, tr.ID, false, protocol.ErrNoPermission, "controlled agents use SET_POS"))
		return
	}
	dest := w.bounds.Clamp(nav.FromArray(tr.Target))
	if w.obstacles.Blocked(dest) {
		snapped, ok := w.obstacles.NearestWalkable(dest, w.bounds, w.cfg.Tuning.Stall.RelocateRadius)
		if !ok {
			a.AddEvent(actionResult(nowTick, tr.ID, false, protocol.ErrInvalidTarget, "destination unreachable"))
			return
		}
		dest = snapped
	}
	a.SetDestination(dest)
	if tr.ID != "" {
		a.MoveTaskID = tr.ID
	} else {
		a.MoveTaskID = w.newTaskID()
	}
	a.AddEvent(actionResult(nowTick, a.MoveTaskID, true, "", "destination set"))
}

func (w *World) applySetModifiers(a *Agent, tr protocol.TaskReq, nowTick uint64) {
	m := a.Modifiers
	if tr.Mobility != nil {
		m.Mobility = *tr.Mobility
	}
	if tr.Terrain != nil {
		m.Terrain = *tr.Terrain
	}
	a.Modifiers = m.Sanitized()
	a.AddEvent(actionResult(nowTick, tr.ID, true, "", "modifiers set"))
}

// applySetPos moves a controlled agent directly. The position is clamped
// and snapped like any other external input; the agent stays a separation
// neighbor for everyone around it.
func (w *World) applySetPos(a *Agent, tr protocol.TaskReq, nowTick uint64) {
	if !a.Controlled {
		a.AddEvent(actionResult(nowTick, tr.ID, false, protocol.ErrNoPermission, "only controlled agents use SET_POS"))
		return
	}
	pos := w.bounds.Clamp(nav.FromArray(tr.Target))
	if w.obstacles.Blocked(pos) {
		snapped, ok := w.obstacles.NearestWalkable(pos, w.bounds, w.cfg.Tuning.Stall.RelocateRadius)
		if !ok {
			a.AddEvent(actionResult(nowTick, tr.ID, false, protocol.ErrInvalidTarget, "position blocked"))
			return
		}
		pos = snapped
	}
	a.Pos = pos
	a.AddEvent(actionResult(nowTick, tr.ID, true, "", "position set"))
}

func actionResult(tick uint64, ref string, ok bool, code string, message string) protocol.Event {
	if !protocol.IsKnownCode(code) {
		code = protocol.ErrInternal
		if message == "" {
			message = "unknown error code"
		}
	}
	e := protocol.Event{
		"t":    tick,
		"kind": protocol.EventActionResult,
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		e["code"] = code
	}
	if message != "" {
		e["message"] = message
	}
	return e
}
