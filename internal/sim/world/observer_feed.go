package world

import (
	"encoding/json"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/observerproto"
)

// ObserverJoinRequest registers a read-only spectator session. The world
// pushes one TickMsg per tick onto Out; slow observers lose frames.
type ObserverJoinRequest struct {
	SessionID          string
	Out                chan []byte
	IncludeActions     bool
	IncludeDiagnostics bool
}

type observerState struct {
	Out                chan []byte
	IncludeActions     bool
	IncludeDiagnostics bool
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	w.observers[req.SessionID] = &observerState{
		Out:                req.Out,
		IncludeActions:     req.IncludeActions,
		IncludeDiagnostics: req.IncludeDiagnostics,
	}
}

func (w *World) handleObserverLeave(sessionID string) {
	delete(w.observers, sessionID)
}

// broadcastObserverTick sends this tick's world summary to every
// spectator. The base frame is marshaled once; actions and diagnostics
// are added only for sessions that asked for them.
func (w *World) broadcastObserverTick(nowTick uint64, joins []RecordedJoin, leaves []string, actions []RecordedAction) {
	if len(w.observers) == 0 {
		return
	}

	base := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Agents:          make([]observerproto.AgentState, 0, len(w.agents)),
		Leaves:          leaves,
	}
	for _, j := range joins {
		base.Joins = append(base.Joins, observerproto.JoinInfo{
			AgentID: j.AgentID,
			Name:    j.Name,
			Role:    j.Role,
		})
	}
	for _, a := range w.sortedAgents() {
		st := observerproto.AgentState{
			ID:         a.ID,
			Name:       a.Name,
			Connected:  w.clients[a.ID] != nil,
			Pos:        a.Pos.ToArray(),
			Role:       a.Role.String(),
			Activity:   a.Activity(),
			StallTicks: a.StallTicks,
			Attempts:   a.RecoveryAttempts,
		}
		if tasks := w.taskObs(a, nowTick); len(tasks) > 0 {
			t := tasks[0]
			st.MoveTask = &observerproto.TaskState{
				TaskID:   t.TaskID,
				Target:   t.Target,
				Progress: t.Progress,
				EtaTicks: t.EtaTicks,
				PathLen:  len(a.Path.Waypoints),
			}
		}
		base.Agents = append(base.Agents, st)
	}

	baseBytes, err := json.Marshal(base)
	if err != nil {
		return
	}

	var fullBytes []byte
	for _, o := range w.observers {
		b := baseBytes
		if o.IncludeActions || o.IncludeDiagnostics {
			if fullBytes == nil {
				full := base
				for _, ra := range actions {
					full.Actions = append(full.Actions, observerproto.RecordedAction{
						AgentID: ra.AgentID,
						Act:     ra.Act,
					})
				}
				for _, d := range w.tickDiags {
					full.Diagnostics = append(full.Diagnostics, observerproto.Diagnostic{
						AgentID: d.AgentID,
						Kind:    d.Kind,
						Detail:  d.Detail,
					})
				}
				fullBytes, err = json.Marshal(full)
				if err != nil {
					fullBytes = baseBytes
				}
			}
			b = fullBytes
		}
		sendLatest(o.Out, b)
	}
}
