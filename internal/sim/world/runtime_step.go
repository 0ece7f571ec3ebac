package world

import (
	"encoding/json"
	"time"
)

// step advances the simulation by one tick. Phase order is fixed and every
// phase iterates agents in id order; identical inputs produce bit-identical
// state on every run.
//
//	leaves -> joins -> actions -> planning -> index -> movement ->
//	stall -> recovery -> observe/log
func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	started := time.Now()
	nowTick := w.tick.Load()
	w.tickDiags = w.tickDiags[:0]

	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if _, ok := w.agents[id]; ok {
			w.handleLeave(id)
			recordedLeaves = append(recordedLeaves, id)
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		resp := w.joinAgent(req.Name, req.Role, req.Controlled, req.Out)
		if req.Resp != nil {
			req.Resp <- resp
		}
		recordedJoins = append(recordedJoins, RecordedJoin{
			AgentID:    resp.Welcome.AgentID,
			Name:       req.Name,
			Role:       req.Role,
			Controlled: req.Controlled,
		})
	}

	// Apply actions in server_receive_order (the inbox order).
	recorded := make([]RecordedAction, 0, len(actions))
	for _, env := range actions {
		a := w.agents[env.AgentID]
		if a == nil {
			continue
		}
		env.Act.AgentID = env.AgentID // trust session identity
		recorded = append(recorded, RecordedAction{AgentID: env.AgentID, Act: env.Act})
		w.applyAct(a, env.Act, nowTick)
	}

	w.systemPlanning(nowTick)
	w.systemIndex()
	w.systemMovement(nowTick)
	w.systemStall(nowTick)
	w.systemRecovery(nowTick)

	// Build + send OBS for each connected agent, in id order.
	for _, a := range w.sortedAgents() {
		cl := w.clients[a.ID]
		evs := a.DrainEvents()
		if cl == nil {
			continue
		}
		obs := w.buildObs(a, evs, nowTick)
		b, err := json.Marshal(obs)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}

	w.broadcastObserverTick(nowTick, recordedJoins, recordedLeaves, recorded)

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:    nowTick,
			Joins:   recordedJoins,
			Leaves:  recordedLeaves,
			Actions: recorded,
			Digest:  digest,
		})
	}

	if every := uint64(w.cfg.Tuning.SnapshotEveryTicks); w.snapshotSink != nil && every > 0 && nowTick != 0 && nowTick%every == 0 {
		snap := w.ExportSnapshot(nowTick)
		select {
		case w.snapshotSink <- snap:
		default:
			// Drop the snapshot if the sink is backed up.
		}
	}

	w.stats.setGauges(len(w.agents), len(w.clients))
	w.stats.setStepMicros(time.Since(started).Microseconds())

	w.tick.Add(1)
}

// StepOnce advances the world by a single tick using the same ordering
// semantics as the server. It is primarily intended for deterministic
// replays and tests.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, actions []ActionEnvelope) (tick uint64, digest string) {
	tick = w.tick.Load()
	w.step(joins, leaves, actions)
	return tick, w.stateDigest(tick)
}
