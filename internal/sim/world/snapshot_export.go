package world

import (
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/persistence/snapshot"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

// ExportSnapshot captures the deterministic world state at the given tick.
// Resume tokens and client attachments are deliberately excluded.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: 1,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:       w.cfg.Seed,
		TickRate:   w.cfg.Tuning.TickRateHz,
		LayoutName: w.cfg.Layout.Name,
		Bounds: snapshot.BoundsV1{
			Min: w.bounds.Min.ToArray(),
			Max: w.bounds.Max.ToArray(),
		},
		Counters: snapshot.CountersV1{
			NextAgent: w.nextAgentNum.Load(),
			NextTask:  w.nextTaskNum.Load(),
		},
	}

	for _, o := range w.obstacles.All() {
		snap.Obstacles = append(snap.Obstacles, snapshot.ObstacleV1{
			ID:  o.ID,
			Min: o.Min.ToArray(),
			Max: o.Max.ToArray(),
		})
	}

	for _, a := range w.sortedAgents() {
		av := snapshot.AgentV1{
			ID:         a.ID,
			Name:       a.Name,
			Role:       a.Role.String(),
			Pos:        a.Pos.ToArray(),
			Controlled: a.Controlled,
			JoinedTick: a.JoinedTick,
			Modifiers: snapshot.ModifiersV1{
				Mobility: a.Modifiers.Mobility,
				Terrain:  a.Modifiers.Terrain,
			},
			HasDest:          a.HasDest,
			Dest:             a.Dest.ToArray(),
			DestAtPlan:       a.DestAtPlan.ToArray(),
			MoveTaskID:       a.MoveTaskID,
			NextWaypoint:     a.NextWaypoint,
			LastPlanTick:     a.LastPlanTick,
			StallTicks:       a.StallTicks,
			RecoveryAttempts: a.RecoveryAttempts,
			Stalled:          a.Stalled,
			Arrived:          a.Arrived,
			NeedsPlan:        a.NeedsPlan,
		}
		if a.Path.Valid {
			pv := snapshot.PathV1{Cost: a.Path.Cost, Valid: true}
			for _, wp := range a.Path.Waypoints {
				pv.Waypoints = append(pv.Waypoints, wp.ToArray())
			}
			av.Path = &pv
		}
		for _, p := range a.HistorySlice() {
			av.History = append(av.History, p.ToArray())
		}
		snap.Agents = append(snap.Agents, av)
	}

	return snap
}

// ImportSnapshot rebuilds a world from a snapshot. The world must be
// freshly constructed; the layout geometry comes from the snapshot, not
// the config.
func ImportSnapshot(cfg WorldConfig, snap snapshot.SnapshotV1) (*World, error) {
	cfg = cfg.withDefaults()
	cfg.Seed = snap.Seed
	if snap.TickRate > 0 {
		cfg.Tuning.TickRateHz = snap.TickRate
	}
	cfg.Layout.Name = snap.LayoutName
	cfg.Layout.Bounds = nav.Bounds{
		Min: nav.FromArray(snap.Bounds.Min),
		Max: nav.FromArray(snap.Bounds.Max),
	}
	cfg.Layout.Obstacles = nil
	for _, o := range snap.Obstacles {
		cfg.Layout.Obstacles = append(cfg.Layout.Obstacles, nav.Obstacle{
			ID:  o.ID,
			Min: nav.FromArray(o.Min),
			Max: nav.FromArray(o.Max),
		})
	}

	w, err := New(cfg)
	if err != nil {
		return nil, err
	}
	w.tick.Store(snap.Header.Tick + 1)
	w.nextAgentNum.Store(snap.Counters.NextAgent)
	w.nextTaskNum.Store(snap.Counters.NextTask)

	for _, av := range snap.Agents {
		a := &Agent{
			Name:       av.Name,
			JoinedTick: av.JoinedTick,
			MoveTaskID: av.MoveTaskID,
		}
		a.Agent = nav.Agent{
			ID:         av.ID,
			Role:       nav.RoleFromString(av.Role),
			Pos:        nav.FromArray(av.Pos),
			Controlled: av.Controlled,
			Modifiers: nav.Modifiers{
				Mobility: av.Modifiers.Mobility,
				Terrain:  av.Modifiers.Terrain,
			},
			HasDest:          av.HasDest,
			Dest:             nav.FromArray(av.Dest),
			DestAtPlan:       nav.FromArray(av.DestAtPlan),
			NextWaypoint:     av.NextWaypoint,
			LastPlanTick:     av.LastPlanTick,
			StallTicks:       av.StallTicks,
			RecoveryAttempts: av.RecoveryAttempts,
			Stalled:          av.Stalled,
			Arrived:          av.Arrived,
			NeedsPlan:        av.NeedsPlan,
		}
		if av.Path != nil {
			p := nav.Path{Cost: av.Path.Cost, Valid: av.Path.Valid}
			for _, wp := range av.Path.Waypoints {
				p.Waypoints = append(p.Waypoints, nav.FromArray(wp))
			}
			a.Path = p
		}
		for _, hp := range av.History {
			a.RecordPosition(nav.FromArray(hp))
		}
		w.agents[a.ID] = a
		w.grid.Upsert(a.ID, a.Pos)
	}

	return w, nil
}
