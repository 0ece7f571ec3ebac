package nav

// RecalcConfig tunes the lazy recalculation policy.
type RecalcConfig struct {
	IntervalTicks uint64  // periodic replan floor
	DestDriftDist float32 // replan when the destination moved this far
}

func (c RecalcConfig) withDefaults() RecalcConfig {
	if c.IntervalTicks == 0 {
		c.IntervalTicks = 5
	}
	if c.DestDriftDist <= 0 {
		c.DestDriftDist = 10
	}
	return c
}

// ShouldRecalculate decides whether the agent needs a fresh path this tick.
// The policy bounds planner invocations: agents replan when forced (new
// destination, recovery), on a fixed interval, when the destination drifted
// past the threshold since the last plan, or when flagged stalled — never
// merely because a tick elapsed.
func ShouldRecalculate(a *Agent, nowTick uint64, cfg RecalcConfig) bool {
	if !a.HasDest || a.Controlled {
		return false
	}
	cfg = cfg.withDefaults()
	if a.NeedsPlan {
		return true
	}
	if a.Stalled {
		return true
	}
	if nowTick-a.LastPlanTick > cfg.IntervalTicks {
		return true
	}
	if Dist(a.Dest, a.DestAtPlan) > cfg.DestDriftDist {
		return true
	}
	return false
}
