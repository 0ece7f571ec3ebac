package nav

// MoveConfig tunes the movement controller.
type MoveConfig struct {
	ArrivalTolerance float32 // waypoint/goal arrival band
	PathWeight       float32 // share of velocity following the path
	SepWeight        float32 // share of velocity yielding to separation
	AvoidRadius      float32 // keep-out distance around neighbors
}

func (c MoveConfig) withDefaults() MoveConfig {
	if c.ArrivalTolerance <= 0 {
		c.ArrivalTolerance = 1.0
	}
	if c.PathWeight <= 0 {
		c.PathWeight = 0.7
	}
	if c.SepWeight < 0 {
		c.SepWeight = 0.3
	}
	if c.AvoidRadius <= 0 {
		c.AvoidRadius = 2.0
	}
	return c
}

// AdvanceResult reports what a movement step did.
type AdvanceResult struct {
	Moved   bool
	Arrived bool // the final waypoint was reached: journey complete
}

// Advance moves the agent along its current path for dt seconds. The
// path-following direction blends with the separation vector as a fixed
// weighted sum, then two guards shape the step around traffic:
//
//   - head-on repulsion (nearly opposite the travel direction) gains a
//     sidestep to the agent's right, so two opposed agents break symmetry
//     in opposite world directions and pass instead of pushing through;
//   - inside the keep-out radius the step may slide past or back off a
//     neighbor but never close in — the approach component is removed
//     against the start-of-phase neighbor snapshot.
//
// Speed stays bounded by the effective speed, the step never overshoots
// the current waypoint, and the final position is clamped to bounds. When
// the last waypoint falls inside the arrival tolerance the journey is
// complete; the caller marks the agent idle.
//
// An invalid or exhausted path, or zero effective speed, moves nothing —
// both are expected states, not errors.
func Advance(a *Agent, sep Vec3, neighbors []Neighbor, bounds Bounds, dt float32, cfg MoveConfig) AdvanceResult {
	cfg = cfg.withDefaults()
	if a.PathExhausted() || dt <= 0 {
		return AdvanceResult{}
	}
	speed := a.EffectiveSpeed()
	if speed <= 0 {
		return AdvanceResult{}
	}

	wp := a.Path.Waypoints[a.NextWaypoint]
	toWp := wp.Sub(a.Pos)
	remain := toWp.Len()

	dir := toWp.Normalized()
	vel := dir.Scale(cfg.PathWeight).Add(sep.Scale(cfg.SepWeight))

	if !sep.IsZero() && Dot(sep.Normalized(), dir) < -0.7 {
		vel = vel.Add(rightOf(dir).Scale(cfg.PathWeight))
	}

	for _, n := range neighbors {
		if n.ID == a.ID {
			continue
		}
		away := a.Pos.Sub(n.Pos)
		d := away.Len()
		if d == 0 || d > cfg.AvoidRadius {
			continue
		}
		awayDir := away.Scale(1 / d)
		if closing := -Dot(vel, awayDir); closing > 0 {
			vel = vel.Add(awayDir.Scale(closing))
		}
	}

	if l := vel.Len(); l > 1 {
		vel = vel.Scale(1 / l)
	}

	step := vel.Scale(speed * dt)
	if l := step.Len(); l > remain && l > 0 {
		step = step.Scale(remain / l)
	}
	a.Pos = a.Pos.Add(step)
	if bounds.Min != bounds.Max {
		a.Pos = bounds.Clamp(a.Pos)
	}

	res := AdvanceResult{Moved: !step.IsZero()}
	for !a.PathExhausted() && Dist(a.Pos, a.Path.Waypoints[a.NextWaypoint]) <= cfg.ArrivalTolerance {
		a.NextWaypoint++
		if a.NextWaypoint >= len(a.Path.Waypoints) {
			res.Arrived = true
		}
	}
	return res
}

// rightOf is the clockwise horizontal perpendicular of dir (seen from
// above). Opposed headings map to opposite world directions, which is what
// lets two head-on agents pick different sides.
func rightOf(dir Vec3) Vec3 {
	return Vec3{X: dir.Z, Z: -dir.X}.Normalized()
}
