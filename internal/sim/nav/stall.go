package nav

import (
	"math"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/mathx"
)

// StallConfig tunes stagnation detection and staged recovery.
type StallConfig struct {
	MinProgress    float32 // required distance-to-goal closure per window
	OffsetMax      float32 // attempt 1: max destination offset magnitude
	RelocateRadius float32 // attempt 2: walkable-search radius
	MaxAttempts    int     // attempts >= this abandon the destination
}

func (c StallConfig) withDefaults() StallConfig {
	if c.MinProgress <= 0 {
		c.MinProgress = 3.0
	}
	if c.OffsetMax <= 0 {
		c.OffsetMax = 6.0
	}
	if c.RelocateRadius <= 0 {
		c.RelocateRadius = 8.0
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return c
}

// RecoveryKind is the escalation ladder for a stalled agent.
type RecoveryKind uint8

const (
	RecoveryNone       RecoveryKind = iota
	RecoveryOffsetDest              // attempt 1: nudge the destination and replan
	RecoveryRelocate                // attempt 2: move to nearest walkable spot and replan
	RecoveryAbandon                 // attempt 3+: give up, go idle (terminal)
)

func (k RecoveryKind) String() string {
	switch k {
	case RecoveryOffsetDest:
		return "OFFSET_DEST"
	case RecoveryRelocate:
		return "RELOCATE"
	case RecoveryAbandon:
		return "ABANDON"
	default:
		return "NONE"
	}
}

// EvaluateStall records the agent's position into the rolling history and
// reports whether it is stalled: the window is full and distance-to-goal
// closed by less than the minimum expected progress over it. Agents without
// a destination are never stalled.
func EvaluateStall(a *Agent, cfg StallConfig) bool {
	if !a.HasDest || a.Controlled {
		a.Stalled = false
		a.StallTicks = 0
		return false
	}
	cfg = cfg.withDefaults()
	oldest, full := a.OldestRecorded()
	a.RecordPosition(a.Pos)
	if !full {
		a.Stalled = false
		return false
	}
	closure := Dist(oldest, a.Dest) - Dist(a.Pos, a.Dest)
	if closure < cfg.MinProgress {
		a.Stalled = true
		a.StallTicks++
		return true
	}
	a.Stalled = false
	a.StallTicks = 0
	return false
}

// NextRecovery returns the escalation step for the agent's current attempt
// count. The ladder never loops back: attempts only grow until the
// destination is reached, replaced, or abandoned.
func NextRecovery(a *Agent, cfg StallConfig) RecoveryKind {
	cfg = cfg.withDefaults()
	switch {
	case a.RecoveryAttempts >= cfg.MaxAttempts-1:
		return RecoveryAbandon
	case a.RecoveryAttempts == 1:
		return RecoveryRelocate
	default:
		return RecoveryOffsetDest
	}
}

// RecoveryOffset derives the bounded destination nudge for recovery attempt
// 1 from the world seed, tick, and agent id — deterministic across runs.
// The offset lies in the horizontal plane with magnitude in (0, max].
func RecoveryOffset(seed int64, tick uint64, agentID string, max float32) Vec3 {
	h := mathx.HashStr(seed^int64(uint64(tick)*0x9e3779b97f4a7c15), agentID)
	angle := mathx.Unit01(h) * 2 * math.Pi
	mag := float64(max) * (0.5 + 0.5*mathx.Unit01(h*0x9e3779b97f4a7c15+1))
	return Vec3{
		X: float32(math.Cos(angle) * mag),
		Z: float32(math.Sin(angle) * mag),
	}
}
