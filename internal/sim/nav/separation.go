package nav

import (
	"math"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/mathx"
)

// SeparationConfig tunes local crowd repulsion.
type SeparationConfig struct {
	Radius   float32 // neighbors beyond this are ignored
	MinDist  float32 // distance clamp for the inverse-square term
	Strength float32 // magnitude of the normalized repulsion sum
}

func (c SeparationConfig) withDefaults() SeparationConfig {
	if c.Radius <= 0 {
		c.Radius = 2.0
	}
	if c.MinDist <= 0 {
		c.MinDist = 0.25
	}
	if c.Strength <= 0 {
		c.Strength = 0.3
	}
	return c
}

// SeparationVector accumulates an inverse-square repulsion from every
// neighbor inside the avoidance radius, normalizes the sum, and scales it
// by the avoidance strength. Neighbors must be the position snapshot from
// the start of the movement phase.
//
// Coincident neighbors (distance below the clamp with no usable direction)
// repel along a deterministic unit direction in the horizontal plane,
// hashed from the seed and both identifiers, so two runs jitter
// identically.
func SeparationVector(selfID string, pos Vec3, neighbors []Neighbor, cfg SeparationConfig, seed int64) Vec3 {
	cfg = cfg.withDefaults()
	var sum Vec3
	for _, n := range neighbors {
		if n.ID == selfID {
			continue
		}
		away := pos.Sub(n.Pos)
		d := away.Len()
		if d > cfg.Radius {
			continue
		}
		if d < cfg.MinDist {
			d = cfg.MinDist
			if away.IsZero() {
				away = jitterDir(seed, selfID, n.ID)
			}
		}
		sum = sum.Add(away.Normalized().Scale(1 / (d * d)))
	}
	if sum.IsZero() {
		return Vec3{}
	}
	return sum.Normalized().Scale(cfg.Strength)
}

func jitterDir(seed int64, selfID, otherID string) Vec3 {
	h := mathx.HashStr(seed, selfID+"|"+otherID)
	angle := mathx.Unit01(h) * 2 * math.Pi
	return Vec3{X: float32(math.Cos(angle)), Z: float32(math.Sin(angle))}
}
