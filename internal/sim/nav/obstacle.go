package nav

import "sort"

// Obstacle is a static axis-aligned impassable volume.
type Obstacle struct {
	ID  string `json:"id" yaml:"id"`
	Min Vec3   `json:"min" yaml:"min"`
	Max Vec3   `json:"max" yaml:"max"`
}

func (o Obstacle) Contains(p Vec3) bool {
	return p.X >= o.Min.X && p.X <= o.Max.X &&
		p.Y >= o.Min.Y && p.Y <= o.Max.Y &&
		p.Z >= o.Min.Z && p.Z <= o.Max.Z
}

// ObstacleStore holds the world's impassable volumes. It is written only by
// the world loop (layout load, explicit add/remove) and read by the planner
// and by walkability checks.
type ObstacleStore struct {
	byID map[string]Obstacle
}

func NewObstacleStore() *ObstacleStore {
	return &ObstacleStore{byID: map[string]Obstacle{}}
}

func (s *ObstacleStore) Add(o Obstacle) {
	if o.ID == "" {
		return
	}
	// Normalize corners so Contains never sees an inverted box.
	if o.Min.X > o.Max.X {
		o.Min.X, o.Max.X = o.Max.X, o.Min.X
	}
	if o.Min.Y > o.Max.Y {
		o.Min.Y, o.Max.Y = o.Max.Y, o.Min.Y
	}
	if o.Min.Z > o.Max.Z {
		o.Min.Z, o.Max.Z = o.Max.Z, o.Min.Z
	}
	s.byID[o.ID] = o
}

func (s *ObstacleStore) Remove(id string) { delete(s.byID, id) }

func (s *ObstacleStore) Len() int { return len(s.byID) }

// Blocked reports whether p is inside any obstacle.
func (s *ObstacleStore) Blocked(p Vec3) bool {
	for _, o := range s.byID {
		if o.Contains(p) {
			return true
		}
	}
	return false
}

// All returns obstacles sorted by ID. Digests and snapshots depend on this
// ordering being stable.
func (s *ObstacleStore) All() []Obstacle {
	out := make([]Obstacle, 0, len(s.byID))
	for _, o := range s.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NearestWalkable scans the unit lattice around p (fixed shell-by-shell
// order) for the closest position that is inside bounds and not blocked.
// Used to sanitize obstacle-interior starts and for stall recovery
// relocation. Returns p unchanged with ok=false when nothing within radius
// qualifies.
func (s *ObstacleStore) NearestWalkable(p Vec3, bounds Bounds, radius float32) (Vec3, bool) {
	p = bounds.Clamp(p)
	if !s.Blocked(p) {
		return p, true
	}
	r := int(radius)
	type cand struct {
		pos  Vec3
		dist float32
	}
	var best *cand
	for shell := 1; shell <= r; shell++ {
		for dx := -shell; dx <= shell; dx++ {
			for dy := -shell; dy <= shell; dy++ {
				for dz := -shell; dz <= shell; dz++ {
					if mxAbs(dx, dy, dz) != shell {
						continue // only the surface of this shell
					}
					q := bounds.Clamp(Vec3{p.X + float32(dx), p.Y + float32(dy), p.Z + float32(dz)})
					if s.Blocked(q) {
						continue
					}
					d := Dist(p, q)
					if d > radius {
						continue
					}
					if best == nil || d < best.dist {
						best = &cand{pos: q, dist: d}
					}
				}
			}
		}
		if best != nil {
			return best.pos, true
		}
	}
	return p, false
}

func mxAbs(a, b, c int) int {
	m := a
	if m < 0 {
		m = -m
	}
	if b < 0 {
		b = -b
	}
	if b > m {
		m = b
	}
	if c < 0 {
		c = -c
	}
	if c > m {
		m = c
	}
	return m
}
