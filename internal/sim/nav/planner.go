package nav

import (
	"container/heap"
	"math"
)

// PlannerConfig bounds the search. Zero values fall back to the defaults
// from tuning.
type PlannerConfig struct {
	NodeBudget    int     // max expansions before giving up
	GoalTolerance float32 // success band around the goal
	VerticalCost  float32 // edge cost and heuristic weight for the Y axis, >= 1
}

func (c PlannerConfig) withDefaults() PlannerConfig {
	if c.NodeBudget <= 0 {
		c.NodeBudget = 500
	}
	if c.GoalTolerance <= 0 {
		c.GoalTolerance = 0.5
	}
	if c.VerticalCost < 1 {
		c.VerticalCost = 1.5
	}
	return c
}

// PlanStats reports how much work a search did.
type PlanStats struct {
	Expanded int
}

type latticeKey struct{ x, y, z int }

type searchNode struct {
	key    latticeKey
	g      float32
	h      float32
	f      float32
	seq    int // insertion order, final deterministic tie-break
	hindex int
}

type frontier []*searchNode

func (q frontier) Len() int { return len(q) }
func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	return q[i].seq < q[j].seq
}
func (q frontier) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].hindex = i
	q[j].hindex = j
}
func (q *frontier) Push(x any) {
	n := x.(*searchNode)
	n.hindex = len(*q)
	*q = append(*q, n)
}
func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.hindex = -1
	*q = old[:n-1]
	return item
}

// Fixed expansion order: 8 compass directions, then up, then down.
var neighborOffsets = [10]latticeKey{
	{1, 0, 0}, {-1, 0, 0}, {0, 0, 1}, {0, 0, -1},
	{1, 0, 1}, {1, 0, -1}, {-1, 0, 1}, {-1, 0, -1},
	{0, 1, 0}, {0, -1, 0},
}

const sqrt2 = float32(math.Sqrt2)

// FindPath runs a bounded A* over a unit lattice anchored at start. The
// heuristic is the per-axis absolute delta sum with the vertical term
// weighted by VerticalCost, which is admissible because the vertical edge
// cost equals that weight. The search succeeds when the popped node lands
// within the goal tolerance band (per-axis half-unit, or the configured
// Euclidean tolerance) and fails — Valid=false, no waypoints — once the
// node budget is spent. Budget exhaustion is a normal outcome, not an
// error.
func FindPath(start, goal Vec3, obstacles *ObstacleStore, bounds Bounds, cfg PlannerConfig) (Path, PlanStats) {
	cfg = cfg.withDefaults()
	var stats PlanStats

	start = bounds.Clamp(start)
	goal = bounds.Clamp(goal)

	worldPos := func(k latticeKey) Vec3 {
		return Vec3{start.X + float32(k.x), start.Y + float32(k.y), start.Z + float32(k.z)}
	}
	hOf := func(p Vec3) float32 {
		dx := float32(math.Abs(float64(p.X - goal.X)))
		dy := float32(math.Abs(float64(p.Y - goal.Y)))
		dz := float32(math.Abs(float64(p.Z - goal.Z)))
		return dx + dz + cfg.VerticalCost*dy
	}
	reached := func(p Vec3) bool {
		if Dist(p, goal) <= cfg.GoalTolerance {
			return true
		}
		// Closest-lattice-point band: per-axis half unit.
		const half = 0.5 + 1e-3
		return math.Abs(float64(p.X-goal.X)) <= half &&
			math.Abs(float64(p.Y-goal.Y)) <= half &&
			math.Abs(float64(p.Z-goal.Z)) <= half
	}

	origin := latticeKey{}
	if reached(start) {
		return Path{Waypoints: []Vec3{goal}, Cost: Dist(start, goal), Valid: true}, stats
	}

	gScore := map[latticeKey]float32{origin: 0}
	parent := map[latticeKey]latticeKey{}
	closed := map[latticeKey]bool{}

	open := &frontier{}
	heap.Init(open)
	seq := 0
	startNode := &searchNode{key: origin, g: 0, h: hOf(start), seq: seq}
	startNode.f = startNode.h
	heap.Push(open, startNode)

	edgeCosts := [10]float32{
		1, 1, 1, 1,
		sqrt2, sqrt2, sqrt2, sqrt2,
		cfg.VerticalCost, cfg.VerticalCost,
	}

	for open.Len() > 0 {
		n := heap.Pop(open).(*searchNode)
		if closed[n.key] {
			continue
		}
		closed[n.key] = true
		stats.Expanded++

		np := worldPos(n.key)
		if reached(np) {
			return reconstruct(n.key, parent, worldPos, goal, n.g), stats
		}
		if stats.Expanded >= cfg.NodeBudget {
			return Path{}, stats
		}

		for i, off := range neighborOffsets {
			nk := latticeKey{n.key.x + off.x, n.key.y + off.y, n.key.z + off.z}
			if closed[nk] {
				continue
			}
			cp := worldPos(nk)
			if !bounds.Contains(cp) || obstacles.Blocked(cp) {
				continue
			}
			tentative := n.g + edgeCosts[i]
			if best, ok := gScore[nk]; ok && tentative >= best {
				continue
			}
			gScore[nk] = tentative
			parent[nk] = n.key
			seq++
			child := &searchNode{key: nk, g: tentative, h: hOf(cp), seq: seq}
			child.f = child.g + child.h
			heap.Push(open, child)
		}
	}
	return Path{}, stats
}

func reconstruct(end latticeKey, parent map[latticeKey]latticeKey, worldPos func(latticeKey) Vec3, goal Vec3, g float32) Path {
	rev := []latticeKey{end}
	cur := end
	for cur != (latticeKey{}) {
		p, ok := parent[cur]
		if !ok {
			break
		}
		rev = append(rev, p)
		cur = p
	}
	// rev holds end..origin; emit origin-exclusive waypoints in walk order.
	wps := make([]Vec3, 0, len(rev))
	for i := len(rev) - 2; i >= 0; i-- {
		wps = append(wps, worldPos(rev[i]))
	}
	last := worldPos(end)
	cost := g + Dist(last, goal)
	// The final waypoint is always the exact goal.
	if len(wps) == 0 || Dist(last, goal) > 1e-4 {
		wps = append(wps, goal)
	} else {
		wps[len(wps)-1] = goal
	}
	return Path{Waypoints: wps, Cost: cost, Valid: true}
}
