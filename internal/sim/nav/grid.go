package nav

import (
	"math"
	"sort"
)

// CellKey addresses one cubic cell of the spatial grid.
type CellKey struct {
	X int
	Y int
	Z int
}

type gridEntry struct {
	cell CellKey
	pos  Vec3
}

// SpatialGrid buckets agent identifiers into fixed-size cubic cells for
// proximity queries. Cells are sparse: a cell exists only while occupied.
// The grid stores the position each id was last indexed at, which is by
// construction the position as of the start of the current movement phase
// (the index is rewritten only in the index-update phase).
//
// Invariant: an id is in at most one cell, and that cell is the one
// containing its last indexed (bounds-clamped) position.
type SpatialGrid struct {
	cellSize float32
	bounds   Bounds
	cells    map[CellKey]map[string]struct{}
	byID     map[string]gridEntry
}

func NewSpatialGrid(cellSize float32, bounds Bounds) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 10
	}
	return &SpatialGrid{
		cellSize: cellSize,
		bounds:   bounds,
		cells:    map[CellKey]map[string]struct{}{},
		byID:     map[string]gridEntry{},
	}
}

func (g *SpatialGrid) CellSize() float32 { return g.cellSize }

// CellFor floor-divides each coordinate by the cell size. Positions outside
// the world bounds are clamped first so out-of-range agents still index.
func (g *SpatialGrid) CellFor(p Vec3) CellKey {
	p = g.bounds.Clamp(p)
	size := float64(g.cellSize)
	return CellKey{
		X: int(math.Floor(float64(p.X) / size)),
		Y: int(math.Floor(float64(p.Y) / size)),
		Z: int(math.Floor(float64(p.Z) / size)),
	}
}

// Upsert places id in the cell for pos, removing it from its previous cell
// first. O(1) amortized.
func (g *SpatialGrid) Upsert(id string, pos Vec3) {
	pos = g.bounds.Clamp(pos)
	cell := g.CellFor(pos)
	if prev, ok := g.byID[id]; ok {
		if prev.cell == cell {
			g.byID[id] = gridEntry{cell: cell, pos: pos}
			return
		}
		g.removeFromCell(id, prev.cell)
	}
	set := g.cells[cell]
	if set == nil {
		set = map[string]struct{}{}
		g.cells[cell] = set
	}
	set[id] = struct{}{}
	g.byID[id] = gridEntry{cell: cell, pos: pos}
}

func (g *SpatialGrid) Remove(id string) {
	prev, ok := g.byID[id]
	if !ok {
		return
	}
	g.removeFromCell(id, prev.cell)
	delete(g.byID, id)
}

func (g *SpatialGrid) removeFromCell(id string, cell CellKey) {
	set := g.cells[cell]
	if set == nil {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(g.cells, cell)
	}
}

// IndexedPos returns the position id was last indexed at.
func (g *SpatialGrid) IndexedPos(id string) (Vec3, bool) {
	e, ok := g.byID[id]
	return e.pos, ok
}

func (g *SpatialGrid) Len() int { return len(g.byID) }

// Neighbor is one occupant returned by a radius query.
type Neighbor struct {
	ID  string
	Pos Vec3
}

// QueryRadius returns the occupants within radius of center, sorted by id.
// The cell scan is a coarse prefilter; every result is verified against the
// true Euclidean distance.
func (g *SpatialGrid) QueryRadius(center Vec3, radius float32) []Neighbor {
	if radius < 0 {
		return nil
	}
	c := g.CellFor(center)
	span := int(math.Ceil(float64(radius) / float64(g.cellSize)))
	var out []Neighbor
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			for dz := -span; dz <= span; dz++ {
				set := g.cells[CellKey{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}]
				for id := range set {
					e := g.byID[id]
					if Dist(center, e.pos) <= radius {
						out = append(out, Neighbor{ID: id, Pos: e.pos})
					}
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
