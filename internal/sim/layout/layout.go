// Package layout loads the static world geometry: playable bounds, the
// obstacle set, and named spawn points.
package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

type Layout struct {
	Name      string         `yaml:"name"`
	Bounds    nav.Bounds     `yaml:"bounds"`
	Obstacles []nav.Obstacle `yaml:"obstacles"`
	Spawns    []Spawn        `yaml:"spawns"`
}

// Spawn is a named drop-in point for joining agents.
type Spawn struct {
	Name string   `yaml:"name"`
	Pos  nav.Vec3 `yaml:"pos"`
}

func Load(path string) (Layout, error) {
	var l Layout
	raw, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return l, fmt.Errorf("world layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return l, err
	}
	return l, nil
}

// Default is the built-in layout used when no file is given: a flat open
// field with a handful of structures.
func Default() Layout {
	return Layout{
		Name:   "field",
		Bounds: nav.Bounds{Min: nav.Vec3{X: -128, Y: -16, Z: -128}, Max: nav.Vec3{X: 128, Y: 16, Z: 128}},
		Obstacles: []nav.Obstacle{
			{ID: "hall", Min: nav.Vec3{X: -6, Y: -1, Z: -20}, Max: nav.Vec3{X: 6, Y: 6, Z: -12}},
			{ID: "well", Min: nav.Vec3{X: 14, Y: -1, Z: 14}, Max: nav.Vec3{X: 18, Y: 3, Z: 18}},
		},
		Spawns: []Spawn{
			{Name: "plaza", Pos: nav.Vec3{X: 0, Y: 0, Z: 0}},
			{Name: "gate", Pos: nav.Vec3{X: -40, Y: 0, Z: 40}},
		},
	}
}

func (l Layout) Validate() error {
	b := l.Bounds
	if !(b.Min.X < b.Max.X && b.Min.Y < b.Max.Y && b.Min.Z < b.Max.Z) {
		return fmt.Errorf("world layout: degenerate bounds %v", b)
	}
	seen := map[string]bool{}
	for _, o := range l.Obstacles {
		if o.ID == "" {
			return fmt.Errorf("world layout: obstacle with empty id")
		}
		if seen[o.ID] {
			return fmt.Errorf("world layout: duplicate obstacle id %q", o.ID)
		}
		seen[o.ID] = true
	}
	return nil
}

// ObstacleStore builds the navigation obstacle set from the layout.
func (l Layout) ObstacleStore() *nav.ObstacleStore {
	s := nav.NewObstacleStore()
	for _, o := range l.Obstacles {
		s.Add(o)
	}
	return s
}

// SpawnFor deterministically assigns a spawn point to an agent id: the
// plaza-style rotation keeps joins spread without any runtime randomness.
func (l Layout) SpawnFor(ord int) nav.Vec3 {
	if len(l.Spawns) == 0 {
		return nav.Vec3{}
	}
	return l.Spawns[ord%len(l.Spawns)].Pos
}
