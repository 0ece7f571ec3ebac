package nav

import (
	"math"
	"testing"
)

func TestSeparationPushesAway(t *testing.T) {
	cfg := SeparationConfig{}
	nbs := []Neighbor{{ID: "other", Pos: Vec3{1, 0, 0}}}
	got := SeparationVector("self", Vec3{0, 0, 0}, nbs, cfg, 42)
	if got.X >= 0 {
		t.Fatalf("repulsion %v points toward the neighbor", got)
	}
	if math.Abs(float64(got.Len()-0.3)) > 1e-4 {
		t.Fatalf("magnitude %.4f, want the avoidance strength", got.Len())
	}
}

func TestSeparationIgnoresOutsideRadius(t *testing.T) {
	nbs := []Neighbor{{ID: "far", Pos: Vec3{5, 0, 0}}}
	got := SeparationVector("self", Vec3{0, 0, 0}, nbs, SeparationConfig{Radius: 2}, 42)
	if !got.IsZero() {
		t.Fatalf("neighbor beyond radius produced repulsion %v", got)
	}
}

func TestSeparationSkipsSelf(t *testing.T) {
	nbs := []Neighbor{{ID: "self", Pos: Vec3{0, 0, 0}}}
	got := SeparationVector("self", Vec3{0, 0, 0}, nbs, SeparationConfig{}, 42)
	if !got.IsZero() {
		t.Fatalf("agent repelled by its own index entry: %v", got)
	}
}

func TestSeparationCloserNeighborDominates(t *testing.T) {
	nbs := []Neighbor{
		{ID: "close", Pos: Vec3{0.5, 0, 0}},
		{ID: "far", Pos: Vec3{0, 0, -1.8}},
	}
	got := SeparationVector("self", Vec3{0, 0, 0}, nbs, SeparationConfig{}, 42)
	// Inverse-square weighting: the half-unit neighbor on +x outweighs
	// the distant one on -z.
	if math.Abs(float64(got.X)) <= math.Abs(float64(got.Z)) {
		t.Fatalf("close neighbor did not dominate: %v", got)
	}
	if got.X >= 0 {
		t.Fatalf("net repulsion %v points the wrong way", got)
	}
}

func TestSeparationCoincidentDeterministic(t *testing.T) {
	nbs := []Neighbor{{ID: "twin", Pos: Vec3{0, 0, 0}}}
	first := SeparationVector("self", Vec3{0, 0, 0}, nbs, SeparationConfig{}, 7)
	if first.IsZero() {
		t.Fatalf("coincident neighbors must still repel")
	}
	if first.Y != 0 {
		t.Fatalf("coincidence jitter left the horizontal plane: %v", first)
	}
	for i := 0; i < 5; i++ {
		got := SeparationVector("self", Vec3{0, 0, 0}, nbs, SeparationConfig{}, 7)
		if got != first {
			t.Fatalf("run %d jitter %v differs from first %v", i, got, first)
		}
	}
	// A different seed picks a different escape direction.
	other := SeparationVector("self", Vec3{0, 0, 0}, nbs, SeparationConfig{}, 8)
	if other == first {
		t.Fatalf("jitter ignores the world seed")
	}
}

func TestSeparationMinDistClampsBlowup(t *testing.T) {
	nbs := []Neighbor{{ID: "tight", Pos: Vec3{0.01, 0, 0}}}
	got := SeparationVector("self", Vec3{0, 0, 0}, nbs, SeparationConfig{}, 42)
	// The inverse-square term is clamped, and the sum is normalized
	// before scaling, so near-contact never produces a runaway vector.
	if math.Abs(float64(got.Len()-0.3)) > 1e-4 {
		t.Fatalf("clamped magnitude %.4f, want the avoidance strength", got.Len())
	}
}
