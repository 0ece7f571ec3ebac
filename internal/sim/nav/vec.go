package nav

import "math"

// Vec3 is a single-precision world-space coordinate. All simulation state
// uses float32 so digests and snapshots are bit-exact across runs.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Len() float32 {
	return float32(math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y) + float64(v.Z)*float64(v.Z)))
}

func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

// Normalized returns the unit vector, or the zero vector for zero input.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) ToArray() [3]float32 { return [3]float32{v.X, v.Y, v.Z} }

func FromArray(a [3]float32) Vec3 { return Vec3{a[0], a[1], a[2]} }

func Dist(a, b Vec3) float32 { return a.Sub(b).Len() }

func Dot(a, b Vec3) float32 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// Bounds is the axis-aligned playable volume of the world.
type Bounds struct {
	Min Vec3 `json:"min" yaml:"min"`
	Max Vec3 `json:"max" yaml:"max"`
}

func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Clamp snaps p onto the nearest point inside the bounds. NaN components are
// coerced to the low corner so malformed external input cannot poison state.
func (b Bounds) Clamp(p Vec3) Vec3 {
	return Vec3{
		X: clampAxis(p.X, b.Min.X, b.Max.X),
		Y: clampAxis(p.Y, b.Min.Y, b.Max.Y),
		Z: clampAxis(p.Z, b.Min.Z, b.Max.Z),
	}
}

func clampAxis(v, lo, hi float32) float32 {
	if math.IsNaN(float64(v)) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
