// Package geom holds the small amount of 3D math the simulation needs:
// vectors in world units and axis-aligned boxes.
package geom

import "math"

// Epsilon is the length below which a vector is treated as degenerate.
const Epsilon = 0.001

// Vec3 is a point or direction in world space. Y is up; the maze lies in XZ.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

func V(x, y, z float64) Vec3 { return Vec3{x, y, z} }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func (a Vec3) Len() float64 { return math.Sqrt(a.Dot(a)) }

// Dist returns the euclidean distance between a and b.
func (a Vec3) Dist(b Vec3) float64 { return a.Sub(b).Len() }

// Flat drops the vertical component.
func (a Vec3) Flat() Vec3 { return Vec3{a.X, 0, a.Z} }

// Normalize returns the unit vector along a. ok is false when a is shorter
// than Epsilon, in which case the zero vector is returned.
func (a Vec3) Normalize() (Vec3, bool) {
	l := a.Len()
	if l <= Epsilon {
		return Vec3{}, false
	}
	return a.Scale(1 / l), true
}

// Lerp moves a toward b by factor t.
func (a Vec3) Lerp(b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Scale(t))
}

// Heading returns the yaw of a horizontal direction, measured so that +Z is 0.
func (a Vec3) Heading() float64 { return math.Atan2(a.X, a.Z) }

// AngleBetween returns the unsigned angle between a and b in radians.
// Zero-length inputs yield 0.
func AngleBetween(a, b Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la <= Epsilon || lb <= Epsilon {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
