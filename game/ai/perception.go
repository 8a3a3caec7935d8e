package ai

import "github.com/kasuganosora/neonmaze/game/geom"

// OcclusionTolerance lets a target standing against a wall stay visible: a
// wall only blocks if the ray meets it this much closer than the target.
const OcclusionTolerance = 0.5

// Vision is a forward cone with a maximum range.
type Vision struct {
	Range float64
	// Angle is the full cone width in radians.
	Angle float64
}

// CanSee reports whether a viewer at from, facing forward, sees to. Range is
// checked in 3D, the cone in the horizontal plane, and occlusion with a ray
// against walls. A target at the viewer's own position is visible.
func (v Vision) CanSee(from, forward, to geom.Vec3, walls []geom.Box) bool {
	delta := to.Sub(from)
	dist := delta.Len()
	if dist > v.Range {
		return false
	}
	if dist <= geom.Epsilon {
		return true
	}
	if geom.AngleBetween(forward.Flat(), delta.Flat()) > v.Angle/2 {
		return false
	}
	return !Occluded(from, to, walls)
}

// Occluded casts a ray from from to to and reports whether any wall is hit
// strictly before dist-OcclusionTolerance.
func Occluded(from, to geom.Vec3, walls []geom.Box) bool {
	dir, ok := to.Sub(from).Normalize()
	if !ok {
		return false
	}
	limit := from.Dist(to) - OcclusionTolerance
	for _, w := range walls {
		if d, hit := w.RayDistance(from, dir); hit && d < limit {
			return true
		}
	}
	return false
}
