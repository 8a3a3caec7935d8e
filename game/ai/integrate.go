package ai

import (
	"math"
	"time"

	"github.com/kasuganosora/neonmaze/game/geom"
	"github.com/kasuganosora/neonmaze/game/physics"
)

// Body describes how a seeker moves through the walls.
type Body struct {
	Radius float64
	// Deflection is the speed, in units per second, added away from a wall the
	// seeker runs into.
	Deflection float64
	// Bound is the playable half extent.
	Bound float64
}

// Integrate moves pos by vel*dt. The seeker's footprint is a cube of side
// 2*Radius around the projected position. When it meets a wall, vel is nudged
// along the normal of the face it ran into. The deflected step is then tried
// whole, then along each axis, then sideways at right angles to the original
// heading. Each attempt that still hits a wall is retried once with its
// into-wall components removed, so the seeker slides along faces and works
// its way out of corners. If nothing is free the seeker stays put. The
// returned velocity carries the deflection.
func Integrate(b Body, pos, vel geom.Vec3, dt time.Duration, walls []geom.Box) (geom.Vec3, geom.Vec3) {
	sec := dt.Seconds()
	if sec <= 0 {
		return pos, vel
	}

	orig := vel.Scale(sec)
	next := pos.Add(orig)
	hit, blocked := b.firstHit(next, walls)
	if blocked {
		vel = vel.Add(b.faceNormal(pos, hit).Scale(b.Deflection))
		d := vel.Scale(sec)
		side := geom.Vec3{X: -orig.Z, Z: orig.X}
		next = pos
		for _, try := range []geom.Vec3{d, {X: d.X}, {Z: d.Z}, side, side.Scale(-1)} {
			if cand, ok := b.slide(pos, try, walls); ok {
				next = cand
				break
			}
		}
	}

	next.X = geom.Clamp(next.X, -b.Bound, b.Bound)
	next.Z = geom.Clamp(next.Z, -b.Bound, b.Bound)
	return next, vel
}

// slide tries pos+d. If that hits walls, the components of d pointing into
// any of the hit faces are dropped and the remainder is tried once.
func (b Body) slide(pos, d geom.Vec3, walls []geom.Box) (geom.Vec3, bool) {
	if d.Flat().Len() < geom.Epsilon {
		return pos, false
	}
	hits := physics.Overlapping(b.footprint(pos.Add(d)), walls)
	if len(hits) == 0 {
		return pos.Add(d), true
	}
	for _, h := range hits {
		n := b.faceNormal(pos, h)
		if d.X*n.X < 0 {
			d.X = 0
		}
		if d.Z*n.Z < 0 {
			d.Z = 0
		}
	}
	if d.Flat().Len() < geom.Epsilon {
		return pos, false
	}
	if len(physics.Overlapping(b.footprint(pos.Add(d)), walls)) > 0 {
		return pos, false
	}
	return pos.Add(d), true
}

// faceNormal is the outward normal of the side of w facing pos. The side is
// the horizontal axis along which pos lies furthest out, measured against
// w's half extents grown by the seeker radius.
func (b Body) faceNormal(pos geom.Vec3, w geom.Box) geom.Vec3 {
	d := pos.Sub(w.Center)
	ex := math.Abs(d.X) / (w.Half.X + b.Radius)
	ez := math.Abs(d.Z) / (w.Half.Z + b.Radius)
	if ex >= ez {
		return geom.Vec3{X: math.Copysign(1, d.X)}
	}
	return geom.Vec3{Z: math.Copysign(1, d.Z)}
}

func (b Body) footprint(at geom.Vec3) geom.Box {
	return geom.Box{Center: at, Half: geom.Vec3{X: b.Radius, Y: b.Radius, Z: b.Radius}}
}

func (b Body) firstHit(at geom.Vec3, walls []geom.Box) (geom.Box, bool) {
	hits := physics.Overlapping(b.footprint(at), walls)
	if len(hits) == 0 {
		return geom.Box{}, false
	}
	return hits[0], true
}
