// Package physics resolves actor penetration into wall boxes.
package physics

import "github.com/kasuganosora/neonmaze/game/geom"

const (
	// SafetyMargin is added to the actor radius when testing containment.
	SafetyMargin = 0.1
	// Buffer is the extra clearance left after a push-out.
	Buffer = 0.2
)

// Resolve pushes pos out of every wall whose box, grown by radius plus the
// safety margin, contains it. The push is radial in XZ from the wall centre
// to halfSize+radius+margin+buffer, where halfSize is the wall's larger
// horizontal half extent. Walls are visited once, in order; a later push may
// undo an earlier one in a tight corner. A position exactly over a wall
// centre has no push direction and is left alone.
func Resolve(pos geom.Vec3, radius float64, walls []geom.Box) geom.Vec3 {
	reach := radius + SafetyMargin
	for _, w := range walls {
		if !w.Expand(reach).Contains(pos) {
			continue
		}
		dir, ok := pos.Sub(w.Center).Flat().Normalize()
		if !ok {
			continue
		}
		d := w.HorizontalHalf() + reach + Buffer
		pos.X = w.Center.X + dir.X*d
		pos.Z = w.Center.Z + dir.Z*d
	}
	return pos
}

// SettlePasses bounds how many Resolve passes Settle runs.
const SettlePasses = 4

// Settle runs Resolve until pos is clear of every wall, at most SettlePasses
// times. A junction where the radial pushes keep handing pos from one wall to
// its neighbour is given up on and fallback is returned instead. The result
// is clear whenever fallback is.
func Settle(pos, fallback geom.Vec3, radius float64, walls []geom.Box) geom.Vec3 {
	for i := 0; i < SettlePasses; i++ {
		if !Penetrating(pos, radius, walls) {
			return pos
		}
		pos = Resolve(pos, radius, walls)
	}
	if !Penetrating(pos, radius, walls) {
		return pos
	}
	return fallback
}

// Penetrating reports whether pos is inside any wall grown by radius plus the
// safety margin.
func Penetrating(pos geom.Vec3, radius float64, walls []geom.Box) bool {
	reach := radius + SafetyMargin
	for _, w := range walls {
		if w.Expand(reach).Contains(pos) {
			return true
		}
	}
	return false
}

// Overlapping returns the walls that intersect box.
func Overlapping(box geom.Box, walls []geom.Box) []geom.Box {
	var hits []geom.Box
	for _, w := range walls {
		if w.Intersects(box) {
			hits = append(hits, w)
		}
	}
	return hits
}
