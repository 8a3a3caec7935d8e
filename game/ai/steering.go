package ai

import "github.com/kasuganosora/neonmaze/game/geom"

// SteerToward returns a horizontal velocity of the given speed pointing from
// pos to goal, or zero when they coincide.
func SteerToward(pos, goal geom.Vec3, speed float64) geom.Vec3 {
	dir, ok := goal.Sub(pos).Flat().Normalize()
	if !ok {
		return geom.Vec3{}
	}
	return dir.Scale(speed)
}

// RandomWaypoint picks a point in [-bound, bound] on X and Z at height y.
func RandomWaypoint(r interface{ Float64() float64 }, bound, y float64) geom.Vec3 {
	return geom.Vec3{
		X: (r.Float64() - 0.5) * bound * 2,
		Y: y,
		Z: (r.Float64() - 0.5) * bound * 2,
	}
}
