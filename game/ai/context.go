package ai

import (
	"time"

	"github.com/kasuganosora/neonmaze/game/geom"
	"github.com/kasuganosora/neonmaze/game/rng"
)

// AIContext is passed to every behavior tree node during a seeker tick.
type AIContext struct {
	Seeker *Seeker
	Target Target
	Walls  []geom.Box
	Rand   rng.Source
	Delta  time.Duration

	// Visible is the perception result for this tick, computed before the
	// tree runs.
	Visible bool
}

// SeekerState enumerates the pursuit states.
type SeekerState int

const (
	StatePatrol SeekerState = iota // wander between random waypoints
	StateChase                     // steer straight at the target
)

func (s SeekerState) String() string {
	switch s {
	case StatePatrol:
		return "patrol"
	case StateChase:
		return "chase"
	}
	return "unknown"
}

// Target is the settled, previous-tick view of the pursued actor.
type Target struct {
	ID       string
	Position geom.Vec3
	Radius   float64
}
