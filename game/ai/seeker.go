package ai

import (
	"math"
	"time"

	"github.com/kasuganosora/neonmaze/game/events"
	"github.com/kasuganosora/neonmaze/game/geom"
	"github.com/kasuganosora/neonmaze/game/timer"
)

// Config holds the seeker tuning.
type Config struct {
	Radius      float64
	Speed       float64
	ChaseSpeed  float64
	VisionRange float64
	// VisionAngle is the full cone width in radians.
	VisionAngle float64

	WaypointDuration time.Duration
	ChaseGrace       time.Duration
	ArrivalDistance  float64
	// WaypointBound limits random waypoints to [-WaypointBound, WaypointBound].
	WaypointBound float64

	HearingRange float64
	// HearingRate is the chance per second of hearing a target inside
	// HearingRange while patrolling.
	HearingRate     float64
	HearingDuration time.Duration

	Deflection float64
	Bound      float64
}

func DefaultConfig() Config {
	half := 25 * 3.0 / 2
	return Config{
		Radius:           0.7,
		Speed:            15.6,
		ChaseSpeed:       15.6,
		VisionRange:      20,
		VisionAngle:      math.Pi / 3,
		WaypointDuration: 5 * time.Second,
		ChaseGrace:       2 * time.Second,
		ArrivalDistance:  2,
		WaypointBound:    half - 3,
		HearingRange:     10,
		HearingRate:      10,
		HearingDuration:  3 * time.Second,
		Deflection:       6,
		Bound:            half - 1,
	}
}

// Seeker is the pursuing actor. Only Tick moves it.
type Seeker struct {
	id   string
	cfg  Config
	sink events.Sink
	tree *BehaviorTree

	position geom.Vec3
	velocity geom.Vec3
	heading  float64
	state    SeekerState

	waypoint      *geom.Vec3
	waypointTimer timer.Countdown
	lastKnown     *geom.Vec3
	unseen        timer.Accumulator
}

// NewSeeker creates a patrolling seeker at spawn.
func NewSeeker(id string, cfg Config, sink events.Sink) *Seeker {
	s := &Seeker{id: id, cfg: cfg, sink: events.OrNop(sink)}
	s.tree = newPursuitTree()
	return s.reset(geom.Vec3{})
}

func (s *Seeker) reset(spawn geom.Vec3) *Seeker {
	s.position = spawn
	s.velocity = geom.Vec3{}
	s.heading = 0
	s.state = StatePatrol
	s.waypoint = nil
	s.waypointTimer.Stop()
	s.lastKnown = nil
	s.unseen.Reset()
	return s
}

// Reset puts the seeker back on patrol at spawn.
func (s *Seeker) Reset(spawn geom.Vec3) { s.reset(spawn) }

func (s *Seeker) ID() string { return s.id }

func (s *Seeker) Position() geom.Vec3 { return s.position }

// Velocity is in units per second.
func (s *Seeker) Velocity() geom.Vec3 { return s.velocity }

func (s *Seeker) Radius() float64 { return s.cfg.Radius }

func (s *Seeker) State() SeekerState { return s.state }

// Rotation is the yaw of the last non-zero velocity, atan2(vx, vz).
func (s *Seeker) Rotation() float64 { return s.heading }

// Forward is the unit vector matching Rotation.
func (s *Seeker) Forward() geom.Vec3 {
	return geom.Vec3{X: math.Sin(s.heading), Z: math.Cos(s.heading)}
}

// Face turns the seeker without moving it.
func (s *Seeker) Face(dir geom.Vec3) {
	if dir.Flat().Len() > geom.Epsilon {
		s.heading = dir.Heading()
	}
}

// Waypoint returns the active patrol waypoint, if any.
func (s *Seeker) Waypoint() (geom.Vec3, bool) {
	if s.waypoint == nil {
		return geom.Vec3{}, false
	}
	return *s.waypoint, true
}

// LastKnown returns where the target was last seen, if ever.
func (s *Seeker) LastKnown() (geom.Vec3, bool) {
	if s.lastKnown == nil {
		return geom.Vec3{}, false
	}
	return *s.lastKnown, true
}

func (s *Seeker) Vision() Vision {
	return Vision{Range: s.cfg.VisionRange, Angle: s.cfg.VisionAngle}
}

func (s *Seeker) Body() Body {
	return Body{Radius: s.cfg.Radius, Deflection: s.cfg.Deflection, Bound: s.cfg.Bound}
}

// CanSee runs perception against the target from the seeker's current pose.
func (s *Seeker) CanSee(target geom.Vec3, walls []geom.Box) bool {
	return s.Vision().CanSee(s.position, s.Forward(), target, walls)
}

// Tick runs perception, the decision tree and movement for one frame.
// ctx.Seeker is set to s.
func (s *Seeker) Tick(ctx *AIContext) {
	if ctx.Delta <= 0 {
		return
	}
	ctx.Seeker = s
	ctx.Visible = s.CanSee(ctx.Target.Position, ctx.Walls)
	s.tree.Tick(ctx)

	s.position, s.velocity = Integrate(s.Body(), s.position, s.velocity, ctx.Delta, ctx.Walls)
	s.Face(s.velocity)
}

// Caught reports whether the target touches the seeker.
func (s *Seeker) Caught(t Target) bool {
	return Caught(s.position, t.Position, s.cfg.Radius, t.Radius)
}

// Caught reports whether two spheres overlap.
func Caught(a, b geom.Vec3, ra, rb float64) bool {
	return a.Dist(b) < ra+rb
}

func (s *Seeker) setState(st SeekerState, target string) {
	if s.state == st {
		return
	}
	s.state = st
	s.sink.Emit(events.Event{
		Kind:   events.SeekerStateChanged,
		Actor:  s.id,
		Target: target,
		State:  st.String(),
	})
}

func (s *Seeker) setWaypoint(p geom.Vec3, d time.Duration) {
	p.Y = s.position.Y
	s.waypoint = &p
	s.waypointTimer.Start(d)
}

// newPursuitTree wires the decisions:
//
//	target visible      -> chase, remember where it was
//	chasing, not seen   -> keep chasing until the grace period runs out,
//	                       then patrol from the last known position
//	otherwise           -> maybe hear the target, then patrol
func newPursuitTree() *BehaviorTree {
	return &BehaviorTree{Root: &Selector{Children: []Node{
		&Sequence{Children: []Node{
			Condition(func(ctx *AIContext) bool { return ctx.Visible }),
			Action(engage),
		}},
		&Sequence{Children: []Node{
			Condition(func(ctx *AIContext) bool { return ctx.Seeker.state == StateChase }),
			Action(pursueUnseen),
		}},
		&Sequence{Children: []Node{
			&Succeeder{Child: Action(listen)},
			Action(patrol),
		}},
	}}}
}

func engage(ctx *AIContext) Status {
	s := ctx.Seeker
	s.setState(StateChase, ctx.Target.ID)
	s.unseen.Reset()
	seen := ctx.Target.Position
	s.lastKnown = &seen
	s.velocity = SteerToward(s.position, ctx.Target.Position, s.cfg.ChaseSpeed)
	return StatusSuccess
}

func pursueUnseen(ctx *AIContext) Status {
	s := ctx.Seeker
	if s.unseen.Add(ctx.Delta) < s.cfg.ChaseGrace {
		s.velocity = SteerToward(s.position, ctx.Target.Position, s.cfg.ChaseSpeed)
		return StatusSuccess
	}
	s.unseen.Reset()
	s.setState(StatePatrol, ctx.Target.ID)
	if s.lastKnown != nil {
		s.setWaypoint(*s.lastKnown, s.cfg.WaypointDuration)
	}
	return patrol(ctx)
}

func listen(ctx *AIContext) Status {
	s := ctx.Seeker
	if s.position.Flat().Dist(ctx.Target.Position.Flat()) >= s.cfg.HearingRange {
		return StatusFailure
	}
	p := math.Min(1, s.cfg.HearingRate*ctx.Delta.Seconds())
	if ctx.Rand == nil || ctx.Rand.Float64() >= p {
		return StatusFailure
	}
	s.setWaypoint(ctx.Target.Position, s.cfg.HearingDuration)
	return StatusSuccess
}

func patrol(ctx *AIContext) Status {
	s := ctx.Seeker
	if s.waypoint == nil || !s.waypointTimer.Active() {
		if ctx.Rand == nil {
			s.velocity = geom.Vec3{}
			return StatusFailure
		}
		s.setWaypoint(RandomWaypoint(ctx.Rand, s.cfg.WaypointBound, s.position.Y), s.cfg.WaypointDuration)
	}
	s.waypointTimer.Tick(ctx.Delta)

	if s.position.Flat().Dist(s.waypoint.Flat()) < s.cfg.ArrivalDistance {
		s.waypoint = nil
		s.velocity = geom.Vec3{}
		return StatusSuccess
	}
	s.velocity = SteerToward(s.position, *s.waypoint, s.cfg.Speed)
	return StatusSuccess
}
