// Package movement drives the local player: input intent, sprint energy,
// jumping under gravity, wall push-out, smoothing and boundary clamping.
package movement

import (
	"math"
	"time"

	"github.com/kasuganosora/neonmaze/game/events"
	"github.com/kasuganosora/neonmaze/game/geom"
	"github.com/kasuganosora/neonmaze/game/physics"
	"github.com/kasuganosora/neonmaze/game/timer"
)

// Config holds the player tuning.
type Config struct {
	Height           float64
	Speed            float64
	SprintMultiplier float64
	SprintDuration   time.Duration
	SprintRecovery   time.Duration
	Radius           float64
	JumpForce        float64
	Gravity          float64
	// Smoothing is the share of this tick's horizontal displacement that is
	// actually applied.
	Smoothing float64
	// Bound is the playable half extent; X and Z are clamped to [-Bound, Bound].
	Bound float64
}

func DefaultConfig() Config {
	return Config{
		Height:           1.8,
		Speed:            12,
		SprintMultiplier: 1.3,
		SprintDuration:   5 * time.Second,
		SprintRecovery:   8 * time.Second,
		Radius:           0.35,
		JumpForce:        8,
		Gravity:          25,
		Smoothing:        0.3,
		Bound:            25*3.0/2 - 1,
	}
}

// MaxSprint is the top of the sprint energy scale.
const MaxSprint = 100.0

// maxPitch keeps the look direction off the poles.
const maxPitch = math.Pi/2 - 0.01

// Input is the intent read once per tick.
type Input struct {
	Forward  bool    `json:"f" msgpack:"f"`
	Backward bool    `json:"b" msgpack:"b"`
	Left     bool    `json:"l" msgpack:"l"`
	Right    bool    `json:"r" msgpack:"r"`
	Sprint   bool    `json:"sp" msgpack:"sp"`
	Jump     bool    `json:"j" msgpack:"j"`
	Yaw      float64 `json:"yaw" msgpack:"yaw"`
	Pitch    float64 `json:"pitch" msgpack:"pitch"`
}

// Moving reports whether any direction flag is set.
func (in Input) Moving() bool {
	return in.Forward || in.Backward || in.Left || in.Right
}

// Controller owns the player's position. Nothing else writes it.
type Controller struct {
	id    string
	cfg   Config
	walls []geom.Box
	sink  events.Sink

	position geom.Vec3
	velocity geom.Vec3
	vertical float64
	grounded bool
	yaw      float64
	pitch    float64

	sprint    *timer.Meter
	sprinting bool
}

// New places a controller at the origin at standing height. walls is shared
// and must not be modified afterwards.
func New(id string, cfg Config, walls []geom.Box, sink events.Sink) *Controller {
	c := &Controller{
		id:     id,
		cfg:    cfg,
		walls:  walls,
		sink:   events.OrNop(sink),
		sprint: timer.NewMeter(MaxSprint, cfg.SprintDuration, cfg.SprintRecovery),
	}
	c.Reset(geom.Vec3{})
	return c
}

// Reset moves the player to spawn at standing height and clears motion.
func (c *Controller) Reset(spawn geom.Vec3) {
	c.position = geom.Vec3{X: spawn.X, Y: c.cfg.Height, Z: spawn.Z}
	c.velocity = geom.Vec3{}
	c.vertical = 0
	c.grounded = true
	c.sprinting = false
	c.sprint.Set(MaxSprint)
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) Position() geom.Vec3 { return c.position }

// Velocity is the horizontal velocity of the last tick in units per second.
func (c *Controller) Velocity() geom.Vec3 { return c.velocity }

func (c *Controller) Radius() float64 { return c.cfg.Radius }

// Yaw is the look heading; 0 looks down -Z.
func (c *Controller) Yaw() float64 { return c.yaw }

func (c *Controller) Pitch() float64 { return c.pitch }

func (c *Controller) Grounded() bool { return c.grounded }

func (c *Controller) Sprinting() bool { return c.sprinting }

// SprintFraction is the sprint energy in [0,1].
func (c *Controller) SprintFraction() float64 { return c.sprint.Fraction() }

// SprintEnergy is the sprint energy in [0,100].
func (c *Controller) SprintEnergy() float64 { return c.sprint.Value() }

// Forward is the horizontal unit vector the player faces.
func (c *Controller) Forward() geom.Vec3 {
	return geom.Vec3{X: -math.Sin(c.yaw), Z: -math.Cos(c.yaw)}
}

func (c *Controller) right() geom.Vec3 {
	return geom.Vec3{X: math.Cos(c.yaw), Z: -math.Sin(c.yaw)}
}

// Tick advances the player by dt.
func (c *Controller) Tick(dt time.Duration, in Input) {
	if dt <= 0 {
		return
	}
	sec := dt.Seconds()

	c.yaw = in.Yaw
	c.pitch = geom.Clamp(in.Pitch, -maxPitch, maxPitch)

	before := c.sprint.Value()
	wantsSprint := in.Sprint && in.Moving()
	if wantsSprint && !c.sprint.Empty() {
		c.sprint.Drain(dt)
	} else {
		c.sprint.Recover(dt)
	}
	sprinting := wantsSprint && !c.sprint.Empty()
	if sprinting != c.sprinting || before != c.sprint.Value() {
		c.sprinting = sprinting
		c.sink.Emit(events.Event{
			Kind:   events.SprintChanged,
			Actor:  c.id,
			Value:  c.sprint.Fraction(),
			Active: sprinting,
		})
	}

	if in.Jump && c.grounded {
		c.vertical = c.cfg.JumpForce
		c.grounded = false
	}

	start := c.position

	fwd, side := 0.0, 0.0
	if in.Forward {
		fwd++
	}
	if in.Backward {
		fwd--
	}
	if in.Right {
		side++
	}
	if in.Left {
		side--
	}
	dir, moving := c.Forward().Scale(fwd).Add(c.right().Scale(side)).Normalize()

	pos := c.position
	if moving {
		speed := c.cfg.Speed
		if sprinting {
			speed *= c.cfg.SprintMultiplier
		}
		pos = pos.Add(dir.Scale(speed * sec))
	}

	// collision is tested at body centre height
	body := geom.Vec3{X: pos.X, Y: c.cfg.Height / 2, Z: pos.Z}
	body = physics.Resolve(body, c.cfg.Radius, c.walls)
	pos.X, pos.Z = body.X, body.Z

	c.vertical -= c.cfg.Gravity * sec
	pos.Y += c.vertical * sec
	if pos.Y <= c.cfg.Height {
		pos.Y = c.cfg.Height
		c.vertical = 0
		c.grounded = true
	}

	pos.X = start.X + (pos.X-start.X)*c.cfg.Smoothing
	pos.Z = start.Z + (pos.Z-start.Z)*c.cfg.Smoothing

	// smoothing can pull a pushed-out position back into a wall, and one
	// radial pass can push into the perpendicular wall of a junction
	body = geom.Vec3{X: pos.X, Y: c.cfg.Height / 2, Z: pos.Z}
	body = physics.Settle(body, geom.Vec3{X: start.X, Y: body.Y, Z: start.Z}, c.cfg.Radius, c.walls)
	pos.X, pos.Z = body.X, body.Z

	pos.X = geom.Clamp(pos.X, -c.cfg.Bound, c.cfg.Bound)
	pos.Z = geom.Clamp(pos.Z, -c.cfg.Bound, c.cfg.Bound)

	c.velocity = pos.Sub(start).Flat().Scale(1 / sec)
	c.position = pos
}
