package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/neonmaze/game/ability"
	"github.com/kasuganosora/neonmaze/game/ai"
	"github.com/kasuganosora/neonmaze/game/events"
	"github.com/kasuganosora/neonmaze/game/geom"
	"github.com/kasuganosora/neonmaze/game/maze"
	"github.com/kasuganosora/neonmaze/game/movement"
	"github.com/kasuganosora/neonmaze/game/rng"
	"github.com/kasuganosora/neonmaze/game/timer"
)

var ErrRoundOver = errors.New("world: round is over")

// PlayerActor is the actor id of the hiding player in a single-player round.
const PlayerActor = "player"

// Outcome is how a round ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSurvived
	OutcomeCaught
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSurvived:
		return "survived"
	case OutcomeCaught:
		return "caught"
	}
	return ""
}

// ActorState is one actor's pose for the renderer.
type ActorState struct {
	ID       string    `json:"id"`
	Position geom.Vec3 `json:"position"`
	Rotation float64   `json:"rotation"`
	State    string    `json:"state,omitempty"`
}

// Snapshot is the per-tick view handed to the rendering collaborator.
// Durations are in seconds.
type Snapshot struct {
	Tick          uint64       `json:"tick"`
	Player        ActorState   `json:"player"`
	Sprint        float64      `json:"sprint"`
	Ability       float64      `json:"ability"`
	AbilityActive bool         `json:"ability_active"`
	Grounded      bool         `json:"grounded"`
	Seekers       []ActorState `json:"seekers"`
	SeekersActive bool         `json:"seekers_active"`
	SpawnIn       float64      `json:"spawn_in"`
	Remaining     float64      `json:"remaining"`
	Outcome       string       `json:"outcome,omitempty"`
}

// Session is one single-player round: a maze, the player and the seekers.
// It is not safe for concurrent use; one goroutine drives Tick.
type Session struct {
	cfg     Config
	rand    rng.Source
	sink    events.Sink
	grid    *maze.Grid
	walls   []geom.Box
	spawner *Spawner

	player  *movement.Controller
	aura    *ability.Aura
	seekers []*ai.Seeker

	hunting    bool
	spawnDelay timer.Countdown
	clock      timer.Countdown
	elapsed    time.Duration
	ticks      uint64
	outcome    Outcome
	caughtBy   string
}

// NewSession generates the maze and places every actor. A generation error
// means the maze config is unusable.
func NewSession(cfg Config, r rng.Source, sink events.Sink) (*Session, error) {
	grid, err := maze.Generate(cfg.Maze, r)
	if err != nil {
		return nil, fmt.Errorf("world: generate maze: %w", err)
	}
	sink = events.OrNop(sink)
	walls := maze.BuildWalls(grid, cfg.Walls)
	s := &Session{
		cfg:     cfg,
		rand:    r,
		sink:    sink,
		grid:    grid,
		walls:   walls,
		spawner: NewSpawner(cfg.Maze.Size, cfg.Maze.CellSize, cfg.SeekerMinSpawnDistance, r),
		player:  movement.New(PlayerActor, cfg.Player, walls, sink),
		aura:    ability.NewAura(PlayerActor, cfg.Ability, sink),
	}
	for i := 0; i < cfg.SeekerCount; i++ {
		s.seekers = append(s.seekers, ai.NewSeeker(fmt.Sprintf("seeker-%d", i+1), cfg.Seeker, sink))
	}
	s.Reset()
	return s, nil
}

// Reset starts the round over on the same maze with fresh spawn points.
func (s *Session) Reset() {
	spawn := s.spawner.PlayerSpawn()
	s.player.Reset(spawn)
	s.aura.Reset()
	for i, p := range s.spawner.SeekerSpawns(len(s.seekers), spawn) {
		s.seekers[i].Reset(p)
	}
	s.hunting = false
	s.elapsed = 0
	s.ticks = 0
	s.outcome = OutcomeNone
	s.caughtBy = ""
	s.clock.Start(s.cfg.RoundDuration)
	s.spawnDelay.Start(s.cfg.SeekerSpawnDelay)
	if !s.spawnDelay.Active() {
		s.releaseSeekers()
	}
}

// Tick advances the round by dt and returns the outcome so far. Once the
// round is over Tick does nothing.
func (s *Session) Tick(dt time.Duration, in movement.Input) Outcome {
	if s.outcome != OutcomeNone || dt <= 0 {
		return s.outcome
	}
	s.ticks++
	s.elapsed += dt

	// seekers chase where the player was when the tick began
	prev := s.target()
	s.player.Tick(dt, in)
	s.aura.Tick(dt)

	if !s.hunting && s.spawnDelay.Tick(dt) {
		s.releaseSeekers()
	}
	if s.hunting {
		for _, sk := range s.seekers {
			sk.Tick(&ai.AIContext{Target: prev, Walls: s.walls, Rand: s.rand, Delta: dt})
		}
		settled := s.target()
		for _, sk := range s.seekers {
			if sk.Caught(settled) {
				s.caughtBy = sk.ID()
				s.sink.Emit(events.Event{Kind: events.Caught, Actor: sk.ID(), Target: settled.ID})
				s.finish(OutcomeCaught)
				return s.outcome
			}
		}
	}

	if s.clock.Tick(dt) {
		s.finish(OutcomeSurvived)
	}
	return s.outcome
}

// UseAbility activates the player's aura. It fails while the aura cools
// down or once the round is over.
func (s *Session) UseAbility() error {
	if s.outcome != OutcomeNone {
		return ErrRoundOver
	}
	return s.aura.Activate()
}

func (s *Session) target() ai.Target {
	return ai.Target{ID: s.player.ID(), Position: s.player.Position(), Radius: s.player.Radius()}
}

func (s *Session) releaseSeekers() {
	s.hunting = true
	for _, sk := range s.seekers {
		s.sink.Emit(events.Event{Kind: events.SeekerSpawned, Actor: sk.ID()})
	}
}

func (s *Session) finish(o Outcome) {
	s.outcome = o
	s.sink.Emit(events.Event{Kind: events.RoundEnded, Actor: s.player.ID(), Target: s.caughtBy, State: o.String()})
}

func (s *Session) Grid() *maze.Grid { return s.grid }

// Walls is shared read-only with every actor; callers must not modify it.
func (s *Session) Walls() []geom.Box { return s.walls }

func (s *Session) Player() *movement.Controller { return s.player }

func (s *Session) Seekers() []*ai.Seeker { return s.seekers }

func (s *Session) Aura() *ability.Aura { return s.aura }

// Hunting reports whether the seekers have been released.
func (s *Session) Hunting() bool { return s.hunting }

func (s *Session) Outcome() Outcome { return s.outcome }

// CaughtBy is the id of the seeker that ended the round, if any.
func (s *Session) CaughtBy() string { return s.caughtBy }

func (s *Session) Elapsed() time.Duration { return s.elapsed }

func (s *Session) Remaining() time.Duration { return s.clock.Remaining() }

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Tick: s.ticks,
		Player: ActorState{
			ID:       s.player.ID(),
			Position: s.player.Position(),
			Rotation: s.player.Yaw(),
		},
		Sprint:        s.player.SprintFraction(),
		Ability:       s.aura.CooldownFraction(),
		AbilityActive: s.aura.Active(),
		Grounded:      s.player.Grounded(),
		Seekers:       make([]ActorState, 0, len(s.seekers)),
		SeekersActive: s.hunting,
		SpawnIn:       s.spawnDelay.Remaining().Seconds(),
		Remaining:     s.clock.Remaining().Seconds(),
		Outcome:       s.outcome.String(),
	}
	for _, sk := range s.seekers {
		snap.Seekers = append(snap.Seekers, ActorState{
			ID:       sk.ID(),
			Position: sk.Position(),
			Rotation: sk.Rotation(),
			State:    sk.State().String(),
		})
	}
	return snap
}
