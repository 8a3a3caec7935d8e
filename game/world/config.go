package world

import (
	"time"

	"github.com/kasuganosora/neonmaze/game/ability"
	"github.com/kasuganosora/neonmaze/game/ai"
	"github.com/kasuganosora/neonmaze/game/maze"
	"github.com/kasuganosora/neonmaze/game/movement"
)

// Config bundles everything a single-player round needs.
type Config struct {
	Maze   maze.Config
	Walls  maze.WallConfig
	Player movement.Config
	Seeker ai.Config
	// Ability is the player's aura; while active the client draws seekers
	// through walls.
	Ability ability.Config

	SeekerCount            int
	SeekerSpawnDelay       time.Duration
	SeekerMinSpawnDistance float64
	RoundDuration          time.Duration
	TickInterval           time.Duration
}

func DefaultConfig() Config {
	return Config{
		Maze:                   maze.DefaultConfig(),
		Walls:                  maze.DefaultWallConfig(),
		Player:                 movement.DefaultConfig(),
		Seeker:                 ai.DefaultConfig(),
		Ability:                ability.DefaultConfig(),
		SeekerCount:            2,
		SeekerSpawnDelay:       10 * time.Second,
		SeekerMinSpawnDistance: 20,
		RoundDuration:          120 * time.Second,
		TickInterval:           50 * time.Millisecond,
	}.Derive()
}

// Derive recomputes the values that follow from the maze dimensions: the wall
// cell size and the actor bounds.
func (c Config) Derive() Config {
	c.Walls.CellSize = c.Maze.CellSize
	half := maze.HalfExtent(c.Maze.Size, c.Maze.CellSize)
	c.Player.Bound = half - 1
	c.Seeker.Bound = half - 1
	c.Seeker.WaypointBound = half - 3
	return c
}
