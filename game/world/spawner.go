package world

import (
	"github.com/kasuganosora/neonmaze/game/geom"
	"github.com/kasuganosora/neonmaze/game/maze"
	"github.com/kasuganosora/neonmaze/game/rng"
)

// maxSpawnRolls bounds the re-rolls for a seeker spawn that lands too close
// to the player.
const maxSpawnRolls = 32

// Spawner picks spawn points on the maze's near-corner cells.
type Spawner struct {
	size        int
	cellSize    float64
	minDistance float64
	rand        rng.Source
}

func NewSpawner(size int, cellSize, minDistance float64, r rng.Source) *Spawner {
	return &Spawner{size: size, cellSize: cellSize, minDistance: minDistance, rand: r}
}

// PlayerSpawn returns a random edge position.
func (sp *Spawner) PlayerSpawn() geom.Vec3 {
	return maze.RandomEdgePosition(sp.size, sp.cellSize, sp.rand)
}

// SeekerSpawns returns n edge positions, each re-rolled until it is at least
// minDistance from player. After maxSpawnRolls the last roll is kept.
func (sp *Spawner) SeekerSpawns(n int, player geom.Vec3) []geom.Vec3 {
	out := make([]geom.Vec3, n)
	for i := range out {
		p := maze.RandomEdgePosition(sp.size, sp.cellSize, sp.rand)
		for roll := 1; roll < maxSpawnRolls && p.Dist(player) < sp.minDistance; roll++ {
			p = maze.RandomEdgePosition(sp.size, sp.cellSize, sp.rand)
		}
		out[i] = p
	}
	return out
}
