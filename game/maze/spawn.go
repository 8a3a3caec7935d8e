package maze

import (
	"github.com/kasuganosora/neonmaze/game/geom"
	"github.com/kasuganosora/neonmaze/game/rng"
)

// SpawnHeight is the y coordinate of every spawn point.
const SpawnHeight = 1.0

// EdgePositions returns the four spawn points, one near each corner, inset
// two cells from the edges.
func EdgePositions(size int, cellSize float64) [4]geom.Vec3 {
	lo, hi := 2, size-3
	return [4]geom.Vec3{
		CellCenter(size, cellSize, lo, lo, SpawnHeight),
		CellCenter(size, cellSize, hi, hi, SpawnHeight),
		CellCenter(size, cellSize, lo, hi, SpawnHeight),
		CellCenter(size, cellSize, hi, lo, SpawnHeight),
	}
}

// RandomEdgePosition picks one of EdgePositions uniformly.
func RandomEdgePosition(size int, cellSize float64, r rng.Source) geom.Vec3 {
	edges := EdgePositions(size, cellSize)
	return edges[r.Intn(len(edges))]
}
