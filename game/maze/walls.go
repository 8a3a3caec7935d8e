package maze

import "github.com/kasuganosora/neonmaze/game/geom"

// WallConfig sizes the wall boxes.
type WallConfig struct {
	CellSize  float64
	Height    float64
	Thickness float64
}

func DefaultWallConfig() WallConfig {
	return WallConfig{CellSize: 3, Height: 4, Thickness: 0.25}
}

// BuildWalls emits one box per standing wall segment. Each cell contributes
// its north and west walls; south and east walls are emitted only on the
// outer edge, since inside the grid they belong to the neighbour.
func BuildWalls(g *Grid, wc WallConfig) []geom.Box {
	cs, h, th := wc.CellSize, wc.Height, wc.Thickness
	horizontal := geom.Vec3{X: cs, Y: h, Z: th}
	vertical := geom.Vec3{X: th, Y: h, Z: cs}

	walls := make([]geom.Box, 0, 2*g.Size*(g.Size+1))
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			c := CellCenter(g.Size, cs, x, y, h/2)
			w := g.Cells[y][x].Walls
			if w.North {
				walls = append(walls, geom.BoxFromSize(geom.Vec3{X: c.X, Y: c.Y, Z: c.Z - cs/2}, horizontal))
			}
			if w.South && y == g.Size-1 {
				walls = append(walls, geom.BoxFromSize(geom.Vec3{X: c.X, Y: c.Y, Z: c.Z + cs/2}, horizontal))
			}
			if w.West {
				walls = append(walls, geom.BoxFromSize(geom.Vec3{X: c.X - cs/2, Y: c.Y, Z: c.Z}, vertical))
			}
			if w.East && x == g.Size-1 {
				walls = append(walls, geom.BoxFromSize(geom.Vec3{X: c.X + cs/2, Y: c.Y, Z: c.Z}, vertical))
			}
		}
	}
	return walls
}
