package maze

import (
	"strings"

	"github.com/kasuganosora/neonmaze/game/geom"
)

// Grid is a square maze indexed as Cells[y][x]. Cell (0,0) is the north-west
// corner and y grows southward, which maps to +Z in world space.
type Grid struct {
	Size  int      `json:"size"`
	Cells [][]Cell `json:"cells"`
}

// NewGrid returns a size x size grid with every wall standing.
func NewGrid(size int) *Grid {
	cells := make([][]Cell, size)
	for y := range cells {
		cells[y] = make([]Cell, size)
		for x := range cells[y] {
			cells[y][x].Walls = Walls{North: true, South: true, East: true, West: true}
		}
	}
	return &Grid{Size: size, Cells: cells}
}

func (g *Grid) In(x, y int) bool {
	return x >= 0 && x < g.Size && y >= 0 && y < g.Size
}

func (g *Grid) At(x, y int) Cell { return g.Cells[y][x] }

// Clear removes the wall on side s of (x,y) and the matching wall of the
// neighbour, when there is one.
func (g *Grid) Clear(x, y int, s Side) {
	g.Cells[y][x].Walls.set(s, false)
	dx, dy := s.delta()
	nx, ny := x+dx, y+dy
	if g.In(nx, ny) {
		g.Cells[ny][nx].Walls.set(s.Opposite(), false)
	}
}

// ClearAll removes all four walls of (x,y), mirrored onto its neighbours.
func (g *Grid) ClearAll(x, y int) {
	for _, s := range sides {
		g.Clear(x, y, s)
	}
}

// Connected reports whether every cell is reachable from (0,0) by crossing
// only open sides.
func (g *Grid) Connected() bool {
	return g.Reachable(0, 0) == g.Size*g.Size
}

// Reachable flood-fills from (x,y) and returns how many cells it reached.
func (g *Grid) Reachable(x, y int) int {
	if g.Size == 0 || !g.In(x, y) {
		return 0
	}
	seen := make([]bool, g.Size*g.Size)
	stack := [][2]int{{x, y}}
	seen[y*g.Size+x] = true
	count := 0
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		cell := g.Cells[cur[1]][cur[0]]
		for _, s := range sides {
			if cell.Has(s) {
				continue
			}
			dx, dy := s.delta()
			nx, ny := cur[0]+dx, cur[1]+dy
			if !g.In(nx, ny) || seen[ny*g.Size+nx] {
				continue
			}
			seen[ny*g.Size+nx] = true
			stack = append(stack, [2]int{nx, ny})
		}
	}
	return count
}

// OpenPassages counts interior boundaries with no wall. A spanning tree over
// Size*Size cells has exactly Size*Size-1 of them.
func (g *Grid) OpenPassages() int {
	n := 0
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			if x+1 < g.Size && !g.Cells[y][x].Walls.East {
				n++
			}
			if y+1 < g.Size && !g.Cells[y][x].Walls.South {
				n++
			}
		}
	}
	return n
}

// Offset is the world coordinate of the grid's north-west corner. The grid is
// centred on the origin.
func Offset(size int, cellSize float64) float64 {
	return -float64(size) * cellSize / 2
}

// CellCenter returns the world position of the middle of cell (x,y) at height y0.
func CellCenter(size int, cellSize float64, x, y int, y0 float64) geom.Vec3 {
	off := Offset(size, cellSize)
	return geom.Vec3{
		X: off + float64(x)*cellSize + cellSize/2,
		Y: y0,
		Z: off + float64(y)*cellSize + cellSize/2,
	}
}

// HalfExtent is half the world width of a size x size maze.
func HalfExtent(size int, cellSize float64) float64 {
	return float64(size) * cellSize / 2
}

// String renders the grid as ASCII art.
func (g *Grid) String() string {
	if g.Size == 0 {
		return ""
	}
	var b strings.Builder
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			b.WriteString("+")
			if g.Cells[y][x].Walls.North {
				b.WriteString("---")
			} else {
				b.WriteString("   ")
			}
		}
		b.WriteString("+\n")
		for x := 0; x < g.Size; x++ {
			if g.Cells[y][x].Walls.West {
				b.WriteString("|   ")
			} else {
				b.WriteString("    ")
			}
		}
		if g.Cells[y][g.Size-1].Walls.East {
			b.WriteString("|")
		}
		b.WriteString("\n")
	}
	for x := 0; x < g.Size; x++ {
		b.WriteString("+")
		if g.Cells[g.Size-1][x].Walls.South {
			b.WriteString("---")
		} else {
			b.WriteString("   ")
		}
	}
	b.WriteString("+\n")
	return b.String()
}
