// Package maze generates the hide-and-seek arena: a randomized depth-first
// spanning tree that is then loosened with a central arena, two edge
// openings, open rooms and a random openness pass. It also converts the grid
// into the wall boxes used for collision and line of sight.
package maze

import (
	"errors"
	"fmt"

	"github.com/kasuganosora/neonmaze/game/rng"
)

var (
	ErrSizeTooSmall = errors.New("maze: size must be at least 3")
	ErrUnvisited    = errors.New("maze: cell left unvisited after carving")
)

// Config controls generation.
type Config struct {
	Size        int
	CellSize    float64
	CenterEmpty int
	RoomCount   int
	RoomMin     int
	RoomMax     int
	// Openness is the chance that a cell outside the arena loses one more wall.
	Openness float64
	// RoomMargin keeps rooms this many cells away from the arena.
	RoomMargin int
}

// DefaultConfig matches the stock 25x25 arena.
func DefaultConfig() Config {
	return Config{
		Size:        25,
		CellSize:    3,
		CenterEmpty: 7,
		RoomCount:   12,
		RoomMin:     4,
		RoomMax:     7,
		Openness:    0.6,
		RoomMargin:  2,
	}
}

// rect is a half-open cell rectangle [x0,x1) x [y0,y1).
type rect struct{ x0, y0, x1, y1 int }

func (r rect) contains(x, y int) bool {
	return x >= r.x0 && x < r.x1 && y >= r.y0 && y < r.y1
}

func (r rect) overlaps(o rect) bool {
	return r.x0 < o.x1 && o.x0 < r.x1 && r.y0 < o.y1 && o.y0 < r.y1
}

// centerRect returns the arena square, clipped to the grid.
func centerRect(size, side int) rect {
	if side <= 0 {
		return rect{}
	}
	if side > size {
		side = size
	}
	start := (size - side) / 2
	return rect{start, start, start + side, start + side}
}

// Generate builds a maze. The returned grid is fully connected. r supplies
// every random choice.
func Generate(cfg Config, r rng.Source) (*Grid, error) {
	g, err := Carve(cfg.Size, r)
	if err != nil {
		return nil, err
	}

	center := centerRect(cfg.Size, cfg.CenterEmpty)
	for y := center.y0; y < center.y1; y++ {
		for x := center.x0; x < center.x1; x++ {
			g.ClearAll(x, y)
		}
	}

	g.Clear(cfg.Size/4, 0, West)
	g.Clear(3*cfg.Size/4, cfg.Size-1, East)

	carveRooms(g, cfg, center, r)
	loosen(g, cfg.Openness, center, r)
	return g, nil
}

// Carve runs the randomized depth-first traversal from (0,0) and returns the
// resulting spanning tree.
func Carve(size int, r rng.Source) (*Grid, error) {
	if size < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrSizeTooSmall, size)
	}
	g := NewGrid(size)

	type pos struct{ x, y int }
	type step struct {
		pos
		side Side
	}

	cur := pos{0, 0}
	g.Cells[0][0].Visited = true
	stack := make([]pos, 0, size*size)
	neighbours := make([]step, 0, 4)

	for {
		neighbours = neighbours[:0]
		for _, s := range sides {
			dx, dy := s.delta()
			nx, ny := cur.x+dx, cur.y+dy
			if g.In(nx, ny) && !g.Cells[ny][nx].Visited {
				neighbours = append(neighbours, step{pos{nx, ny}, s})
			}
		}

		if len(neighbours) > 0 {
			next := neighbours[r.Intn(len(neighbours))]
			g.Clear(cur.x, cur.y, next.side)
			g.Cells[next.y][next.x].Visited = true
			stack = append(stack, cur)
			cur = next.pos
			continue
		}
		if len(stack) == 0 {
			break
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
	}

	for y := range g.Cells {
		for x := range g.Cells[y] {
			if !g.Cells[y][x].Visited {
				return nil, fmt.Errorf("%w: (%d,%d)", ErrUnvisited, x, y)
			}
		}
	}
	return g, nil
}

// carveRooms opens RoomCount random squares. A room that would touch the
// arena (plus margin) or that cannot fit is skipped, so fewer rooms than
// requested is normal.
func carveRooms(g *Grid, cfg Config, center rect, r rng.Source) {
	if cfg.RoomCount <= 0 || cfg.RoomMin <= 0 || cfg.RoomMax < cfg.RoomMin {
		return
	}
	guard := rect{
		center.x0 - cfg.RoomMargin, center.y0 - cfg.RoomMargin,
		center.x1 + cfg.RoomMargin, center.y1 + cfg.RoomMargin,
	}
	span := cfg.RoomMax - cfg.RoomMin + 1

	for i := 0; i < cfg.RoomCount; i++ {
		side := cfg.RoomMin + r.Intn(span)
		room := g.Size - side - 2
		if room <= 0 {
			continue
		}
		rx := r.Intn(room) + 1
		ry := r.Intn(room) + 1
		rc := rect{rx, ry, rx + side, ry + side}
		if center.x1 > center.x0 && rc.overlaps(guard) {
			continue
		}
		for y := rc.y0; y < rc.y1; y++ {
			for x := rc.x0; x < rc.x1; x++ {
				g.ClearAll(x, y)
			}
		}
	}
}

// loosen removes one more interior wall (north or east) from cells outside
// the arena with probability p. The outer boundary is never opened.
func loosen(g *Grid, p float64, center rect, r rng.Source) {
	if p <= 0 {
		return
	}
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			if center.contains(x, y) {
				continue
			}
			if r.Float64() >= p {
				continue
			}
			cell := g.Cells[y][x]
			if r.Float64() < 0.5 && cell.Walls.North && y > 0 {
				g.Clear(x, y, North)
			} else if cell.Walls.East && x < g.Size-1 {
				g.Clear(x, y, East)
			}
		}
	}
}
