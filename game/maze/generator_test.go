package maze

import (
	"testing"

	"github.com/kasuganosora/neonmaze/game/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarve_SpanningTree(t *testing.T) {
	for _, size := range []int{3, 4, 7, 10, 25} {
		for seed := int64(1); seed <= 5; seed++ {
			g, err := Carve(size, rng.New(seed))
			require.NoError(t, err)
			assert.True(t, g.Connected(), "size %d seed %d", size, seed)
			assert.Equal(t, size*size-1, g.OpenPassages(), "tree has exactly N*N-1 passages")
		}
	}
}

func TestCarve_TooSmall(t *testing.T) {
	_, err := Carve(2, rng.New(1))
	assert.ErrorIs(t, err, ErrSizeTooSmall)

	_, err = Generate(Config{Size: 0}, rng.New(1))
	assert.ErrorIs(t, err, ErrSizeTooSmall)
}

func TestGenerate_Connected(t *testing.T) {
	cfg := DefaultConfig()
	for seed := int64(0); seed < 20; seed++ {
		g, err := Generate(cfg, rng.New(seed))
		require.NoError(t, err)
		assert.True(t, g.Connected(), "seed %d", seed)

		tree, err := Carve(cfg.Size, rng.New(seed))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, g.OpenPassages(), tree.OpenPassages(), "loosening only adds passages")
	}
}

func TestGenerate_SmallSizes(t *testing.T) {
	for size := 3; size <= 8; size++ {
		cfg := DefaultConfig()
		cfg.Size = size
		g, err := Generate(cfg, rng.New(int64(size)))
		require.NoError(t, err)
		assert.True(t, g.Connected(), "size %d", size)
	}
}

func TestGenerate_CenterIsOpen(t *testing.T) {
	cfg := DefaultConfig()
	g, err := Generate(cfg, rng.New(7))
	require.NoError(t, err)

	c := centerRect(cfg.Size, cfg.CenterEmpty)
	assert.Equal(t, rect{9, 9, 16, 16}, c)
	for y := c.y0; y < c.y1; y++ {
		for x := c.x0; x < c.x1; x++ {
			assert.Equal(t, Walls{}, g.At(x, y).Walls, "cell (%d,%d)", x, y)
		}
	}
}

func TestGenerate_WallFlagsMirrored(t *testing.T) {
	g, err := Generate(DefaultConfig(), rng.New(3))
	require.NoError(t, err)
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			if x+1 < g.Size {
				assert.Equal(t, g.At(x, y).Walls.East, g.At(x+1, y).Walls.West)
			}
			if y+1 < g.Size {
				assert.Equal(t, g.At(x, y).Walls.South, g.At(x, y+1).Walls.North)
			}
		}
	}
}

func TestGenerate_EdgeOpenings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RoomCount = 0
	cfg.Openness = 0
	g, err := Generate(cfg, rng.New(11))
	require.NoError(t, err)

	assert.False(t, g.At(cfg.Size/4, 0).Walls.West)
	assert.False(t, g.At(3*cfg.Size/4, cfg.Size-1).Walls.East)
}

func TestGenerate_OuterBoundaryKept(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Openness = 1
	g, err := Generate(cfg, rng.New(5))
	require.NoError(t, err)

	for i := 0; i < g.Size; i++ {
		assert.True(t, g.At(i, 0).Walls.North)
		assert.True(t, g.At(i, g.Size-1).Walls.South)
		assert.True(t, g.At(0, i).Walls.West)
		assert.True(t, g.At(g.Size-1, i).Walls.East)
	}
}

func TestCarveRooms_SkipsArena(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Openness = 0
	cfg.RoomCount = 1
	cfg.RoomMin, cfg.RoomMax = 4, 4
	// side 4, then rx = 8+1, ry = 8+1: lands on the arena and is skipped.
	src := &rng.Script{Ints: []int{0, 8, 8}}

	g := NewGrid(cfg.Size)
	before := g.OpenPassages()
	carveRooms(g, cfg, centerRect(cfg.Size, cfg.CenterEmpty), src)
	assert.Equal(t, before, g.OpenPassages())

	// rx = ry = 1 is clear of the arena and opens a 4x4 room.
	src = &rng.Script{Ints: []int{0, 0, 0}}
	carveRooms(g, cfg, centerRect(cfg.Size, cfg.CenterEmpty), src)
	for y := 1; y < 5; y++ {
		for x := 1; x < 5; x++ {
			assert.Equal(t, Walls{}, g.At(x, y).Walls)
		}
	}
}

func TestCarveRooms_NoRoomFits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Size = 5
	g := NewGrid(cfg.Size)
	assert.NotPanics(t, func() {
		carveRooms(g, cfg, centerRect(cfg.Size, 1), rng.New(1))
	})
}

func TestGrid_String(t *testing.T) {
	g, err := Carve(3, rng.New(1))
	require.NoError(t, err)
	out := g.String()
	assert.Contains(t, out, "+---+---+---+\n")
	assert.Equal(t, 7, len(splitLines(out)))
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return lines
}
