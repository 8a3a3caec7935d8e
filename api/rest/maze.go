package rest

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/neonmaze/game/maze"
	"github.com/kasuganosora/neonmaze/game/rng"
	"github.com/kasuganosora/neonmaze/game/world"
)

const maxPreviewSize = 101

// MazeHandler renders maze previews for a size and seed.
type MazeHandler struct {
	cfg world.Config
}

func NewMazeHandler(cfg world.Config) *MazeHandler {
	return &MazeHandler{cfg: cfg}
}

// Preview handles GET /api/maze?size=&seed=. Omitted values fall back to
// the configured size and a random seed.
func (h *MazeHandler) Preview(c *gin.Context) {
	mc := h.cfg.Maze
	if s := c.Query("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 3 || n > maxPreviewSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be between 3 and 101"})
			return
		}
		mc.Size = n
	}
	seed := rand.Int63n(math.MaxInt32)
	if s := c.Query("seed"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seed"})
			return
		}
		seed = n
	}

	g, err := maze.Generate(mc, rng.New(seed))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	walls := maze.BuildWalls(g, h.cfg.Walls)
	c.JSON(http.StatusOK, gin.H{
		"size":      mc.Size,
		"seed":      seed,
		"ascii":     g.String(),
		"walls":     len(walls),
		"passages":  g.OpenPassages(),
		"connected": g.Connected(),
	})
}
