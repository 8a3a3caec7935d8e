package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const roundsMax = 100

// RoundsHandler serves round history and the survival leaderboard.
type RoundsHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

// NewRoundsHandler creates a RoundsHandler.
func NewRoundsHandler(db *gorm.DB, c cache.Cache, logger *zap.Logger) *RoundsHandler {
	return &RoundsHandler{db: db, cache: c, logger: logger}
}

func limitParam(c *gin.Context) int {
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= roundsMax {
		limit = l
	}
	return limit
}

// List handles GET /api/rounds?limit=&mode=.
func (h *RoundsHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("id DESC").Limit(limitParam(c))
	if mode := c.Query("mode"); mode != "" {
		q = q.Where("mode = ?", mode)
	}
	var rounds []model.RoundResult
	if err := q.Find(&rounds).Error; err != nil {
		h.logger.Error("list rounds failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}

// Get handles GET /api/rounds/:id.
func (h *RoundsHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var r model.RoundResult
	if err := h.db.WithContext(c.Request.Context()).First(&r, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "round not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

// RankEntry is one row in the leaderboard.
type RankEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Survived int64  `json:"survived"`
}

// Leaderboard handles GET /api/leaderboard?limit=.
func (h *RoundsHandler) Leaderboard(c *gin.Context) {
	members, err := h.cache.ZRevRangeWithScores(c.Request.Context(), cache.KeyLeaderboard, 0, int64(limitParam(c)-1))
	if err != nil {
		h.logger.Error("leaderboard read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache error"})
		return
	}
	entries := make([]RankEntry, len(members))
	for i, m := range members {
		entries[i] = RankEntry{Rank: i + 1, PlayerID: m.Member, Survived: int64(m.Score)}
	}
	c.JSON(http.StatusOK, gin.H{"ranking": entries})
}
