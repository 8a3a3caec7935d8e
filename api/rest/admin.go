package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/game/lobby"
	"github.com/kasuganosora/neonmaze/game/player"
	"github.com/kasuganosora/neonmaze/game/world"
	"github.com/kasuganosora/neonmaze/scheduler"
	"go.uber.org/zap"
)

// Announcer pushes a server announcement to spectators.
type Announcer interface {
	Announce(ctx context.Context, message string) error
}

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	cache  cache.Cache
	sm     *player.SessionManager
	wm     *world.Manager
	lm     *lobby.Manager
	sched  *scheduler.Scheduler
	ann    Announcer
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	c cache.Cache,
	sm *player.SessionManager,
	wm *world.Manager,
	lm *lobby.Manager,
	sched *scheduler.Scheduler,
	ann Announcer,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{cache: c, sm: sm, wm: wm, lm: lm, sched: sched, ann: ann, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	online, _ := h.cache.SMembers(c.Request.Context(), cache.KeyOnline)
	c.JSON(http.StatusOK, gin.H{
		"sessions":        h.sm.Count(),
		"online_players":  len(online),
		"sim_rooms":       h.wm.ActiveRoomCount(),
		"lobby_rooms":     h.lm.RoomCount(),
		"scheduler_tasks": h.sched.Tasks(),
	})
}

type playerInfo struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Room     string `json:"room,omitempty"`
	Sim      string `json:"sim,omitempty"`
}

// ListPlayers returns a snapshot of all connected players.
// GET /api/admin/players
func (h *AdminHandler) ListPlayers(c *gin.Context) {
	sessions := h.sm.All()
	result := make([]playerInfo, 0, len(sessions))
	for _, s := range sessions {
		result = append(result, playerInfo{
			PlayerID: s.PlayerID,
			Name:     s.Name,
			Room:     s.Room(),
			Sim:      s.Sim(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"players": result, "count": len(result)})
}

// KickPlayer forcibly disconnects a player.
// POST /api/admin/kick/:id
func (h *AdminHandler) KickPlayer(c *gin.Context) {
	id := c.Param("id")
	s := h.sm.Get(id)
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not online"})
		return
	}
	s.Close()
	h.logger.Info("admin kicked player", zap.String("player_id", id))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type announceRequest struct {
	Message string `json:"message" binding:"required,max=500"`
}

// Announce broadcasts a message to every connected player and SSE spectator.
// POST /api/admin/announce
func (h *AdminHandler) Announce(c *gin.Context) {
	var req announceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload, _ := json.Marshal(gin.H{"message": req.Message})
	h.sm.BroadcastToAll(&player.Packet{Type: "announce", Payload: payload})
	if h.ann != nil {
		if err := h.ann.Announce(c.Request.Context(), req.Message); err != nil {
			h.logger.Warn("announce publish failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListSchedulerTasks returns all registered ticker tasks with run counters.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// If adminKey is empty all admin endpoints answer 503 so the server cannot
// be deployed with them unprotected.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
