package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/neonmaze/game/lobby"
)

// LobbyHandler exposes the joinable room list.
type LobbyHandler struct {
	lm *lobby.Manager
}

func NewLobbyHandler(lm *lobby.Manager) *LobbyHandler {
	return &LobbyHandler{lm: lm}
}

// Rooms handles GET /api/lobby/rooms.
func (h *LobbyHandler) Rooms(c *gin.Context) {
	rooms := h.lm.Rooms()
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "count": len(rooms)})
}

// Room handles GET /api/lobby/rooms/:id.
func (h *LobbyHandler) Room(c *gin.Context) {
	info, members, ok := h.lm.Room(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": lobby.ErrRoomNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": info, "players": members})
}
