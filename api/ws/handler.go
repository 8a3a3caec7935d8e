package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/config"
	"github.com/kasuganosora/neonmaze/game/lobby"
	"github.com/kasuganosora/neonmaze/game/player"
	"github.com/kasuganosora/neonmaze/game/world"
	mw "github.com/kasuganosora/neonmaze/middleware"
	"go.uber.org/zap"
)

// Handler is the Gin handler for GET /ws.
type Handler struct {
	cache    cache.Cache
	sec      config.SecurityConfig
	sm       *player.SessionManager
	wm       *world.Manager
	lm       *lobby.Manager
	router   *Router
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler.
// sec.AllowedOrigins controls which WebSocket origins are accepted.
// An empty slice permits all origins (development only).
func NewHandler(
	c cache.Cache,
	sec config.SecurityConfig,
	sm *player.SessionManager,
	wm *world.Manager,
	lm *lobby.Manager,
	router *Router,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		cache:  c,
		sec:    sec,
		sm:     sm,
		wm:     wm,
		lm:     lm,
		router: router,
		logger: logger,
	}
	allowed := sec.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true // dev mode: allow all
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// ServeWS handles GET /ws?token=<jwt>.
func (h *Handler) ServeWS(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := mw.ParseToken(tokenStr, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if !mw.CheckSession(c.Request.Context(), h.cache, tokenStr) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", zap.Error(err))
		return
	}

	sess := player.NewPlayerSession(claims.PlayerID, claims.Name, conn, h.logger)
	h.sm.Register(sess)
	h.markOnline(sess.PlayerID, true)
	sess.SendJSON("welcome", gin.H{"player_id": sess.PlayerID, "name": sess.Name})

	// Blocks until the connection closes.
	h.readPump(sess)
}

// readPump reads messages from the WebSocket connection and dispatches them.
func (h *Handler) readPump(s *player.PlayerSession) {
	defer h.handleDisconnect(s)

	s.SetReadDeadline()
	s.Conn.SetPongHandler(func(string) error {
		s.SetReadDeadline()
		return nil
	})

	for {
		kind, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close",
					zap.String("player_id", s.PlayerID),
					zap.Error(err))
			}
			return
		}
		s.SetReadDeadline()
		if kind == websocket.BinaryMessage {
			h.router.DispatchBinary(s, raw)
			continue
		}
		h.router.Dispatch(s, raw)
	}
}

// handleDisconnect cleans up the session after the connection closes.
func (h *Handler) handleDisconnect(s *player.PlayerSession) {
	s.Close()

	if id := s.Sim(); id != "" {
		h.wm.Destroy(id)
	}
	if s.Room() != "" {
		if err := h.lm.Leave(s.PlayerID); err != nil {
			h.logger.Debug("lobby leave on disconnect", zap.Error(err))
		}
	}

	h.sm.Unregister(s)
	// A displaced session must not clear the online flag of its replacement.
	if h.sm.Get(s.PlayerID) == nil {
		h.markOnline(s.PlayerID, false)
	}
	h.logger.Info("player disconnected", zap.String("player_id", s.PlayerID))
}

func (h *Handler) markOnline(playerID string, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var err error
	if online {
		err = h.cache.SAdd(ctx, cache.KeyOnline, playerID)
	} else {
		err = h.cache.SRem(ctx, cache.KeyOnline, playerID)
	}
	if err != nil {
		h.logger.Warn("online set update failed",
			zap.String("player_id", playerID),
			zap.Bool("online", online),
			zap.Error(err))
	}
}
