// Package sse streams finished rounds and server announcements to
// spectators over server-sent events.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/config"
	mw "github.com/kasuganosora/neonmaze/middleware"
	"go.uber.org/zap"
)

const (
	announceChannel = "announce"
	// replayRounds is how many recent rounds a new subscriber receives.
	replayRounds = 10
	keepalive    = 30 * time.Second
)

// Handler handles the SSE endpoint.
type Handler struct {
	pubsub cache.PubSub
	sec    config.SecurityConfig
	c      cache.Cache
	logger *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, c: c, sec: sec, logger: logger}
}

// ServeSSE handles GET /sse?token=<jwt>.
// It replays the newest rounds, then streams every round published on the
// rounds channel and every announcement.
func (h *Handler) ServeSSE(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	if _, err := mw.ParseToken(tokenStr, h.sec.JWTSecret); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if !mw.CheckSession(c.Request.Context(), h.c, tokenStr) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, cache.ChannelRounds, announceChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	h.replay(subCtx, c)
	c.Writer.Flush()

	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			event := "round"
			if msg.Channel == announceChannel {
				event = "announce"
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

// replay writes the newest rounds oldest first.
func (h *Handler) replay(ctx context.Context, c *gin.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	recent, err := h.c.LRange(ctx, cache.KeyRecentRounds, 0, replayRounds-1)
	if err != nil {
		h.logger.Warn("sse replay failed", zap.Error(err))
		return
	}
	for i := len(recent) - 1; i >= 0; i-- {
		fmt.Fprintf(c.Writer, "event: round\ndata: %s\n\n", recent[i])
	}
}

// Announce publishes an announcement to all SSE subscribers as
// {"message":...}.
func (h *Handler) Announce(ctx context.Context, message string) error {
	data, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}
	return h.pubsub.Publish(ctx, announceChannel, string(data))
}
