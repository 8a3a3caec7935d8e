package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/config"
	mw "github.com/kasuganosora/neonmaze/middleware"
)

// AuthHandler issues guest sessions. There are no accounts: every guest
// login mints a fresh player ID.
type AuthHandler struct {
	cache cache.Cache
	sec   config.SecurityConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(c cache.Cache, sec config.SecurityConfig) *AuthHandler {
	return &AuthHandler{cache: c, sec: sec}
}

type guestRequest struct {
	Name string `json:"name" binding:"omitempty,min=2,max=24"`
}

// Guest handles POST /api/auth/guest.
func (h *AuthHandler) Guest(c *gin.Context) {
	var req guestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	playerID := uuid.NewString()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "guest-" + playerID[:4]
	}

	token, err := h.issue(c.Request.Context(), playerID, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"player_id": playerID,
		"name":      name,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(c.GetString(mw.TokenKey)))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh. The old token stops working.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(c.GetString(mw.TokenKey)))

	token, err := h.issue(c.Request.Context(), mw.GetPlayerID(c), c.GetString(mw.PlayerNameKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// issue signs a token and stores its session.
func (h *AuthHandler) issue(ctx context.Context, playerID, name string) (string, error) {
	token, err := mw.GenerateToken(playerID, name, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, mw.SessionKey(token), playerID, h.sec.JWTTTLH); err != nil {
		return "", err
	}
	return token, nil
}
