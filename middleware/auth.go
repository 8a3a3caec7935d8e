package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/config"
)

const (
	PlayerIDKey   = "player_id"
	PlayerNameKey = "player_name"
	TokenKey      = "token"
)

// SessionKey is the cache key marking a token as logged in.
func SessionKey(token string) string { return cache.KeySessionPrefix + token }

// CheckSession reports whether token still has a live session.
func CheckSession(ctx context.Context, c cache.Cache, token string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	exists, err := c.Exists(ctx, SessionKey(token))
	return err == nil && exists
}

// Auth validates the Bearer JWT token and checks the session cache.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !CheckSession(ctx.Request.Context(), c, tokenStr) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		ctx.Set(PlayerIDKey, claims.PlayerID)
		ctx.Set(PlayerNameKey, claims.Name)
		ctx.Set(TokenKey, tokenStr)
		ctx.Next()
	}
}

// GetPlayerID retrieves the authenticated player ID from the Gin context.
func GetPlayerID(c *gin.Context) string {
	return c.GetString(PlayerIDKey)
}
