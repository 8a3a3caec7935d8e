package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/config"
	mw "github.com/kasuganosora/neonmaze/middleware"
	"github.com/kasuganosora/neonmaze/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "sse-test-secret"

func setup(t *testing.T) (*httptest.Server, *Handler, cache.Cache, cache.PubSub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, ps := testutil.SetupTestCache(t)
	h := NewHandler(ps, c, config.SecurityConfig{JWTSecret: secret}, zap.NewNop())
	r := gin.New()
	r.GET("/sse", h.ServeSSE)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, h, c, ps
}

func login(t *testing.T, c cache.Cache) string {
	t.Helper()
	tok, err := mw.GenerateToken("p1", "alice", secret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), mw.SessionKey(tok), "p1", time.Hour))
	return tok
}

// readEvent reads lines until a data line following "event: name".
func readEvent(t *testing.T, sc *bufio.Scanner, name string) string {
	t.Helper()
	want := "event: " + name
	for sc.Scan() {
		if sc.Text() != want {
			continue
		}
		require.True(t, sc.Scan())
		return strings.TrimPrefix(sc.Text(), "data: ")
	}
	t.Fatalf("stream ended before %q", name)
	return ""
}

func TestServeSSE_Unauthorized(t *testing.T) {
	srv, _, _, _ := setup(t)

	resp, err := http.Get(srv.URL + "/sse")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := mw.GenerateToken("p1", "alice", secret, time.Hour)
	require.NoError(t, err)
	resp, err = http.Get(srv.URL + "/sse?token=" + tok)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "no session in cache")
}

func TestServeSSE_ReplayAndStream(t *testing.T) {
	srv, h, c, ps := setup(t)
	tok := login(t, c)
	ctx := context.Background()
	require.NoError(t, c.LPush(ctx, cache.KeyRecentRounds, `{"id":1}`, `{"id":2}`))

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"/sse?token="+tok, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	readEvent(t, sc, "connected")
	// oldest first
	assert.Equal(t, `{"id":1}`, readEvent(t, sc, "round"))
	assert.Equal(t, `{"id":2}`, readEvent(t, sc, "round"))

	require.NoError(t, ps.Publish(ctx, cache.ChannelRounds, `{"id":3}`))
	assert.Equal(t, `{"id":3}`, readEvent(t, sc, "round"))

	require.NoError(t, h.Announce(ctx, "maintenance\nat noon"))
	assert.JSONEq(t, `{"message":"maintenance\nat noon"}`, readEvent(t, sc, "announce"))
}
