package rest_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/neonmaze/api/rest"
	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/game/lobby"
	"github.com/kasuganosora/neonmaze/game/player"
	"github.com/kasuganosora/neonmaze/game/rng"
	"github.com/kasuganosora/neonmaze/game/world"
	"github.com/kasuganosora/neonmaze/scheduler"
	"github.com/kasuganosora/neonmaze/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAnnouncer struct{ msgs []string }

func (f *fakeAnnouncer) Announce(_ context.Context, msg string) error {
	f.msgs = append(f.msgs, msg)
	return nil
}

func newSession(id string) *player.PlayerSession {
	return &player.PlayerSession{
		PlayerID: id,
		Name:     "name-" + id,
		SendChan: make(chan player.Frame, 64),
		Done:     make(chan struct{}),
	}
}

type adminFixture struct {
	r     *gin.Engine
	c     cache.Cache
	sm    *player.SessionManager
	lm    *lobby.Manager
	ann   *fakeAnnouncer
	sched *scheduler.Scheduler
}

func newAdminRouter(t *testing.T, adminKey string) *adminFixture {
	c, _ := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	sm := player.NewSessionManager(logger)
	wm := world.NewManager(world.DefaultConfig(), nil, logger)
	lm := lobby.NewManager(lobby.DefaultConfig(), rng.NewLocked(rng.New(1)), nil, logger)
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)
	ann := &fakeAnnouncer{}

	h := rest.NewAdminHandler(c, sm, wm, lm, sched, ann, logger)
	r := gin.New()
	admin := r.Group("/api/admin", rest.AdminAuth(adminKey))
	admin.GET("/metrics", h.Metrics)
	admin.GET("/players", h.ListPlayers)
	admin.POST("/kick/:id", h.KickPlayer)
	admin.POST("/announce", h.Announce)
	admin.GET("/scheduler", h.ListSchedulerTasks)
	return &adminFixture{r: r, c: c, sm: sm, lm: lm, ann: ann, sched: sched}
}

func TestAdminAuth(t *testing.T) {
	f := newAdminRouter(t, "secret")
	assert.Equal(t, http.StatusUnauthorized, get(f.r, "/api/admin/metrics").Code)
	assert.Equal(t, http.StatusUnauthorized, get(f.r, "/api/admin/metrics", "X-Admin-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(f.r, "/api/admin/metrics", "X-Admin-Key", "secret").Code)
}

func TestAdminAuth_DisabledWithoutKey(t *testing.T) {
	f := newAdminRouter(t, "")
	w := get(f.r, "/api/admin/metrics", "X-Admin-Key", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminMetrics(t *testing.T) {
	f := newAdminRouter(t, "k")
	a := newSession("a")
	f.sm.Register(a)
	require.NoError(t, f.c.SAdd(context.Background(), cache.KeyOnline, "a"))
	_, err := f.lm.Create(a, "room")
	require.NoError(t, err)
	f.sched.AddTicker("noop", time.Hour, func(time.Time) {})

	w := get(f.r, "/api/admin/metrics", "X-Admin-Key", "k")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.EqualValues(t, 1, resp["sessions"])
	assert.EqualValues(t, 1, resp["online_players"])
	assert.EqualValues(t, 0, resp["sim_rooms"])
	assert.EqualValues(t, 1, resp["lobby_rooms"])
	assert.Len(t, resp["scheduler_tasks"], 1)
}

func TestAdminListPlayers(t *testing.T) {
	f := newAdminRouter(t, "k")
	a := newSession("a")
	f.sm.Register(a)
	f.sm.Register(newSession("b"))
	info, err := f.lm.Create(a, "room")
	require.NoError(t, err)

	w := get(f.r, "/api/admin/players", "X-Admin-Key", "k")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.EqualValues(t, 2, resp["count"])

	rooms := map[string]interface{}{}
	for _, p := range resp["players"].([]interface{}) {
		m := p.(map[string]interface{})
		rooms[m["player_id"].(string)] = m["room"]
	}
	assert.Equal(t, info.RoomID, rooms["a"])
	assert.Nil(t, rooms["b"])
}

func TestAdminKickPlayer(t *testing.T) {
	f := newAdminRouter(t, "k")
	a := newSession("a")
	f.sm.Register(a)

	w := postJSON(f.r, "/api/admin/kick/a", nil, "X-Admin-Key", "k")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, a.IsClosed())

	w = postJSON(f.r, "/api/admin/kick/ghost", nil, "X-Admin-Key", "k")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminAnnounce(t *testing.T) {
	f := newAdminRouter(t, "k")
	a := newSession("a")
	f.sm.Register(a)

	w := postJSON(f.r, "/api/admin/announce", map[string]string{"message": "restart in 5"}, "X-Admin-Key", "k")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"restart in 5"}, f.ann.msgs)

	select {
	case fr := <-a.SendChan:
		assert.Contains(t, string(fr.Data), `"type":"announce"`)
		assert.Contains(t, string(fr.Data), "restart in 5")
	default:
		t.Fatal("no announce packet queued")
	}

	w = postJSON(f.r, "/api/admin/announce", map[string]string{}, "X-Admin-Key", "k")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminSchedulerTasks(t *testing.T) {
	f := newAdminRouter(t, "k")
	f.sched.AddTicker("lobby_tick", time.Hour, func(time.Time) {})
	f.sched.AddTicker("room_reaper", time.Hour, func(time.Time) {})

	w := get(f.r, "/api/admin/scheduler", "X-Admin-Key", "k")
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode(t, w)["tasks"].([]interface{})
	require.Len(t, tasks, 2)
	assert.Equal(t, "lobby_tick", tasks[0].(map[string]interface{})["name"])
}
