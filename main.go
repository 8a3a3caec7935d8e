package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/neonmaze/api/rest"
	"github.com/kasuganosora/neonmaze/api/sse"
	apows "github.com/kasuganosora/neonmaze/api/ws"
	"github.com/kasuganosora/neonmaze/audit"
	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/config"
	dbadapter "github.com/kasuganosora/neonmaze/db"
	"github.com/kasuganosora/neonmaze/game/lobby"
	"github.com/kasuganosora/neonmaze/game/player"
	"github.com/kasuganosora/neonmaze/game/rng"
	"github.com/kasuganosora/neonmaze/game/world"
	mw "github.com/kasuganosora/neonmaze/middleware"
	"github.com/kasuganosora/neonmaze/model"
	"github.com/kasuganosora/neonmaze/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	lobbyTickInterval  = time.Second
	reapInterval       = 30 * time.Second
	limiterSweepPeriod = 5 * time.Minute
	limiterIdle        = 10 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	if cfg.Security.JWTSecret == "change-me" {
		logger.Warn("security.jwt_secret is the default value")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Audit / round history ----
	auditSvc := audit.New(db, c, pubsub, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Game Systems ----
	sm := player.NewSessionManager(logger)
	wm := world.NewManager(cfg.SimConfig(), auditSvc, logger)
	lm := lobby.NewManager(cfg.LobbyManagerConfig(),
		rng.NewLocked(rng.New(time.Now().UnixNano())), auditSvc, logger)
	limiter := mw.NewIPLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	sched.AddTicker("lobby_tick", lobbyTickInterval, lm.Tick)
	sched.AddTicker("room_reaper", reapInterval, func(now time.Time) {
		if n := wm.Reap(now, cfg.Game.RoomIdle); n > 0 {
			logger.Info("reaped sim rooms", zap.Int("count", n))
		}
	})
	sched.AddTicker("ip_limiter_sweep", limiterSweepPeriod, func(now time.Time) {
		limiter.Sweep(now, limiterIdle)
	})

	// ---- WebSocket Router ----
	wsRouter := apows.NewRouter(logger)
	wsRouter.SetAuditor(auditSvc, "ping", "pose", "sim_input")
	apows.NewSimHandlers(wm, logger).RegisterHandlers(wsRouter)
	apows.NewLobbyHandlers(lm, logger).RegisterHandlers(wsRouter)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(limiter.Middleware())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(c, cfg.Security)
	lobbyH := apirest.NewLobbyHandler(lm)
	mazeH := apirest.NewMazeHandler(cfg.SimConfig())
	roundsH := apirest.NewRoundsHandler(db, c, logger)
	adminH := apirest.NewAdminHandler(c, sm, wm, lm, sched, sseH, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/guest", authH.Guest)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		api.GET("/lobby/rooms", lobbyH.Rooms)
		api.GET("/lobby/rooms/:id", lobbyH.Room)
		api.GET("/maze", mazeH.Preview)
		api.GET("/rounds", roundsH.List)
		api.GET("/rounds/:id", roundsH.Get)
		api.GET("/leaderboard", roundsH.Leaderboard)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs), apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/players", adminH.ListPlayers)
		adminG.POST("/kick/:id", adminH.KickPlayer)
		adminG.POST("/announce", adminH.Announce)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
	}

	// ---- WebSocket ----
	wsH := apows.NewHandler(c, cfg.Security, sm, wm, lm, wsRouter, logger)
	r.GET("/ws", wsH.ServeWS)

	// ---- SSE ----
	r.GET("/sse", sseH.ServeSSE)

	// ---- Rendering client static files ----
	if cfg.Server.StaticDir != "" {
		r.StaticFile("/", cfg.Server.StaticDir+"/index.html")
		r.NoRoute(func(c *gin.Context) {
			path := cfg.Server.StaticDir + c.Request.URL.Path
			if _, err := os.Stat(path); err == nil {
				c.File(path)
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		})
		logger.Info("Serving client files", zap.String("dir", cfg.Server.StaticDir))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	sched.Stop()
	wm.StopAll()
	sm.CloseAllSessions()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}
