package config

import (
	"math"
	"strings"
	"time"

	"github.com/kasuganosora/neonmaze/game/ability"
	"github.com/kasuganosora/neonmaze/game/lobby"
	"github.com/kasuganosora/neonmaze/game/world"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Maze     MazeConfig     `mapstructure:"maze"`
	Player   PlayerConfig   `mapstructure:"player"`
	Seeker   SeekerConfig   `mapstructure:"seeker"`
	Ability  AbilityConfig  `mapstructure:"ability"`
	Game     GameConfig     `mapstructure:"game"`
	Lobby    LobbyConfig    `mapstructure:"lobby"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
	// StaticDir is served at / when set (the rendering client).
	StaticDir string `mapstructure:"static_dir"`
	// AdminKey enables /api/admin; empty disables it.
	AdminKey string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // memory | sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the WebSocket/SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// AdminIPs may reach /api/admin. Empty allows everyone.
	AdminIPs []string `mapstructure:"admin_ips"`
}

type MazeConfig struct {
	Size          int     `mapstructure:"size"`
	CellSize      float64 `mapstructure:"cell_size"`
	WallHeight    float64 `mapstructure:"wall_height"`
	WallThickness float64 `mapstructure:"wall_thickness"`
	CenterEmpty   int     `mapstructure:"center_empty"`
	RoomCount     int     `mapstructure:"room_count"`
	RoomMin       int     `mapstructure:"room_min"`
	RoomMax       int     `mapstructure:"room_max"`
	RoomMargin    int     `mapstructure:"room_margin"`
	Openness      float64 `mapstructure:"openness"`
}

type PlayerConfig struct {
	Height           float64       `mapstructure:"height"`
	Speed            float64       `mapstructure:"speed"`
	SprintMultiplier float64       `mapstructure:"sprint_multiplier"`
	SprintDuration   time.Duration `mapstructure:"sprint_duration"`
	SprintRecovery   time.Duration `mapstructure:"sprint_recovery"`
	Radius           float64       `mapstructure:"radius"`
	JumpForce        float64       `mapstructure:"jump_force"`
	Gravity          float64       `mapstructure:"gravity"`
	Smoothing        float64       `mapstructure:"smoothing"`
}

type SeekerConfig struct {
	Radius           float64       `mapstructure:"radius"`
	Speed            float64       `mapstructure:"speed"`
	ChaseSpeed       float64       `mapstructure:"chase_speed"`
	VisionRange      float64       `mapstructure:"vision_range"`
	VisionAngleDeg   float64       `mapstructure:"vision_angle_deg"`
	WaypointDuration time.Duration `mapstructure:"waypoint_duration"`
	ArrivalDistance  float64       `mapstructure:"arrival_distance"`
	ChaseGrace       time.Duration `mapstructure:"chase_grace"`
	HearingRange     float64       `mapstructure:"hearing_range"`
	HearingRate      float64       `mapstructure:"hearing_rate"`
	HearingDuration  time.Duration `mapstructure:"hearing_duration"`
	Deflection       float64       `mapstructure:"deflection"`
	Count            int           `mapstructure:"count"`
	SpawnDelay       time.Duration `mapstructure:"spawn_delay"`
	MinSpawnDistance float64       `mapstructure:"min_spawn_distance"`
}

type AbilityConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
	Duration time.Duration `mapstructure:"duration"`
}

type GameConfig struct {
	TickMs        int           `mapstructure:"tick_ms"`
	RoundDuration time.Duration `mapstructure:"round_duration"`
	// RoomIdle stops a single-player room nobody has sent input to.
	RoomIdle time.Duration `mapstructure:"room_idle"`
}

type LobbyConfig struct {
	MaxPlayers    int           `mapstructure:"max_players"`
	RoundDuration time.Duration `mapstructure:"round_duration"`
	PoseHz        float64       `mapstructure:"pose_hz"`
	CatchDistance float64       `mapstructure:"catch_distance"`
}

// Load reads config from the given YAML file path. Every key can be
// overridden from the environment, e.g. NEONMAZE_SERVER_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("neonmaze")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/neonmaze.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_secret", "change-me")
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)

	v.SetDefault("maze.size", 25)
	v.SetDefault("maze.cell_size", 3.0)
	v.SetDefault("maze.wall_height", 4.0)
	v.SetDefault("maze.wall_thickness", 0.25)
	v.SetDefault("maze.center_empty", 7)
	v.SetDefault("maze.room_count", 12)
	v.SetDefault("maze.room_min", 4)
	v.SetDefault("maze.room_max", 7)
	v.SetDefault("maze.room_margin", 2)
	v.SetDefault("maze.openness", 0.6)

	v.SetDefault("player.height", 1.8)
	v.SetDefault("player.speed", 12.0)
	v.SetDefault("player.sprint_multiplier", 1.3)
	v.SetDefault("player.sprint_duration", "5s")
	v.SetDefault("player.sprint_recovery", "8s")
	v.SetDefault("player.radius", 0.35)
	v.SetDefault("player.jump_force", 8.0)
	v.SetDefault("player.gravity", 25.0)
	v.SetDefault("player.smoothing", 0.3)

	v.SetDefault("seeker.radius", 0.7)
	v.SetDefault("seeker.speed", 15.6)
	v.SetDefault("seeker.chase_speed", 15.6)
	v.SetDefault("seeker.vision_range", 20.0)
	v.SetDefault("seeker.vision_angle_deg", 60.0)
	v.SetDefault("seeker.waypoint_duration", "5s")
	v.SetDefault("seeker.arrival_distance", 2.0)
	v.SetDefault("seeker.chase_grace", "2s")
	v.SetDefault("seeker.hearing_range", 10.0)
	v.SetDefault("seeker.hearing_rate", 10.0)
	v.SetDefault("seeker.hearing_duration", "3s")
	v.SetDefault("seeker.deflection", 6.0)
	v.SetDefault("seeker.count", 2)
	v.SetDefault("seeker.spawn_delay", "10s")
	v.SetDefault("seeker.min_spawn_distance", 20.0)

	v.SetDefault("ability.cooldown", "40s")
	v.SetDefault("ability.duration", "2s")

	v.SetDefault("game.tick_ms", 50)
	v.SetDefault("game.round_duration", "120s")
	v.SetDefault("game.room_idle", "2m")

	v.SetDefault("lobby.max_players", 4)
	v.SetDefault("lobby.round_duration", "90s")
	v.SetDefault("lobby.pose_hz", 20.0)
	v.SetDefault("lobby.catch_distance", 1.5)
}

// SimConfig maps the maze, player, seeker and game sections onto a
// single-player round config.
func (c *Config) SimConfig() world.Config {
	sc := world.DefaultConfig()

	sc.Maze.Size = c.Maze.Size
	sc.Maze.CellSize = c.Maze.CellSize
	sc.Maze.CenterEmpty = c.Maze.CenterEmpty
	sc.Maze.RoomCount = c.Maze.RoomCount
	sc.Maze.RoomMin = c.Maze.RoomMin
	sc.Maze.RoomMax = c.Maze.RoomMax
	sc.Maze.RoomMargin = c.Maze.RoomMargin
	sc.Maze.Openness = c.Maze.Openness
	sc.Walls.Height = c.Maze.WallHeight
	sc.Walls.Thickness = c.Maze.WallThickness

	p := &sc.Player
	p.Height = c.Player.Height
	p.Speed = c.Player.Speed
	p.SprintMultiplier = c.Player.SprintMultiplier
	p.SprintDuration = c.Player.SprintDuration
	p.SprintRecovery = c.Player.SprintRecovery
	p.Radius = c.Player.Radius
	p.JumpForce = c.Player.JumpForce
	p.Gravity = c.Player.Gravity
	p.Smoothing = c.Player.Smoothing

	s := &sc.Seeker
	s.Radius = c.Seeker.Radius
	s.Speed = c.Seeker.Speed
	s.ChaseSpeed = c.Seeker.ChaseSpeed
	s.VisionRange = c.Seeker.VisionRange
	s.VisionAngle = c.Seeker.VisionAngleDeg * math.Pi / 180
	s.WaypointDuration = c.Seeker.WaypointDuration
	s.ArrivalDistance = c.Seeker.ArrivalDistance
	s.ChaseGrace = c.Seeker.ChaseGrace
	s.HearingRange = c.Seeker.HearingRange
	s.HearingRate = c.Seeker.HearingRate
	s.HearingDuration = c.Seeker.HearingDuration
	s.Deflection = c.Seeker.Deflection

	sc.SeekerCount = c.Seeker.Count
	sc.SeekerSpawnDelay = c.Seeker.SpawnDelay
	sc.SeekerMinSpawnDistance = c.Seeker.MinSpawnDistance
	sc.RoundDuration = c.Game.RoundDuration
	sc.Ability = ability.Config{Cooldown: c.Ability.Cooldown, Duration: c.Ability.Duration}
	if c.Game.TickMs > 0 {
		sc.TickInterval = time.Duration(c.Game.TickMs) * time.Millisecond
	}
	return sc.Derive()
}

// LobbyManagerConfig maps the lobby and ability sections onto the lobby manager.
func (c *Config) LobbyManagerConfig() lobby.Config {
	return lobby.Config{
		MaxPlayers:    c.Lobby.MaxPlayers,
		RoundDuration: c.Lobby.RoundDuration,
		PoseHz:        c.Lobby.PoseHz,
		CatchDistance: c.Lobby.CatchDistance,
		Ability: ability.Config{
			Cooldown: c.Ability.Cooldown,
			Duration: c.Ability.Duration,
		},
	}
}
