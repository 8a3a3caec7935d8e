package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kasuganosora/neonmaze/game/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, 72*time.Hour, cfg.Security.JWTTTLH)
	assert.Equal(t, 25, cfg.Maze.Size)
	assert.Equal(t, 2, cfg.Seeker.Count)
	assert.Equal(t, 10*time.Second, cfg.Seeker.SpawnDelay)
	assert.Equal(t, 40*time.Second, cfg.Ability.Cooldown)
	assert.Equal(t, 50, cfg.Game.TickMs)
	assert.Equal(t, 4, cfg.Lobby.MaxPlayers)
	assert.Equal(t, 1.5, cfg.Lobby.CatchDistance)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NEONMAZE_SERVER_PORT", "7777")
	t.Setenv("NEONMAZE_LOBBY_MAX_PLAYERS", "6")
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Lobby.MaxPlayers)
}

func TestSimConfig_MatchesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	got := cfg.SimConfig()
	want := world.DefaultConfig()
	assert.Equal(t, want.Maze, got.Maze)
	assert.Equal(t, want.Walls, got.Walls)
	assert.Equal(t, want.Player, got.Player)
	assert.Equal(t, want.SeekerCount, got.SeekerCount)
	assert.Equal(t, want.RoundDuration, got.RoundDuration)
	assert.Equal(t, want.TickInterval, got.TickInterval)
	assert.InDelta(t, math.Pi/3, got.Seeker.VisionAngle, 1e-12)
	assert.Equal(t, want.Seeker.Bound, got.Seeker.Bound)
}

func TestSimConfig_DerivesBounds(t *testing.T) {
	cfg, err := Load(writeConfig(t, "maze:\n  size: 11\n  cell_size: 2\n"))
	require.NoError(t, err)

	sc := cfg.SimConfig()
	assert.Equal(t, 2.0, sc.Walls.CellSize)
	assert.Equal(t, 10.0, sc.Player.Bound)
	assert.Equal(t, 8.0, sc.Seeker.WaypointBound)
}

func TestLobbyManagerConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, "lobby:\n  pose_hz: 10\n"))
	require.NoError(t, err)

	lc := cfg.LobbyManagerConfig()
	assert.Equal(t, 10.0, lc.PoseHz)
	assert.Equal(t, 90*time.Second, lc.RoundDuration)
	assert.Equal(t, 2*time.Second, lc.Ability.Duration)
}
