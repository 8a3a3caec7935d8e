package world

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/kasuganosora/neonmaze/game/movement"
	"github.com/kasuganosora/neonmaze/game/player"
	"github.com/kasuganosora/neonmaze/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecorder struct {
	mu      sync.Mutex
	results []model.RoundResult
}

func (f *fakeRecorder) Record(r model.RoundResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
}

func (f *fakeRecorder) all() []model.RoundResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.RoundResult(nil), f.results...)
}

func newSession(id string) *player.PlayerSession {
	return &player.PlayerSession{
		PlayerID: id,
		SendChan: make(chan player.Frame, 4096),
		Done:     make(chan struct{}),
	}
}

func drain(s *player.PlayerSession) []player.Packet {
	var out []player.Packet
	for {
		select {
		case f := <-s.SendChan:
			var pkt player.Packet
			if json.Unmarshal(f.Data, &pkt) == nil {
				out = append(out, pkt)
			}
		default:
			return out
		}
	}
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	cfg.RoundDuration = 60 * time.Millisecond
	cfg.SeekerSpawnDelay = time.Hour
	return cfg
}

func waitDone(t *testing.T, room *SimRoom) {
	t.Helper()
	select {
	case <-room.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("sim room did not stop")
	}
}

func TestManager_RoundRunsToEnd(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewManager(fastConfig(), rec, zap.NewNop())
	owner := newSession("p1")

	room, err := m.Start(owner, 1234)
	require.NoError(t, err)
	assert.Equal(t, room.ID, owner.Sim())
	assert.Same(t, room, m.Get(room.ID))
	waitDone(t, room)

	assert.True(t, room.Finished())
	pkts := drain(owner)
	require.GreaterOrEqual(t, len(pkts), 3)
	assert.Equal(t, PktSimInit, pkts[0].Type)
	last := pkts[len(pkts)-1]
	assert.Equal(t, PktSimEnd, last.Type)

	var end SimEnd
	require.NoError(t, json.Unmarshal(last.Payload, &end))
	assert.Equal(t, "survived", end.Outcome)
	assert.Equal(t, room.ID, end.RoomID)

	var init SimInit
	require.NoError(t, json.Unmarshal(pkts[0].Payload, &init))
	assert.Equal(t, int64(1234), init.Seed)
	assert.NotEmpty(t, init.Walls)

	results := rec.all()
	require.Len(t, results, 1)
	assert.Equal(t, model.ModeSingle, results[0].Mode)
	assert.Equal(t, model.WinnerSurvivors, results[0].Winner)
	assert.Equal(t, int64(1234), results[0].Seed)
	assert.Equal(t, 0, results[0].Caught)

	assert.Equal(t, 1, m.Reap(time.Now(), 0))
	assert.Zero(t, m.ActiveRoomCount())
	assert.Empty(t, owner.Sim())
}

func TestManager_DestroyStopsLoop(t *testing.T) {
	cfg := fastConfig()
	cfg.RoundDuration = time.Hour
	m := NewManager(cfg, nil, zap.NewNop())
	owner := newSession("p1")

	room, err := m.Start(owner, 1)
	require.NoError(t, err)
	room.SetInput(movement.Input{Forward: true})
	m.Destroy(room.ID)
	waitDone(t, room)

	assert.False(t, room.Finished())
	assert.Nil(t, m.Get(room.ID))
	assert.Empty(t, owner.Sim())
}

func TestManager_StartReplacesRunningRoom(t *testing.T) {
	cfg := fastConfig()
	cfg.RoundDuration = time.Hour
	m := NewManager(cfg, nil, zap.NewNop())
	owner := newSession("p1")

	first, err := m.Start(owner, 1)
	require.NoError(t, err)
	second, err := m.Start(owner, 2)
	require.NoError(t, err)
	waitDone(t, first)

	assert.Equal(t, 1, m.ActiveRoomCount())
	assert.Equal(t, second.ID, owner.Sim())
	m.StopAll()
	waitDone(t, second)
}

func TestManager_ReapsClosedOwner(t *testing.T) {
	cfg := fastConfig()
	cfg.RoundDuration = time.Hour
	m := NewManager(cfg, nil, zap.NewNop())
	owner := newSession("p1")

	room, err := m.Start(owner, 1)
	require.NoError(t, err)
	owner.Close()
	waitDone(t, room)

	assert.Equal(t, 1, m.Reap(time.Now(), 0))
}

func TestManager_ReapsIdleRooms(t *testing.T) {
	cfg := fastConfig()
	cfg.RoundDuration = time.Hour
	m := NewManager(cfg, nil, zap.NewNop())
	room, err := m.Start(newSession("p1"), 1)
	require.NoError(t, err)

	assert.Zero(t, m.Reap(time.Now(), time.Minute))
	assert.Equal(t, 1, m.Reap(time.Now().Add(2*time.Minute), time.Minute))
	waitDone(t, room)
}

func TestSimRoom_JumpIsLatched(t *testing.T) {
	room, err := newSimRoom("r", 1, DefaultConfig(), newSession("p1"), nil, zap.NewNop())
	require.NoError(t, err)

	room.SetInput(movement.Input{Jump: true})
	room.SetInput(movement.Input{Forward: true})
	in := room.takeInput()
	assert.True(t, in.Jump)
	assert.True(t, in.Forward)
	assert.False(t, room.takeInput().Jump)
}
