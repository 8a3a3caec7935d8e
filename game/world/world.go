package world

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/neonmaze/game/player"
	"go.uber.org/zap"
)

// Manager tracks every running single-player SimRoom by id.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*SimRoom
	cfg      Config
	recorder Recorder
	logger   *zap.Logger
}

// NewManager creates a Manager. rec may be nil.
func NewManager(cfg Config, rec Recorder, logger *zap.Logger) *Manager {
	return &Manager{
		rooms:    make(map[string]*SimRoom),
		cfg:      cfg,
		recorder: rec,
		logger:   logger,
	}
}

// Start creates a room for owner with the given maze seed and starts its
// loop. A room the owner already runs is stopped first.
func (m *Manager) Start(owner *player.PlayerSession, seed int64) (*SimRoom, error) {
	if old := owner.Sim(); old != "" {
		m.Destroy(old)
	}
	id := uuid.New().String()
	room, err := newSimRoom(id, seed, m.cfg, owner, m.recorder, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.rooms[id] = room
	m.mu.Unlock()

	owner.SetSim(id)
	go room.Run()
	m.logger.Info("sim room created",
		zap.String("room_id", id),
		zap.String("player_id", owner.PlayerID),
		zap.Int64("seed", seed))
	return room, nil
}

// Get returns the SimRoom for id, or nil if it does not exist.
func (m *Manager) Get(id string) *SimRoom {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[id]
}

// Destroy stops and removes the room.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	room.Stop()
	if room.owner.Sim() == id {
		room.owner.SetSim("")
	}
	m.logger.Info("sim room destroyed", zap.String("room_id", id))
}

// Reap removes rooms that finished, lost their owner or saw no input for
// idle. It returns the number of rooms removed.
func (m *Manager) Reap(now time.Time, idle time.Duration) int {
	m.mu.RLock()
	var stale []string
	for id, r := range m.rooms {
		if r.Finished() || r.owner.IsClosed() || (idle > 0 && r.IdleFor(now) > idle) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()
	for _, id := range stale {
		m.Destroy(id)
	}
	return len(stale)
}

// ActiveRoomCount returns the number of tracked rooms.
func (m *Manager) ActiveRoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// StopAll stops every room (used at server shutdown).
func (m *Manager) StopAll() {
	m.mu.Lock()
	rooms := make([]*SimRoom, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.rooms = make(map[string]*SimRoom)
	m.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
	}
}
