package player

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionManager maintains the registry of all connected PlayerSessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*PlayerSession // playerID → session
	logger   *zap.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*PlayerSession),
		logger:   logger,
	}
}

// Register adds a session. If a previous session exists for the same player,
// it is closed first (handles duplicate login / reconnect).
func (sm *SessionManager) Register(s *PlayerSession) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if old, ok := sm.sessions[s.PlayerID]; ok && old != s {
		old.Close()
		sm.logger.Info("duplicate session displaced",
			zap.String("player_id", s.PlayerID))
	}
	sm.sessions[s.PlayerID] = s
	sm.logger.Info("player session registered", zap.String("player_id", s.PlayerID))
}

// Unregister removes s if it is still the registered session for its player.
func (sm *SessionManager) Unregister(s *PlayerSession) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if cur, ok := sm.sessions[s.PlayerID]; ok && cur == s {
		delete(sm.sessions, s.PlayerID)
		sm.logger.Info("player session unregistered", zap.String("player_id", s.PlayerID))
	}
}

// Get returns the session for a player, or nil if not found.
func (sm *SessionManager) Get(playerID string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// Count returns the number of currently connected sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// All returns a snapshot slice of all current sessions.
func (sm *SessionManager) All() []*PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*PlayerSession, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	return out
}

// BroadcastToAll sends a packet to every connected session.
func (sm *SessionManager) BroadcastToAll(pkt *Packet) {
	data, err := json.Marshal(pkt)
	if err != nil {
		sm.logger.Error("failed to marshal broadcast packet", zap.Error(err))
		return
	}
	for _, s := range sm.All() {
		s.SendRaw(data)
	}
}

// CloseAllSessions gracefully closes all connected sessions.
func (sm *SessionManager) CloseAllSessions() {
	sessions := sm.All()
	sm.logger.Info("closing all sessions", zap.Int("count", len(sessions)))
	for _, s := range sessions {
		s.Close()
	}

	maxWait := 10 * time.Second
	start := time.Now()
	for time.Since(start) < maxWait {
		if sm.Count() == 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
}
