// Package lobby runs multiplayer hide-and-seek rooms: membership, role
// assignment, the round clock, seeker catch reports and pose relay.
// Every client simulates its own movement; the server only referees.
package lobby

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/neonmaze/game/ability"
	"github.com/kasuganosora/neonmaze/game/events"
	"github.com/kasuganosora/neonmaze/game/netsync"
	"github.com/kasuganosora/neonmaze/game/player"
	"github.com/kasuganosora/neonmaze/game/rng"
	"github.com/kasuganosora/neonmaze/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	ErrRoomNotFound     = errors.New("lobby: room not found")
	ErrRoomFull         = errors.New("lobby: room is full")
	ErrGameStarted      = errors.New("lobby: game already started")
	ErrGameNotStarted   = errors.New("lobby: no game running")
	ErrNotHost          = errors.New("lobby: only the host can start")
	ErrNotEnoughPlayers = errors.New("lobby: at least 2 players needed")
	ErrNotSeeker        = errors.New("lobby: only the seeker can do that")
	ErrNotInRoom        = errors.New("lobby: not in a room")
	ErrAlreadyInRoom    = errors.New("lobby: already in a room")
	ErrInvalidTarget    = errors.New("lobby: target is not a live survivor")
	ErrTooFar           = errors.New("lobby: target out of catch range")
)

// Outbound packet types.
const (
	PktRoomJoined   = "room_joined"
	PktRoomLeft     = "room_left"
	PktRoomUpdate   = "room_update"
	PktPlayerJoined = "player_joined"
	PktPlayerLeft   = "player_left"
	PktGameStarted  = "game_started"
	PktGameTime     = "game_time"
	PktPlayerDied   = "player_died"
	PktGameEnded    = "game_ended"
	PktPlayerMoved  = "player_moved"
	PktAbility      = "ability_state"
	PktAuraReveal   = "aura_reveal"
)

const minPlayers = 2

// poseSlack covers the distance an actor can cover between two pose reports.
const poseSlack = 1.0

type Config struct {
	MaxPlayers    int
	RoundDuration time.Duration
	// PoseHz caps pose reports per player per second.
	PoseHz float64
	// CatchDistance is the largest accepted gap between the last reported
	// seeker and target poses. Zero accepts every report.
	CatchDistance float64
	Ability       ability.Config
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:    4,
		RoundDuration: 90 * time.Second,
		PoseHz:        20,
		CatchDistance: 1.5,
		Ability:       ability.DefaultConfig(),
	}
}

// Recorder receives finished games.
type Recorder interface {
	Record(model.RoundResult)
}

// Manager owns every room. One lock guards all of them.
type Manager struct {
	mu       sync.Mutex
	cfg      Config
	rooms    map[string]*Room
	byPlayer map[string]string // playerID → roomID
	relay    *netsync.Relay
	rand     rng.Source
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager creates a lobby Manager. r picks seekers and maze seeds and must
// be safe for concurrent use if shared; rec may be nil.
func NewManager(cfg Config, r rng.Source, rec Recorder, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]string),
		relay:    netsync.NewRelay(cfg.PoseHz),
		rand:     r,
		recorder: rec,
		logger:   logger,
		now:      time.Now,
	}
}

type roomPayload struct {
	Room    RoomInfo     `json:"room"`
	Players []MemberInfo `json:"players"`
}

type playerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Create opens a room with s as host.
func (m *Manager) Create(s *player.PlayerSession, name string) (RoomInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byPlayer[s.PlayerID]; ok {
		return RoomInfo{}, ErrAlreadyInRoom
	}
	id := uuid.New().String()[:8]
	if name == "" {
		name = "Room " + id
	}
	room := &Room{ID: id, Name: name, HostID: s.PlayerID, MaxPlayers: m.cfg.MaxPlayers}
	room.members = append(room.members, &Member{Session: s, Role: RoleSurvivor, Alive: true})
	m.rooms[id] = room
	m.byPlayer[s.PlayerID] = id
	s.SetRoom(id)

	s.SendJSON(PktRoomJoined, roomPayload{Room: room.info(), Players: room.memberInfo()})
	m.logger.Info("lobby room created",
		zap.String("room_id", id),
		zap.String("host_id", s.PlayerID))
	return room.info(), nil
}

// Join adds s to an open room.
func (m *Manager) Join(roomID string, s *player.PlayerSession) (RoomInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byPlayer[s.PlayerID]; ok {
		return RoomInfo{}, ErrAlreadyInRoom
	}
	room, ok := m.rooms[roomID]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	if room.started {
		return RoomInfo{}, ErrGameStarted
	}
	if len(room.members) >= room.MaxPlayers {
		return RoomInfo{}, ErrRoomFull
	}
	room.members = append(room.members, &Member{Session: s, Role: RoleSurvivor, Alive: true})
	m.byPlayer[s.PlayerID] = roomID
	s.SetRoom(roomID)

	room.broadcast(PktPlayerJoined, playerRef{ID: s.PlayerID, Name: s.Name})
	s.SendJSON(PktRoomJoined, roomPayload{Room: room.info(), Players: room.memberInfo()})
	room.broadcast(PktRoomUpdate, roomPayload{Room: room.info(), Players: room.memberInfo()})
	return room.info(), nil
}

// Leave removes the player from their room. A survivor leaving a running
// game counts as caught; the seeker leaving hands the win to the survivors.
func (m *Manager) Leave(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, err := m.roomOf(playerID)
	if err != nil {
		return err
	}
	mem := room.remove(playerID)
	delete(m.byPlayer, playerID)
	m.relay.Forget(playerID)
	mem.Session.SetRoom("")
	mem.Session.SendJSON(PktRoomLeft, struct{}{})
	room.broadcast(PktPlayerLeft, playerRef{ID: playerID, Name: mem.Session.Name})

	if room.started {
		switch {
		case mem.Role == RoleSeeker:
			m.end(room, model.WinnerSurvivors)
		case mem.Alive:
			room.caught = append(room.caught, playerID)
			if len(room.aliveSurvivors()) == 0 {
				m.end(room, model.WinnerSeeker)
			}
		}
	}
	if len(room.members) == 0 {
		delete(m.rooms, room.ID)
		m.logger.Info("lobby room closed", zap.String("room_id", room.ID))
		return nil
	}
	room.broadcast(PktRoomUpdate, roomPayload{Room: room.info(), Players: room.memberInfo()})
	return nil
}

// ToggleSeeker flips the player's wish to be the seeker and returns it.
func (m *Manager) ToggleSeeker(playerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, err := m.roomOf(playerID)
	if err != nil {
		return false, err
	}
	if room.started {
		return false, ErrGameStarted
	}
	mem := room.member(playerID)
	mem.WantsSeeker = !mem.WantsSeeker
	room.broadcast(PktRoomUpdate, roomPayload{Room: room.info(), Players: room.memberInfo()})
	return mem.WantsSeeker, nil
}

type gameStarted struct {
	Players  []MemberInfo `json:"players"`
	SeekerID string       `json:"seeker_id"`
	Seed     int64        `json:"seed"`
	GameTime int          `json:"game_time"`
}

// Start assigns roles and starts the round. Only the host may start.
func (m *Manager) Start(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, err := m.roomOf(playerID)
	if err != nil {
		return err
	}
	if room.HostID != playerID {
		return ErrNotHost
	}
	if room.started {
		return ErrGameStarted
	}
	if len(room.members) < minPlayers {
		return ErrNotEnoughPlayers
	}

	var candidates []*Member
	for _, mem := range room.members {
		if mem.WantsSeeker {
			candidates = append(candidates, mem)
		}
	}
	if len(candidates) == 0 {
		candidates = room.members
	}
	seeker := candidates[m.rand.Intn(len(candidates))]
	for _, mem := range room.members {
		mem.Role = RoleSurvivor
		mem.Alive = true
		// waiting-room poses are not round positions
		m.relay.Forget(mem.ID())
	}
	seeker.Role = RoleSeeker

	now := m.now()
	room.started = true
	room.startedAt = now
	room.lastTick = now
	room.deadline = now.Add(m.cfg.RoundDuration)
	room.seed = int64(m.rand.Intn(math.MaxInt32))
	room.seekerID = seeker.ID()
	room.caught = nil
	room.aura = ability.NewAura(seeker.ID(), m.cfg.Ability, events.SinkFunc(func(e events.Event) {
		seeker.Session.SendJSON(PktAbility, e)
	}))

	room.broadcast(PktGameStarted, gameStarted{
		Players:  room.memberInfo(),
		SeekerID: room.seekerID,
		Seed:     room.seed,
		GameTime: int(m.cfg.RoundDuration / time.Second),
	})
	m.logger.Info("lobby game started",
		zap.String("room_id", room.ID),
		zap.String("seeker_id", room.seekerID),
		zap.Int("players", len(room.members)),
		zap.Int64("seed", room.seed))
	return nil
}

// ReportCaught marks targetID as caught on the seeker's word. When both
// poses are known they must be within CatchDistance.
func (m *Manager) ReportCaught(seekerID, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, err := m.roomOf(seekerID)
	if err != nil {
		return err
	}
	if !room.started {
		return ErrGameNotStarted
	}
	if room.seekerID != seekerID {
		return ErrNotSeeker
	}
	target := room.member(targetID)
	if target == nil || target.Role != RoleSurvivor || !target.Alive {
		return ErrInvalidTarget
	}
	if m.cfg.CatchDistance > 0 {
		sp, ok1 := m.relay.Last(seekerID)
		tp, ok2 := m.relay.Last(targetID)
		if ok1 && ok2 && sp.Position.Dist(tp.Position) > m.cfg.CatchDistance+poseSlack {
			return ErrTooFar
		}
	}

	target.Alive = false
	room.caught = append(room.caught, targetID)
	room.broadcast(PktPlayerDied, playerRef{ID: targetID, Name: target.Session.Name})
	if len(room.aliveSurvivors()) == 0 {
		m.end(room, model.WinnerSeeker)
	}
	return nil
}

type auraReveal struct {
	Cooldown float64        `json:"cooldown"`
	Targets  []netsync.Pose `json:"targets"`
}

// UseAbility activates the seeker's aura vision.
func (m *Manager) UseAbility(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, err := m.roomOf(playerID)
	if err != nil {
		return err
	}
	if !room.started {
		return ErrGameNotStarted
	}
	if room.seekerID != playerID {
		return ErrNotSeeker
	}
	if err := room.aura.Activate(); err != nil {
		return err
	}
	m.reveal(room)
	return nil
}

// reveal sends every live survivor's last pose to the seeker.
func (m *Manager) reveal(room *Room) {
	seeker := room.member(room.seekerID)
	if seeker == nil {
		return
	}
	msg := auraReveal{Cooldown: room.aura.CooldownFraction()}
	for _, s := range room.aliveSurvivors() {
		if p, ok := m.relay.Last(s.ID()); ok {
			msg.Targets = append(msg.Targets, p)
		}
	}
	seeker.Session.SendJSON(PktAuraReveal, msg)
}

// Pose relays a position report to the rest of the room. binary selects a
// msgpack frame over a JSON packet. It reports whether the pose was
// forwarded; reports over the rate limit are dropped.
func (m *Manager) Pose(playerID string, p netsync.Pose, binary bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, err := m.roomOf(playerID)
	if err != nil {
		return false, err
	}
	p.ID = playerID
	if !m.relay.Accept(p, m.now()) {
		return false, nil
	}
	if !binary {
		room.broadcastExcept(playerID, PktPlayerMoved, p)
		return true, nil
	}
	frame, err := netsync.Encode(p)
	if err != nil {
		return false, err
	}
	for _, mem := range room.members {
		if mem.ID() != playerID {
			mem.Session.SendBinary(frame)
		}
	}
	return true, nil
}

type gameTime struct {
	Time int `json:"time"`
}

// Tick advances every running game to now: the seeker's aura, the round
// clock and its timeout.
func (m *Manager) Tick(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, room := range m.rooms {
		if !room.started {
			continue
		}
		dt := now.Sub(room.lastTick)
		room.lastTick = now
		if room.aura != nil && dt > 0 {
			room.aura.Tick(dt)
			if room.aura.Active() {
				m.reveal(room)
			}
		}
		left := room.deadline.Sub(now)
		if left <= 0 {
			m.end(room, model.WinnerSurvivors)
			continue
		}
		room.broadcast(PktGameTime, gameTime{Time: int(math.Ceil(left.Seconds()))})
	}
}

type gameEnded struct {
	Winner        string   `json:"winner"`
	CaughtPlayers []string `json:"caught_players"`
}

// end closes the running game and returns the room to waiting.
func (m *Manager) end(room *Room, winner string) {
	elapsed := m.now().Sub(room.startedAt)
	detail := model.RoundDetail{Seeker: room.seekerID, CaughtIDs: room.caught}
	for _, s := range room.aliveSurvivors() {
		detail.Survivors = append(detail.Survivors, s.ID())
	}
	caught := append([]string{}, room.caught...)
	room.broadcast(PktGameEnded, gameEnded{Winner: winner, CaughtPlayers: caught})

	if m.recorder != nil {
		raw, _ := json.Marshal(detail)
		m.recorder.Record(model.RoundResult{
			Mode:       model.ModeLobby,
			RoomID:     room.ID,
			Winner:     winner,
			Players:    len(room.members),
			Caught:     len(caught),
			DurationMs: elapsed.Milliseconds(),
			Seed:       room.seed,
			Detail:     datatypes.JSON(raw),
		})
	}
	m.logger.Info("lobby game ended",
		zap.String("room_id", room.ID),
		zap.String("winner", winner),
		zap.Int("caught", len(caught)),
		zap.Duration("elapsed", elapsed))

	room.resetRoles()
	room.caught = nil
	room.broadcast(PktRoomUpdate, roomPayload{Room: room.info(), Players: room.memberInfo()})
}

func (m *Manager) roomOf(playerID string) (*Room, error) {
	id, ok := m.byPlayer[playerID]
	if !ok {
		return nil, ErrNotInRoom
	}
	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Rooms lists rooms that can still be joined.
func (m *Manager) Rooms() []RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		if !r.started && len(r.members) < r.MaxPlayers {
			out = append(out, r.info())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Room returns a room's listing and members.
func (m *Manager) Room(id string) (RoomInfo, []MemberInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return RoomInfo{}, nil, false
	}
	return r.info(), r.memberInfo(), true
}

// RoomCount returns the number of open rooms, started or not.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
