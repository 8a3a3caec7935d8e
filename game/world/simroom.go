package world

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kasuganosora/neonmaze/game/events"
	"github.com/kasuganosora/neonmaze/game/movement"
	"github.com/kasuganosora/neonmaze/game/player"
	"github.com/kasuganosora/neonmaze/game/rng"
	"github.com/kasuganosora/neonmaze/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Recorder receives finished rounds.
type Recorder interface {
	Record(model.RoundResult)
}

// Outbound packet types.
const (
	PktSimInit  = "sim_init"
	PktSimState = "sim_state"
	PktSimEvent = "sim_event"
	PktSimEnd   = "sim_end"
)

// SimInit is sent once when a room starts. The client rebuilds the maze from
// the wall list.
type SimInit struct {
	RoomID   string     `json:"room_id"`
	Seed     int64      `json:"seed"`
	Size     int        `json:"size"`
	CellSize float64    `json:"cell_size"`
	Walls    []wallJSON `json:"walls"`
	State    Snapshot   `json:"state"`
}

type wallJSON struct {
	Center [3]float64 `json:"c"`
	Half   [3]float64 `json:"h"`
}

// SimEnd is the last packet a room sends.
type SimEnd struct {
	RoomID   string  `json:"room_id"`
	Outcome  string  `json:"outcome"`
	CaughtBy string  `json:"caught_by,omitempty"`
	Elapsed  float64 `json:"elapsed"`
}

// SimRoom runs one Session on its own ticker and streams it to the owner.
type SimRoom struct {
	ID    string
	Seed  int64
	owner *player.PlayerSession

	session  *Session
	interval time.Duration
	pending  []events.Event

	mu      sync.Mutex // guards input, jump and ability
	input   movement.Input
	jump    bool
	ability bool

	lastInput atomic.Int64 // unix nano
	finished  atomic.Bool
	stopCh    chan struct{}
	stopOnce  sync.Once
	done      chan struct{}

	recorder Recorder
	logger   *zap.Logger
}

// newSimRoom builds the session but does not start the loop.
func newSimRoom(id string, seed int64, cfg Config, owner *player.PlayerSession, rec Recorder, logger *zap.Logger) (*SimRoom, error) {
	room := &SimRoom{
		ID:       id,
		Seed:     seed,
		owner:    owner,
		interval: cfg.TickInterval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		recorder: rec,
		logger:   logger,
	}
	if room.interval <= 0 {
		room.interval = 50 * time.Millisecond
	}
	sess, err := NewSession(cfg, rng.New(seed), events.SinkFunc(room.collect))
	if err != nil {
		return nil, err
	}
	room.session = sess
	room.lastInput.Store(time.Now().UnixNano())
	return room, nil
}

// collect runs inside the tick; sprint changes travel in the snapshot.
func (room *SimRoom) collect(e events.Event) {
	if e.Kind == events.SprintChanged {
		return
	}
	room.pending = append(room.pending, e)
}

// SetInput replaces the intent read by the next tick. A jump stays latched
// until a tick consumes it.
func (room *SimRoom) SetInput(in movement.Input) {
	room.mu.Lock()
	room.input = in
	room.jump = room.jump || in.Jump
	room.mu.Unlock()
	room.lastInput.Store(time.Now().UnixNano())
}

// UseAbility asks the next tick to fire the player's aura.
func (room *SimRoom) UseAbility() {
	room.mu.Lock()
	room.ability = true
	room.mu.Unlock()
	room.lastInput.Store(time.Now().UnixNano())
}

func (room *SimRoom) takeAbility() bool {
	room.mu.Lock()
	defer room.mu.Unlock()
	fire := room.ability
	room.ability = false
	return fire
}

func (room *SimRoom) takeInput() movement.Input {
	room.mu.Lock()
	defer room.mu.Unlock()
	in := room.input
	in.Jump = room.jump
	room.jump = false
	return in
}

// Run drives the session until the round ends or Stop is called.
// Call in a goroutine.
func (room *SimRoom) Run() {
	defer close(room.done)
	room.sendInit()

	ticker := time.NewTicker(room.interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			// a stalled loop must not tunnel actors through walls
			if dt > 2*room.interval {
				dt = 2 * room.interval
			}
			if room.owner.IsClosed() {
				return
			}
			if room.step(dt) {
				return
			}
		case <-room.stopCh:
			return
		}
	}
}

// step advances one tick and reports whether the round is over.
func (room *SimRoom) step(dt time.Duration) bool {
	if room.takeAbility() {
		if err := room.session.UseAbility(); err != nil {
			room.logger.Debug("sim ability refused", zap.String("room_id", room.ID), zap.Error(err))
		}
	}
	outcome := room.session.Tick(dt, room.takeInput())
	for _, e := range room.pending {
		room.owner.SendJSON(PktSimEvent, e)
	}
	room.pending = room.pending[:0]
	room.owner.SendJSON(PktSimState, room.session.Snapshot())
	if outcome == OutcomeNone {
		return false
	}
	room.end(outcome)
	return true
}

func (room *SimRoom) end(o Outcome) {
	room.finished.Store(true)
	elapsed := room.session.Elapsed()
	room.owner.SendJSON(PktSimEnd, SimEnd{
		RoomID:   room.ID,
		Outcome:  o.String(),
		CaughtBy: room.session.CaughtBy(),
		Elapsed:  elapsed.Seconds(),
	})
	room.logger.Info("sim round ended",
		zap.String("room_id", room.ID),
		zap.String("player_id", room.owner.PlayerID),
		zap.String("outcome", o.String()),
		zap.Duration("elapsed", elapsed))
	if room.recorder == nil {
		return
	}
	detail := model.RoundDetail{CaughtBy: room.session.CaughtBy()}
	winner := model.WinnerSeeker
	caught := 1
	if o == OutcomeSurvived {
		winner = model.WinnerSurvivors
		caught = 0
		detail.Survivors = []string{room.owner.PlayerID}
	} else {
		detail.CaughtIDs = []string{room.owner.PlayerID}
	}
	raw, _ := json.Marshal(detail)
	room.recorder.Record(model.RoundResult{
		Mode:       model.ModeSingle,
		RoomID:     room.ID,
		Winner:     winner,
		Players:    1,
		Caught:     caught,
		DurationMs: elapsed.Milliseconds(),
		Seed:       room.Seed,
		Detail:     datatypes.JSON(raw),
	})
}

func (room *SimRoom) sendInit() {
	walls := room.session.Walls()
	wj := make([]wallJSON, len(walls))
	for i, w := range walls {
		wj[i] = wallJSON{
			Center: [3]float64{w.Center.X, w.Center.Y, w.Center.Z},
			Half:   [3]float64{w.Half.X, w.Half.Y, w.Half.Z},
		}
	}
	room.owner.SendJSON(PktSimInit, SimInit{
		RoomID:   room.ID,
		Seed:     room.Seed,
		Size:     room.session.Grid().Size,
		CellSize: room.session.cfg.Maze.CellSize,
		Walls:    wj,
		State:    room.session.Snapshot(),
	})
}

// Stop signals the loop to exit. It is safe to call more than once.
func (room *SimRoom) Stop() {
	room.stopOnce.Do(func() { close(room.stopCh) })
}

// Done is closed when Run has returned.
func (room *SimRoom) Done() <-chan struct{} { return room.done }

// Finished reports whether the round reached an outcome.
func (room *SimRoom) Finished() bool { return room.finished.Load() }

// Owner is the player the room streams to.
func (room *SimRoom) Owner() *player.PlayerSession { return room.owner }

// IdleFor is the time since the last input.
func (room *SimRoom) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, room.lastInput.Load()))
}
