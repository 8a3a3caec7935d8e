package ws

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"

	"github.com/kasuganosora/neonmaze/game/movement"
	"github.com/kasuganosora/neonmaze/game/player"
	"github.com/kasuganosora/neonmaze/game/world"
	"go.uber.org/zap"
)

var errNoSim = errors.New("no round running")

// SimHandlers bundles the single-player round handlers.
type SimHandlers struct {
	wm     *world.Manager
	logger *zap.Logger
}

func NewSimHandlers(wm *world.Manager, logger *zap.Logger) *SimHandlers {
	return &SimHandlers{wm: wm, logger: logger}
}

// RegisterHandlers registers the sim handlers and ping on the given Router.
func (h *SimHandlers) RegisterHandlers(r *Router) {
	r.On("ping", h.HandlePing)
	r.On("sim_start", h.HandleStart)
	r.On("sim_input", h.HandleInput)
	r.On("sim_ability", h.HandleAbility)
	r.On("sim_stop", h.HandleStop)
}

type pingPayload struct {
	TS int64 `json:"ts"`
}

// HandlePing responds to client heartbeat pings.
func (h *SimHandlers) HandlePing(_ context.Context, s *player.PlayerSession, raw json.RawMessage) error {
	var p pingPayload
	_ = json.Unmarshal(raw, &p)
	s.SendHeartbeatPong(p.TS)
	return nil
}

type simStartReq struct {
	// Seed pins the maze; omitted means random.
	Seed *int64 `json:"seed,omitempty"`
}

// HandleStart starts a new round, replacing any the player already runs.
// The room answers with sim_init.
func (h *SimHandlers) HandleStart(_ context.Context, s *player.PlayerSession, raw json.RawMessage) error {
	var req simStartReq
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
	}
	seed := rand.Int63n(math.MaxInt32)
	if req.Seed != nil {
		seed = *req.Seed
	}
	_, err := h.wm.Start(s, seed)
	return err
}

// HandleInput stores the player's current intent for the next tick.
func (h *SimHandlers) HandleInput(_ context.Context, s *player.PlayerSession, raw json.RawMessage) error {
	room := h.wm.Get(s.Sim())
	if room == nil {
		return errNoSim
	}
	var in movement.Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	room.SetInput(in)
	return nil
}

// HandleAbility fires the player's aura on the next tick. Cooldown
// refusals surface through the ability fraction in sim_state.
func (h *SimHandlers) HandleAbility(_ context.Context, s *player.PlayerSession, _ json.RawMessage) error {
	room := h.wm.Get(s.Sim())
	if room == nil {
		return errNoSim
	}
	room.UseAbility()
	return nil
}

// HandleStop ends the player's round without recording it.
func (h *SimHandlers) HandleStop(_ context.Context, s *player.PlayerSession, _ json.RawMessage) error {
	id := s.Sim()
	if id == "" {
		return errNoSim
	}
	h.wm.Destroy(id)
	return nil
}
