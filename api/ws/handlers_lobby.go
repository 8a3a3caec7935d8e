package ws

import (
	"context"
	"encoding/json"

	"github.com/kasuganosora/neonmaze/game/lobby"
	"github.com/kasuganosora/neonmaze/game/netsync"
	"github.com/kasuganosora/neonmaze/game/player"
	"go.uber.org/zap"
)

// LobbyHandlers bundles the multiplayer room handlers.
type LobbyHandlers struct {
	lm     *lobby.Manager
	logger *zap.Logger
}

func NewLobbyHandlers(lm *lobby.Manager, logger *zap.Logger) *LobbyHandlers {
	return &LobbyHandlers{lm: lm, logger: logger}
}

// RegisterHandlers registers all lobby handlers on the given Router,
// including the binary pose frame handler.
func (h *LobbyHandlers) RegisterHandlers(r *Router) {
	r.On("lobby_create", h.HandleCreate)
	r.On("lobby_join", h.HandleJoin)
	r.On("lobby_leave", h.HandleLeave)
	r.On("lobby_toggle_role", h.HandleToggleRole)
	r.On("lobby_start", h.HandleStart)
	r.On("lobby_caught", h.HandleCaught)
	r.On("lobby_ability", h.HandleAbility)
	r.On("pose", h.HandlePose)
	r.OnBinary(h.HandlePoseFrame)
}

type lobbyCreateReq struct {
	Name string `json:"name"`
}

func (h *LobbyHandlers) HandleCreate(_ context.Context, s *player.PlayerSession, raw json.RawMessage) error {
	var req lobbyCreateReq
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
	}
	_, err := h.lm.Create(s, req.Name)
	return err
}

type lobbyJoinReq struct {
	RoomID string `json:"room_id"`
}

func (h *LobbyHandlers) HandleJoin(_ context.Context, s *player.PlayerSession, raw json.RawMessage) error {
	var req lobbyJoinReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	_, err := h.lm.Join(req.RoomID, s)
	return err
}

func (h *LobbyHandlers) HandleLeave(_ context.Context, s *player.PlayerSession, _ json.RawMessage) error {
	return h.lm.Leave(s.PlayerID)
}

type toggleRoleResp struct {
	WantsSeeker bool `json:"wants_seeker"`
}

func (h *LobbyHandlers) HandleToggleRole(_ context.Context, s *player.PlayerSession, _ json.RawMessage) error {
	wants, err := h.lm.ToggleSeeker(s.PlayerID)
	if err != nil {
		return err
	}
	s.SendJSON("role_toggled", toggleRoleResp{WantsSeeker: wants})
	return nil
}

func (h *LobbyHandlers) HandleStart(_ context.Context, s *player.PlayerSession, _ json.RawMessage) error {
	return h.lm.Start(s.PlayerID)
}

type caughtReq struct {
	TargetID string `json:"target_id"`
}

// HandleCaught is the seeker's claim that it touched a survivor.
func (h *LobbyHandlers) HandleCaught(_ context.Context, s *player.PlayerSession, raw json.RawMessage) error {
	var req caughtReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	return h.lm.ReportCaught(s.PlayerID, req.TargetID)
}

func (h *LobbyHandlers) HandleAbility(_ context.Context, s *player.PlayerSession, _ json.RawMessage) error {
	return h.lm.UseAbility(s.PlayerID)
}

// HandlePose relays a JSON pose report.
func (h *LobbyHandlers) HandlePose(_ context.Context, s *player.PlayerSession, raw json.RawMessage) error {
	var p netsync.Pose
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	_, err := h.lm.Pose(s.PlayerID, p, false)
	return err
}

// HandlePoseFrame relays a msgpack pose frame.
func (h *LobbyHandlers) HandlePoseFrame(_ context.Context, s *player.PlayerSession, data []byte) error {
	p, err := netsync.Decode(data)
	if err != nil {
		return err
	}
	_, err = h.lm.Pose(s.PlayerID, p, true)
	return err
}
