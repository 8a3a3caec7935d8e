package lobby

import (
	"time"

	"github.com/kasuganosora/neonmaze/game/ability"
	"github.com/kasuganosora/neonmaze/game/player"
)

type Role string

const (
	RoleSurvivor Role = "survivor"
	RoleSeeker   Role = "seeker"
)

// Member is one player in a room.
type Member struct {
	Session     *player.PlayerSession
	Role        Role
	WantsSeeker bool
	Alive       bool
}

func (m *Member) ID() string { return m.Session.PlayerID }

// Room is a lobby room. All fields are guarded by the Manager's lock.
type Room struct {
	ID         string
	Name       string
	HostID     string
	MaxPlayers int

	members []*Member // join order, the next host is members[0]

	started   bool
	startedAt time.Time
	deadline  time.Time
	lastTick  time.Time
	seed      int64
	seekerID  string
	caught    []string
	aura      *ability.Aura
}

// RoomInfo is the public listing of a room.
type RoomInfo struct {
	RoomID         string `json:"room_id"`
	Name           string `json:"name"`
	HostID         string `json:"host_id"`
	MaxPlayers     int    `json:"max_players"`
	CurrentPlayers int    `json:"current_players"`
	GameStarted    bool   `json:"game_started"`
}

// MemberInfo is the public view of a member.
type MemberInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	WantsSeeker bool   `json:"wants_seeker"`
	Alive       bool   `json:"alive"`
}

func (r *Room) info() RoomInfo {
	return RoomInfo{
		RoomID:         r.ID,
		Name:           r.Name,
		HostID:         r.HostID,
		MaxPlayers:     r.MaxPlayers,
		CurrentPlayers: len(r.members),
		GameStarted:    r.started,
	}
}

func (r *Room) memberInfo() []MemberInfo {
	out := make([]MemberInfo, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, MemberInfo{
			ID:          m.ID(),
			Name:        m.Session.Name,
			Role:        m.Role,
			WantsSeeker: m.WantsSeeker,
			Alive:       m.Alive,
		})
	}
	return out
}

func (r *Room) member(id string) *Member {
	for _, m := range r.members {
		if m.ID() == id {
			return m
		}
	}
	return nil
}

func (r *Room) remove(id string) *Member {
	for i, m := range r.members {
		if m.ID() == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			if r.HostID == id && len(r.members) > 0 {
				r.HostID = r.members[0].ID()
			}
			return m
		}
	}
	return nil
}

// aliveSurvivors lists survivors not yet caught.
func (r *Room) aliveSurvivors() []*Member {
	var out []*Member
	for _, m := range r.members {
		if m.Role == RoleSurvivor && m.Alive {
			out = append(out, m)
		}
	}
	return out
}

func (r *Room) broadcast(t string, v interface{}) {
	for _, m := range r.members {
		m.Session.SendJSON(t, v)
	}
}

func (r *Room) broadcastExcept(id, t string, v interface{}) {
	for _, m := range r.members {
		if m.ID() != id {
			m.Session.SendJSON(t, v)
		}
	}
}

// resetRoles returns everyone to the waiting state after a game.
func (r *Room) resetRoles() {
	for _, m := range r.members {
		m.Role = RoleSurvivor
		m.Alive = true
		m.WantsSeeker = false
	}
	r.started = false
	r.seekerID = ""
	r.aura = nil
}
