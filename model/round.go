package model

import (
	"time"

	"gorm.io/datatypes"
)

// Round modes.
const (
	ModeSingle = "single"
	ModeLobby  = "lobby"
)

// Round winners.
const (
	WinnerSeeker    = "seeker"
	WinnerSurvivors = "survivors"
)

// RoundResult is the outcome of one finished round. Only the maze seed is
// kept; the maze itself is regenerated on demand.
type RoundResult struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Mode       string         `gorm:"size:16;not null;index:idx_round_mode" json:"mode"`
	RoomID     string         `gorm:"size:36;index:idx_round_room" json:"room_id"`
	Winner     string         `gorm:"size:16;not null" json:"winner"`
	Players    int            `json:"players"`
	Caught     int            `json:"caught"`
	DurationMs int64          `json:"duration_ms"`
	Seed       int64          `json:"seed"`
	Detail     datatypes.JSON `json:"detail"`
	CreatedAt  time.Time      `gorm:"index:idx_round_created;autoCreateTime:milli" json:"created_at"`
}

// RoundDetail is the JSON stored in RoundResult.Detail.
type RoundDetail struct {
	Seeker    string   `json:"seeker,omitempty"`
	Survivors []string `json:"survivors,omitempty"`
	CaughtIDs []string `json:"caught_ids,omitempty"`
	CaughtBy  string   `json:"caught_by,omitempty"`
}
