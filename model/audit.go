package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records lobby and round actions taken by players.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:36;not null" json:"trace_id"`
	PlayerID   string         `gorm:"index:idx_audit_player;size:36" json:"player_id"`
	PlayerName string         `gorm:"size:32" json:"player_name"`
	RoomID     string         `gorm:"size:36" json:"room_id"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	Request    datatypes.JSON `json:"request"`
	Error      string         `gorm:"type:text" json:"error"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
