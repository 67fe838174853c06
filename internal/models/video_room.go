package models

import (
	"time"

	"github.com/google/uuid"
)

// Room participant bounds.
const (
	RoomMinParticipants = 2
	RoomMaxParticipants = 50
)

// RoomSettings holds per-room feature toggles, stored as JSONB.
type RoomSettings struct {
	AllowScreenShare bool `json:"allow_screen_share"`
	AllowChat        bool `json:"allow_chat"`
	AllowRecording   bool `json:"allow_recording"`
}

// DefaultRoomSettings returns the toggles a new room starts with.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{AllowScreenShare: true, AllowChat: true, AllowRecording: false}
}

// VideoRoom is a platform-hosted room bound to a built_in interview.
// Code is a short, globally unique, human-shareable token.
type VideoRoom struct {
	ID              uuid.UUID    `json:"id"`
	Code            string       `json:"code"`
	HostID          uuid.UUID    `json:"host_id"`
	Name            string       `json:"name"`
	IsPrivate       bool         `json:"is_private"`
	MaxParticipants int          `json:"max_participants"`
	ScheduledStart  time.Time    `json:"scheduled_start"`
	IsActive        bool         `json:"is_active"`
	Settings        RoomSettings `json:"settings"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
