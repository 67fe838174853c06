package models

import (
	"time"

	"github.com/google/uuid"
)

// InterviewStatus is the lifecycle state of a mock interview slot.
type InterviewStatus string

const (
	StatusPending    InterviewStatus = "pending"
	StatusBooked     InterviewStatus = "booked"
	StatusInProgress InterviewStatus = "in_progress"
	StatusCompleted  InterviewStatus = "completed"
	StatusNoShow     InterviewStatus = "no_show"
	StatusCancelled  InterviewStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible from s.
func (s InterviewStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

// VideoType selects how an interview's video session is provided.
type VideoType string

const (
	// VideoTypeGoogleMeet carries a manually supplied external meeting link.
	VideoTypeGoogleMeet VideoType = "google_meet"
	// VideoTypeBuiltIn binds a platform-hosted video room to the interview.
	VideoTypeBuiltIn VideoType = "built_in"
)

// Valid reports whether t is a known video type.
func (t VideoType) Valid() bool {
	return t == VideoTypeGoogleMeet || t == VideoTypeBuiltIn
}

// Interview is a mock interview slot. interviewee_id is null exactly while
// status is pending; once booked it is set and never changes.
type Interview struct {
	ID            uuid.UUID       `json:"id"`
	InterviewerID uuid.UUID       `json:"interviewer_id"`
	IntervieweeID *uuid.UUID      `json:"interviewee_id,omitempty"`
	ScheduledTime time.Time       `json:"scheduled_time"`
	Status        InterviewStatus `json:"status"`
	VideoType     VideoType       `json:"video_type"`
	MeetingLink   string          `json:"meeting_link"`
	VideoRoomID   *uuid.UUID      `json:"video_room_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsParticipant reports whether userID is the interviewer or the interviewee.
func (i *Interview) IsParticipant(userID uuid.UUID) bool {
	if i.InterviewerID == userID {
		return true
	}
	return i.IntervieweeID != nil && *i.IntervieweeID == userID
}
