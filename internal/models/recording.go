package models

import (
	"time"

	"github.com/google/uuid"
)

// Recording status values.
const (
	RecordingStatusPending   = "pending"
	RecordingStatusCompleted = "completed"
	RecordingStatusFailed    = "failed"
)

// Recording is stored metadata for an interview room recording. The media
// itself lives in S3 once the worker has mirrored it from the provider URL.
type Recording struct {
	ID              uuid.UUID `json:"id"`
	InterviewID     uuid.UUID `json:"interview_id"`
	Status          string    `json:"status"`
	ProviderURL     string    `json:"-"`
	S3Key           string    `json:"-"`
	S3URL           string    `json:"s3_url,omitempty"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
