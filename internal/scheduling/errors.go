package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/peermock/backend/internal/models"
)

// Sentinel errors surfaced to the service boundary. Handlers map these to
// HTTP statuses; nothing below the boundary swallows them.
var (
	ErrNotFound           = errors.New("interview not found")
	ErrRoomNotFound       = errors.New("video room not found")
	ErrSlotTaken          = errors.New("slot already booked")
	ErrForbidden          = errors.New("actor not permitted")
	ErrUnavailable        = errors.New("service temporarily unavailable")
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrRoomCodeTaken is internal to room allocation: the generated code
	// collided with an existing one and the allocator should resample.
	ErrRoomCodeTaken = errors.New("room code already taken")
)

// ValidationError reports bad input shape or range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TimeError reports a scheduled time that falls before the minimum valid
// instant. It carries both instants so callers can produce exact diagnostics.
type TimeError struct {
	Candidate time.Time
	MinValid  time.Time
}

// ShortBy returns how far the candidate falls short of the minimum.
func (e *TimeError) ShortBy() time.Duration {
	return e.MinValid.Sub(e.Candidate)
}

func (e *TimeError) Error() string {
	return fmt.Sprintf("scheduled time %s is %ds before the earliest allowed %s",
		e.Candidate.Format(time.RFC3339), int64(e.ShortBy().Seconds()), e.MinValid.Format(time.RFC3339))
}

// InvalidTransitionError reports a state-machine transition attempted from a
// state that does not allow it.
type InvalidTransitionError struct {
	From models.InterviewStatus
	To   models.InterviewStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition interview from %s to %s", e.From, e.To)
}
