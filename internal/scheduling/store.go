package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/peermock/backend/internal/models"
)

// StatusChange is the field set applied by a conditional status update.
// IntervieweeID is only set by the pending->booked transition.
type StatusChange struct {
	Status        models.InterviewStatus
	IntervieweeID *uuid.UUID
}

// InterviewFilter narrows ListInterviews.
type InterviewFilter struct {
	Status        models.InterviewStatus // empty = any
	InterviewerID *uuid.UUID
	ParticipantID *uuid.UUID // matches either side
	Limit         int
}

// Store is the persistence boundary for the scheduling core.
//
// UpdateInterviewStatus must be a conditional write (compare-and-swap on
// status), not read-then-write: under concurrent bookings exactly one caller
// may observe matched=true. CreateRoom must surface ErrRoomCodeTaken on a
// code uniqueness violation so the allocator can resample.
type Store interface {
	// InTx runs fn inside one transaction; every Store and points-ledger
	// call made with the derived context joins it.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error)
	ListInterviews(ctx context.Context, f InterviewFilter) ([]models.Interview, error)
	// ListOverdueBooked returns booked/in_progress interviews whose
	// scheduled time is before the given instant (no-show sweeping).
	ListOverdueBooked(ctx context.Context, before time.Time, limit int) ([]models.Interview, error)
	CreateInterview(ctx context.Context, iv *models.Interview) error
	// DeleteInterview removes the interview and its bound room, if any.
	DeleteInterview(ctx context.Context, id uuid.UUID) error
	// UpdateInterviewStatus applies change iff the current status is one of
	// expect. Returns the updated row and whether the guard matched.
	UpdateInterviewStatus(ctx context.Context, id uuid.UUID, expect []models.InterviewStatus, change StatusChange) (*models.Interview, bool, error)

	CreateRoom(ctx context.Context, room *models.VideoRoom) error
	GetRoom(ctx context.Context, id uuid.UUID) (*models.VideoRoom, error)
	// SetRoomActive opens or closes a room; closed rooms stop resolving via
	// their shareable code.
	SetRoomActive(ctx context.Context, id uuid.UUID, active bool) error
}
