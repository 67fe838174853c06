package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermock/backend/internal/models"
)

// transitions is the interview state machine:
//
//	pending    -> booked, cancelled
//	booked     -> in_progress, completed, no_show, cancelled
//	in_progress -> completed, no_show
//
// completed, no_show and cancelled are terminal.
var transitions = map[models.InterviewStatus][]models.InterviewStatus{
	models.StatusPending:    {models.StatusBooked, models.StatusCancelled},
	models.StatusBooked:     {models.StatusInProgress, models.StatusCompleted, models.StatusNoShow, models.StatusCancelled},
	models.StatusInProgress: {models.StatusCompleted, models.StatusNoShow},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to models.InterviewStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Ledger executes interview state transitions against the store. Every
// concurrency-sensitive transition is a conditional write; a race loser gets
// a typed error, never a silent overwrite.
type Ledger struct {
	store  Store
	clock  func() time.Time
	logger *zap.Logger
}

// NewLedger creates a booking ledger. A nil clock defaults to time.Now.
func NewLedger(store Store, clock func() time.Time, logger *zap.Logger) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, clock: clock, logger: logger}
}

// Book transitions pending -> booked for intervieweeID. Exactly one of any
// set of concurrent callers wins; the rest get ErrSlotTaken. Self-booking is
// rejected before any write reaches the store.
func (l *Ledger) Book(ctx context.Context, id, intervieweeID uuid.UUID) (*models.Interview, error) {
	iv, err := l.store.GetInterview(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.InterviewerID == intervieweeID {
		return nil, &ValidationError{Field: "interviewee_id", Reason: "cannot book your own slot"}
	}
	updated, ok, err := l.store.UpdateInterviewStatus(ctx, id,
		[]models.InterviewStatus{models.StatusPending},
		StatusChange{Status: models.StatusBooked, IntervieweeID: &intervieweeID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSlotTaken
	}
	l.logger.Info("interview booked",
		zap.String("interview_id", id.String()),
		zap.String("interviewee_id", intervieweeID.String()))
	return updated, nil
}

// Cancel transitions pending or booked -> cancelled. Only the interviewer or
// the interviewee may cancel.
func (l *Ledger) Cancel(ctx context.Context, id, actorID uuid.UUID) (*models.Interview, error) {
	iv, err := l.store.GetInterview(ctx, id)
	if err != nil {
		return nil, err
	}
	if !iv.IsParticipant(actorID) {
		return nil, ErrForbidden
	}
	updated, ok, err := l.store.UpdateInterviewStatus(ctx, id,
		[]models.InterviewStatus{models.StatusPending, models.StatusBooked},
		StatusChange{Status: models.StatusCancelled})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, l.invalidFrom(ctx, id, models.StatusCancelled)
	}
	l.logger.Info("interview cancelled",
		zap.String("interview_id", id.String()),
		zap.String("actor_id", actorID.String()))
	return updated, nil
}

// Start transitions booked -> in_progress when a participant joins the room.
func (l *Ledger) Start(ctx context.Context, id, actorID uuid.UUID) (*models.Interview, error) {
	iv, err := l.store.GetInterview(ctx, id)
	if err != nil {
		return nil, err
	}
	if !iv.IsParticipant(actorID) {
		return nil, ErrForbidden
	}
	updated, ok, err := l.store.UpdateInterviewStatus(ctx, id,
		[]models.InterviewStatus{models.StatusBooked},
		StatusChange{Status: models.StatusInProgress})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, l.invalidFrom(ctx, id, models.StatusInProgress)
	}
	return updated, nil
}

// MarkCompleted transitions booked or in_progress -> completed once the
// scheduled time has passed. Idempotent: a second call on an already
// completed interview is a no-op, not an error.
func (l *Ledger) MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	return l.markTerminal(ctx, id, models.StatusCompleted)
}

// MarkNoShow transitions booked or in_progress -> no_show once the scheduled
// time has passed. Idempotent on no_show.
func (l *Ledger) MarkNoShow(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	return l.markTerminal(ctx, id, models.StatusNoShow)
}

func (l *Ledger) markTerminal(ctx context.Context, id uuid.UUID, to models.InterviewStatus) (*models.Interview, error) {
	iv, err := l.store.GetInterview(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.Status == to {
		return iv, nil
	}
	if l.clock().Before(iv.ScheduledTime) {
		return nil, &ValidationError{Field: "scheduled_time", Reason: "interview has not started yet"}
	}
	updated, ok, err := l.store.UpdateInterviewStatus(ctx, id,
		[]models.InterviewStatus{models.StatusBooked, models.StatusInProgress},
		StatusChange{Status: to})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race: re-read and stay idempotent if someone else already
		// applied the same terminal state.
		current, err := l.store.GetInterview(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == to {
			return current, nil
		}
		return nil, &InvalidTransitionError{From: current.Status, To: to}
	}
	l.logger.Info("interview closed",
		zap.String("interview_id", id.String()),
		zap.String("status", string(to)))
	return updated, nil
}

func (l *Ledger) invalidFrom(ctx context.Context, id uuid.UUID, to models.InterviewStatus) error {
	current, err := l.store.GetInterview(ctx, id)
	if err != nil {
		return err
	}
	return &InvalidTransitionError{From: current.Status, To: to}
}
