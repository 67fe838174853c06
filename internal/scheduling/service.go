package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermock/backend/internal/models"
)

// PointsLedger is the external points collaborator. Debit must join the
// transaction carried in ctx so a failed debit rolls the booking back.
type PointsLedger interface {
	Debit(ctx context.Context, userID uuid.UUID, amount int, reason string) error
	Credit(ctx context.Context, userID uuid.UUID, amount int, reason string) error
}

// Notifier delivers realtime events to a user. Implementations must be safe
// to call after the enclosing transaction has committed.
type Notifier interface {
	NotifyUser(userID uuid.UUID, event string, payload any)
}

// NopNotifier discards events (worker, tests).
type NopNotifier struct{}

// NotifyUser implements Notifier.
func (NopNotifier) NotifyUser(uuid.UUID, string, any) {}

// Realtime event names emitted by the service.
const (
	EventInterviewBooked    = "interview_booked"
	EventInterviewCancelled = "interview_cancelled"
	EventInterviewStarted   = "interview_started"
)

// Service orchestrates time validation, room allocation and the booking
// ledger, and owns the transaction boundary around them.
type Service struct {
	store       Store
	ledger      *Ledger
	validator   *TimeValidator
	allocator   *RoomAllocator
	points      PointsLedger
	notifier    Notifier
	bookingCost int
	clock       func() time.Time
	logger      *zap.Logger
}

// NewService wires the scheduling service. A nil notifier falls back to
// NopNotifier, a nil clock to time.Now.
func NewService(store Store, points PointsLedger, notifier Notifier, buffer time.Duration, bookingCost int, clock func() time.Time, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		ledger:      NewLedger(store, clock, logger),
		validator:   NewTimeValidator(buffer),
		allocator:   NewRoomAllocator(store, logger),
		points:      points,
		notifier:    notifier,
		bookingCost: bookingCost,
		clock:       clock,
		logger:      logger,
	}
}

// CreateInterviewParams is the input for CreateInterview.
type CreateInterviewParams struct {
	InterviewerID   uuid.UUID
	ScheduledTime   time.Time
	VideoType       models.VideoType
	MeetingLink     string // required for google_meet
	RoomName        string
	MaxParticipants int
	RoomSettings    *models.RoomSettings
}

// CreateInterview validates the start time, allocates the video room or
// normalizes the manual link, and inserts the slot, all in one transaction.
// A failure at any step leaves neither an orphan room nor a partial slot.
func (s *Service) CreateInterview(ctx context.Context, p CreateInterviewParams) (*models.Interview, error) {
	if !p.VideoType.Valid() {
		return nil, &ValidationError{Field: "video_type", Reason: "must be google_meet or built_in"}
	}
	if err := s.validator.Validate(p.ScheduledTime, s.clock()); err != nil {
		return nil, err
	}

	iv := &models.Interview{
		InterviewerID: p.InterviewerID,
		ScheduledTime: p.ScheduledTime.UTC(),
		Status:        models.StatusPending,
		VideoType:     p.VideoType,
	}
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		switch p.VideoType {
		case models.VideoTypeBuiltIn:
			room, err := s.allocator.AllocateBuiltIn(ctx, p.InterviewerID, RoomParams{
				Name:            p.RoomName,
				IsPrivate:       true,
				MaxParticipants: p.MaxParticipants,
				ScheduledStart:  p.ScheduledTime,
				Settings:        p.RoomSettings,
			})
			if err != nil {
				return err
			}
			iv.VideoRoomID = &room.ID
			// The shareable link and the room code never diverge.
			iv.MeetingLink = "/rooms/" + room.Code
		case models.VideoTypeGoogleMeet:
			link, err := NormalizeMeetingLink(p.MeetingLink)
			if err != nil {
				return err
			}
			iv.MeetingLink = link
		}
		return s.store.CreateInterview(ctx, iv)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("interview slot created",
		zap.String("interview_id", iv.ID.String()),
		zap.String("video_type", string(iv.VideoType)),
		zap.Time("scheduled_time", iv.ScheduledTime))
	return iv, nil
}

// BookInterview books a pending slot for intervieweeID and debits the
// booking cost inside the same transaction. No state exists where the slot
// is booked but the debit failed, or vice versa.
func (s *Service) BookInterview(ctx context.Context, interviewID, intervieweeID uuid.UUID) (*models.Interview, error) {
	var booked *models.Interview
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		iv, err := s.ledger.Book(ctx, interviewID, intervieweeID)
		if err != nil {
			return err
		}
		if s.bookingCost > 0 {
			if err := s.points.Debit(ctx, intervieweeID, s.bookingCost, "interview booking"); err != nil {
				return err
			}
		}
		booked = iv
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyUser(booked.InterviewerID, EventInterviewBooked, booked)
	return booked, nil
}

// CancelInterview cancels a pending or booked slot on behalf of a
// participant and notifies the counterparty.
func (s *Service) CancelInterview(ctx context.Context, interviewID, actorID uuid.UUID) (*models.Interview, error) {
	var cancelled *models.Interview
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		iv, err := s.ledger.Cancel(ctx, interviewID, actorID)
		if err != nil {
			return err
		}
		if err := s.closeRoom(ctx, iv); err != nil {
			return err
		}
		cancelled = iv
		return nil
	})
	if err != nil {
		return nil, err
	}
	if other := counterparty(cancelled, actorID); other != nil {
		s.notifier.NotifyUser(*other, EventInterviewCancelled, cancelled)
	}
	return cancelled, nil
}

// StartInterview moves a booked interview to in_progress when a participant
// joins, and notifies the other side.
func (s *Service) StartInterview(ctx context.Context, interviewID, actorID uuid.UUID) (*models.Interview, error) {
	iv, err := s.ledger.Start(ctx, interviewID, actorID)
	if err != nil {
		return nil, err
	}
	if other := counterparty(iv, actorID); other != nil {
		s.notifier.NotifyUser(*other, EventInterviewStarted, iv)
	}
	return iv, nil
}

// CompleteInterview marks an interview completed (administrative, idempotent)
// and closes its room.
func (s *Service) CompleteInterview(ctx context.Context, interviewID uuid.UUID) (*models.Interview, error) {
	var iv *models.Interview
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		closed, err := s.ledger.MarkCompleted(ctx, interviewID)
		if err != nil {
			return err
		}
		iv = closed
		return s.closeRoom(ctx, closed)
	})
	if err != nil {
		return nil, err
	}
	return iv, nil
}

// MarkNoShow marks an interview no_show (administrative or sweeper-driven,
// idempotent) and closes its room.
func (s *Service) MarkNoShow(ctx context.Context, interviewID uuid.UUID) (*models.Interview, error) {
	var iv *models.Interview
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		closed, err := s.ledger.MarkNoShow(ctx, interviewID)
		if err != nil {
			return err
		}
		iv = closed
		return s.closeRoom(ctx, closed)
	})
	if err != nil {
		return nil, err
	}
	return iv, nil
}

// closeRoom deactivates the room bound to a terminally closed interview so
// its shareable link stops resolving.
func (s *Service) closeRoom(ctx context.Context, iv *models.Interview) error {
	if iv.VideoRoomID == nil {
		return nil
	}
	return s.store.SetRoomActive(ctx, *iv.VideoRoomID, false)
}

// GetInterview returns an interview and, for built_in slots, its room.
func (s *Service) GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, *models.VideoRoom, error) {
	iv, err := s.store.GetInterview(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if iv.VideoRoomID == nil {
		return iv, nil, nil
	}
	room, err := s.store.GetRoom(ctx, *iv.VideoRoomID)
	if err != nil {
		return nil, nil, err
	}
	return iv, room, nil
}

// ListInterviews returns interviews matching the filter.
func (s *Service) ListInterviews(ctx context.Context, f InterviewFilter) ([]models.Interview, error) {
	return s.store.ListInterviews(ctx, f)
}

// DeleteInterview removes a slot and cascades its room. Only the creator may
// delete, and only while the slot is pending or cancelled; booked slots must
// be cancelled first so the interviewee is notified.
func (s *Service) DeleteInterview(ctx context.Context, interviewID, actorID uuid.UUID) error {
	return s.store.InTx(ctx, func(ctx context.Context) error {
		iv, err := s.store.GetInterview(ctx, interviewID)
		if err != nil {
			return err
		}
		if iv.InterviewerID != actorID {
			return ErrForbidden
		}
		if iv.Status != models.StatusPending && iv.Status != models.StatusCancelled {
			return &InvalidTransitionError{From: iv.Status, To: models.StatusCancelled}
		}
		return s.store.DeleteInterview(ctx, interviewID)
	})
}

// SweepNoShows marks overdue booked/in_progress interviews as no_show and
// returns how many were closed. Grace shifts the cutoff back from now.
func (s *Service) SweepNoShows(ctx context.Context, grace time.Duration, limit int) (int, error) {
	cutoff := s.clock().Add(-grace)
	overdue, err := s.store.ListOverdueBooked(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	swept := 0
	for i := range overdue {
		if _, err := s.MarkNoShow(ctx, overdue[i].ID); err != nil {
			s.logger.Warn("no-show sweep failed for interview",
				zap.String("interview_id", overdue[i].ID.String()), zap.Error(err))
			continue
		}
		swept++
	}
	return swept, nil
}

func counterparty(iv *models.Interview, actorID uuid.UUID) *uuid.UUID {
	if iv.InterviewerID != actorID {
		id := iv.InterviewerID
		return &id
	}
	if iv.IntervieweeID != nil && *iv.IntervieweeID != actorID {
		return iv.IntervieweeID
	}
	return nil
}
