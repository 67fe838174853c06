package scheduling

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/peermock/backend/internal/models"
)

// recordingNotifier captures NotifyUser calls.
type recordingNotifier struct {
	mu     sync.Mutex
	events []struct {
		UserID uuid.UUID
		Event  string
	}
}

func (n *recordingNotifier) NotifyUser(userID uuid.UUID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, struct {
		UserID uuid.UUID
		Event  string
	}{userID, event})
}

func newTestService(store *fakeStore, points *fakePoints, notifier Notifier, now time.Time) *Service {
	return NewService(store, points, notifier, time.Minute, 10, func() time.Time { return now }, nil)
}

func TestCreateInterviewBuiltInAllocatesRoom(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, newFakePoints(), nil, now)
	hostID := uuid.New()

	iv, err := svc.CreateInterview(context.Background(), CreateInterviewParams{
		InterviewerID: hostID,
		ScheduledTime: now.Add(time.Hour),
		VideoType:     models.VideoTypeBuiltIn,
		RoomName:      "System design practice",
	})
	if err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	if iv.VideoRoomID == nil {
		t.Fatal("built_in interview has no room")
	}
	room, err := store.GetRoom(context.Background(), *iv.VideoRoomID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if room.HostID != hostID {
		t.Errorf("room host = %s, want %s", room.HostID, hostID)
	}
	if want := "/rooms/" + room.Code; iv.MeetingLink != want {
		t.Errorf("meeting link = %q, want %q", iv.MeetingLink, want)
	}
}

func TestCreateInterviewGoogleMeetRequiresLink(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, newFakePoints(), nil, now)

	_, err := svc.CreateInterview(context.Background(), CreateInterviewParams{
		InterviewerID: uuid.New(),
		ScheduledTime: now.Add(time.Hour),
		VideoType:     models.VideoTypeGoogleMeet,
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("CreateInterview(no link) = %v, want *ValidationError", err)
	}

	iv, err := svc.CreateInterview(context.Background(), CreateInterviewParams{
		InterviewerID: uuid.New(),
		ScheduledTime: now.Add(time.Hour),
		VideoType:     models.VideoTypeGoogleMeet,
		MeetingLink:   " https://meet.google.com/abc-defg-hij ",
	})
	if err != nil {
		t.Fatalf("CreateInterview(with link): %v", err)
	}
	if strings.HasPrefix(iv.MeetingLink, " ") || iv.MeetingLink == "" {
		t.Errorf("meeting link not normalized: %q", iv.MeetingLink)
	}
	if iv.VideoRoomID != nil {
		t.Error("google_meet interview must not allocate a room")
	}
}

func TestCreateInterviewRejectsShortLeadTime(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, newFakePoints(), nil, now)

	_, err := svc.CreateInterview(context.Background(), CreateInterviewParams{
		InterviewerID: uuid.New(),
		ScheduledTime: now.Add(30 * time.Second),
		VideoType:     models.VideoTypeGoogleMeet,
		MeetingLink:   "https://meet.google.com/abc",
	})
	var te *TimeError
	if !errors.As(err, &te) {
		t.Fatalf("CreateInterview(too soon) = %v, want *TimeError", err)
	}
	if len(store.interviews) != 0 {
		t.Error("rejected interview was persisted")
	}
}

func TestCreateInterviewRejectsUnknownVideoType(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, newFakePoints(), nil, now)

	_, err := svc.CreateInterview(context.Background(), CreateInterviewParams{
		InterviewerID: uuid.New(),
		ScheduledTime: now.Add(time.Hour),
		VideoType:     models.VideoType("zoom"),
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("CreateInterview(zoom) = %v, want *ValidationError", err)
	}
}

func TestBookInterviewDebitsPoints(t *testing.T) {
	store := newFakeStore()
	points := newFakePoints()
	notifier := &recordingNotifier{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, points, notifier, now)

	iv := seedInterview(t, store, models.StatusPending, now.Add(time.Hour))
	bookerID := uuid.New()
	points.balances[bookerID] = 25

	booked, err := svc.BookInterview(context.Background(), iv.ID, bookerID)
	if err != nil {
		t.Fatalf("BookInterview: %v", err)
	}
	if booked.Status != models.StatusBooked {
		t.Errorf("status = %s, want booked", booked.Status)
	}
	if got := points.balance(bookerID); got != 15 {
		t.Errorf("balance after booking = %d, want 15", got)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 || notifier.events[0].Event != EventInterviewBooked {
		t.Fatalf("notifications = %+v, want one %s", notifier.events, EventInterviewBooked)
	}
	if notifier.events[0].UserID != iv.InterviewerID {
		t.Errorf("notified %s, want interviewer %s", notifier.events[0].UserID, iv.InterviewerID)
	}
}

func TestBookInterviewInsufficientPointsRollsBack(t *testing.T) {
	store := newFakeStore()
	points := newFakePoints()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, points, nil, now)

	iv := seedInterview(t, store, models.StatusPending, now.Add(time.Hour))
	bookerID := uuid.New()
	points.balances[bookerID] = 5 // below the booking cost of 10

	_, err := svc.BookInterview(context.Background(), iv.ID, bookerID)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("BookInterview = %v, want ErrInsufficientPoints", err)
	}
	got, _ := store.GetInterview(context.Background(), iv.ID)
	if got.Status != models.StatusPending {
		t.Errorf("status after failed debit = %s, want pending (rolled back)", got.Status)
	}
	if got.IntervieweeID != nil {
		t.Error("interviewee set despite rollback")
	}
}

func TestCancelNotifiesCounterparty(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, newFakePoints(), notifier, now)

	iv := seedInterview(t, store, models.StatusBooked, now.Add(time.Hour))
	if _, err := svc.CancelInterview(context.Background(), iv.ID, iv.InterviewerID); err != nil {
		t.Fatalf("CancelInterview: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 || notifier.events[0].Event != EventInterviewCancelled {
		t.Fatalf("notifications = %+v, want one %s", notifier.events, EventInterviewCancelled)
	}
	if notifier.events[0].UserID != *iv.IntervieweeID {
		t.Errorf("notified %s, want interviewee %s", notifier.events[0].UserID, *iv.IntervieweeID)
	}
}

func TestTerminalTransitionsCloseRoom(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	closers := map[string]func(svc *Service, iv *models.Interview) error{
		"cancel": func(svc *Service, iv *models.Interview) error {
			_, err := svc.CancelInterview(context.Background(), iv.ID, iv.InterviewerID)
			return err
		},
		"complete": func(svc *Service, iv *models.Interview) error {
			if _, err := svc.BookInterview(context.Background(), iv.ID, uuid.New()); err != nil {
				return err
			}
			_, err := svc.CompleteInterview(context.Background(), iv.ID)
			return err
		},
		"no_show": func(svc *Service, iv *models.Interview) error {
			if _, err := svc.BookInterview(context.Background(), iv.ID, uuid.New()); err != nil {
				return err
			}
			_, err := svc.MarkNoShow(context.Background(), iv.ID)
			return err
		},
	}

	for name, fn := range closers {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store, newFakePoints(), nil, start)
			svc.bookingCost = 0
			// Creation happens at start, then the clock jumps past the
			// scheduled time so terminal marks are allowed.
			now := start
			svc.clock = func() time.Time { return now }
			svc.ledger.clock = svc.clock

			iv, err := svc.CreateInterview(context.Background(), CreateInterviewParams{
				InterviewerID: uuid.New(),
				ScheduledTime: start.Add(time.Hour),
				VideoType:     models.VideoTypeBuiltIn,
			})
			if err != nil {
				t.Fatalf("CreateInterview: %v", err)
			}
			now = start.Add(2 * time.Hour)

			if err := fn(svc, iv); err != nil {
				t.Fatalf("close interview: %v", err)
			}
			room, err := store.GetRoom(context.Background(), *iv.VideoRoomID)
			if err != nil {
				t.Fatalf("GetRoom: %v", err)
			}
			if room.IsActive {
				t.Error("room still active after terminal transition")
			}
		})
	}
}

func TestDeleteInterviewCreatorOnly(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, newFakePoints(), nil, now)
	iv := seedInterview(t, store, models.StatusPending, now.Add(time.Hour))

	if err := svc.DeleteInterview(context.Background(), iv.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("DeleteInterview(stranger) = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteInterview(context.Background(), iv.ID, iv.InterviewerID); err != nil {
		t.Fatalf("DeleteInterview(creator): %v", err)
	}
	if _, err := store.GetInterview(context.Background(), iv.ID); !errors.Is(err, ErrNotFound) {
		t.Error("interview still present after delete")
	}
}

func TestDeleteInterviewRefusesBooked(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, newFakePoints(), nil, now)
	iv := seedInterview(t, store, models.StatusBooked, now.Add(time.Hour))

	err := svc.DeleteInterview(context.Background(), iv.ID, iv.InterviewerID)
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("DeleteInterview(booked) = %v, want *InvalidTransitionError", err)
	}
}

func TestDeleteInterviewCascadesRoom(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, newFakePoints(), nil, now)
	hostID := uuid.New()

	iv, err := svc.CreateInterview(context.Background(), CreateInterviewParams{
		InterviewerID: hostID,
		ScheduledTime: now.Add(time.Hour),
		VideoType:     models.VideoTypeBuiltIn,
	})
	if err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	roomID := *iv.VideoRoomID

	if err := svc.DeleteInterview(context.Background(), iv.ID, hostID); err != nil {
		t.Fatalf("DeleteInterview: %v", err)
	}
	if _, err := store.GetRoom(context.Background(), roomID); !errors.Is(err, ErrRoomNotFound) {
		t.Error("room survived interview deletion")
	}
}

func TestSweepNoShows(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, newFakePoints(), nil, now)

	overdue := seedInterview(t, store, models.StatusBooked, now.Add(-time.Hour))
	fresh := seedInterview(t, store, models.StatusBooked, now.Add(time.Hour))
	pendingOld := seedInterview(t, store, models.StatusPending, now.Add(-2*time.Hour))

	swept, err := svc.SweepNoShows(context.Background(), 15*time.Minute, 100)
	if err != nil {
		t.Fatalf("SweepNoShows: %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}
	got, _ := store.GetInterview(context.Background(), overdue.ID)
	if got.Status != models.StatusNoShow {
		t.Errorf("overdue status = %s, want no_show", got.Status)
	}
	got, _ = store.GetInterview(context.Background(), fresh.ID)
	if got.Status != models.StatusBooked {
		t.Errorf("fresh status = %s, want booked", got.Status)
	}
	got, _ = store.GetInterview(context.Background(), pendingOld.ID)
	if got.Status != models.StatusPending {
		t.Errorf("old pending status = %s, want pending (sweeper only closes booked)", got.Status)
	}
}
