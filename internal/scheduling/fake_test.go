package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/peermock/backend/internal/models"
)

// fakeStore is an in-memory Store. UpdateInterviewStatus is a real
// compare-and-swap under a mutex, interview writes enforce the schema's
// status/interviewee constraint, and InTx restores a snapshot when fn
// fails, so transactional rollback behavior is observable in tests.
type fakeStore struct {
	mu         sync.Mutex
	txMu       sync.Mutex
	interviews map[uuid.UUID]*models.Interview
	rooms      map[uuid.UUID]*models.VideoRoom
	roomCodes  map[string]uuid.UUID

	// roomCollisions forces the next N CreateRoom calls to report a code
	// collision.
	roomCollisions int
}

// checkInterviewRow mirrors the mock_interviews CHECK constraints: only
// pending and cancelled rows may lack an interviewee, and pending rows
// never have one.
func checkInterviewRow(iv *models.Interview) error {
	if iv.IntervieweeID == nil && iv.Status != models.StatusPending && iv.Status != models.StatusCancelled {
		return fmt.Errorf("check violation: %s interview without interviewee", iv.Status)
	}
	if iv.Status == models.StatusPending && iv.IntervieweeID != nil {
		return fmt.Errorf("check violation: pending interview with interviewee")
	}
	return nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		interviews: make(map[uuid.UUID]*models.Interview),
		rooms:      make(map[uuid.UUID]*models.VideoRoom),
		roomCodes:  make(map[string]uuid.UUID),
	}
}

type fakeTxKey struct{}

type fakeSnapshot struct {
	interviews map[uuid.UUID]*models.Interview
	rooms      map[uuid.UUID]*models.VideoRoom
	roomCodes  map[string]uuid.UUID
}

// InTx serializes transactions and restores a snapshot when fn fails. A
// nested call inside an open transaction behaves like a savepoint: it joins
// the outer scope but rolls back only its own writes on error.
func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		ctx = context.WithValue(ctx, fakeTxKey{}, true)
	}

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *fakeStore) snapshot() fakeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := fakeSnapshot{
		interviews: make(map[uuid.UUID]*models.Interview, len(s.interviews)),
		rooms:      make(map[uuid.UUID]*models.VideoRoom, len(s.rooms)),
		roomCodes:  make(map[string]uuid.UUID, len(s.roomCodes)),
	}
	for k, v := range s.interviews {
		cp := *v
		snap.interviews[k] = &cp
	}
	for k, v := range s.rooms {
		cp := *v
		snap.rooms[k] = &cp
	}
	for k, v := range s.roomCodes {
		snap.roomCodes[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interviews = snap.interviews
	s.rooms = snap.rooms
	s.roomCodes = snap.roomCodes
}

func (s *fakeStore) GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (s *fakeStore) ListInterviews(ctx context.Context, f InterviewFilter) ([]models.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Interview
	for _, iv := range s.interviews {
		if f.Status != "" && iv.Status != f.Status {
			continue
		}
		if f.InterviewerID != nil && iv.InterviewerID != *f.InterviewerID {
			continue
		}
		if f.ParticipantID != nil && !iv.IsParticipant(*f.ParticipantID) {
			continue
		}
		out = append(out, *iv)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) ListOverdueBooked(ctx context.Context, before time.Time, limit int) ([]models.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Interview
	for _, iv := range s.interviews {
		if iv.Status != models.StatusBooked && iv.Status != models.StatusInProgress {
			continue
		}
		if !iv.ScheduledTime.Before(before) {
			continue
		}
		out = append(out, *iv)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) CreateInterview(ctx context.Context, iv *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkInterviewRow(iv); err != nil {
		return err
	}
	if iv.ID == uuid.Nil {
		iv.ID = uuid.New()
	}
	iv.CreatedAt = time.Now().UTC()
	iv.UpdatedAt = iv.CreatedAt
	cp := *iv
	s.interviews[iv.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteInterview(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return ErrNotFound
	}
	if iv.VideoRoomID != nil {
		if room, ok := s.rooms[*iv.VideoRoomID]; ok {
			delete(s.roomCodes, room.Code)
			delete(s.rooms, room.ID)
		}
	}
	delete(s.interviews, id)
	return nil
}

func (s *fakeStore) UpdateInterviewStatus(ctx context.Context, id uuid.UUID, expect []models.InterviewStatus, change StatusChange) (*models.Interview, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, false, nil
	}
	matched := false
	for _, st := range expect {
		if iv.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return nil, false, nil
	}
	next := *iv
	next.Status = change.Status
	if change.IntervieweeID != nil {
		next.IntervieweeID = change.IntervieweeID
	}
	if err := checkInterviewRow(&next); err != nil {
		return nil, false, err
	}
	next.UpdatedAt = time.Now().UTC()
	*iv = next
	cp := *iv
	return &cp, true, nil
}

func (s *fakeStore) CreateRoom(ctx context.Context, room *models.VideoRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomCollisions > 0 {
		s.roomCollisions--
		return ErrRoomCodeTaken
	}
	if _, taken := s.roomCodes[room.Code]; taken {
		return ErrRoomCodeTaken
	}
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	room.CreatedAt = time.Now().UTC()
	room.UpdatedAt = room.CreatedAt
	cp := *room
	s.rooms[room.ID] = &cp
	s.roomCodes[room.Code] = room.ID
	return nil
}

func (s *fakeStore) SetRoomActive(ctx context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	room.IsActive = active
	return nil
}

func (s *fakeStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.VideoRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

// fakePoints is an in-memory points ledger.
type fakePoints struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int
	debits   int
}

func newFakePoints() *fakePoints {
	return &fakePoints{balances: make(map[uuid.UUID]int)}
}

func (p *fakePoints) Debit(ctx context.Context, userID uuid.UUID, amount int, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balances[userID] < amount {
		return ErrInsufficientPoints
	}
	p.balances[userID] -= amount
	p.debits++
	return nil
}

func (p *fakePoints) Credit(ctx context.Context, userID uuid.UUID, amount int, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[userID] += amount
	return nil
}

func (p *fakePoints) balance(userID uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[userID]
}
