package scheduling

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/peermock/backend/internal/models"
)

func TestAllocateBuiltInGeneratesValidCode(t *testing.T) {
	store := newFakeStore()
	a := NewRoomAllocator(store, nil)

	room, err := a.AllocateBuiltIn(context.Background(), uuid.New(), RoomParams{
		ScheduledStart: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("AllocateBuiltIn: %v", err)
	}
	if len(room.Code) != roomCodeLength {
		t.Errorf("code %q has length %d, want %d", room.Code, len(room.Code), roomCodeLength)
	}
	for _, r := range room.Code {
		if !strings.ContainsRune(roomCodeAlphabet, r) {
			t.Errorf("code %q contains %q outside the allowed alphabet", room.Code, r)
		}
	}
	if !room.IsActive {
		t.Error("new room should be active")
	}
	if room.MaxParticipants != models.RoomMinParticipants {
		t.Errorf("default max participants = %d, want %d", room.MaxParticipants, models.RoomMinParticipants)
	}
	if room.Settings != models.DefaultRoomSettings() {
		t.Errorf("settings = %+v, want defaults", room.Settings)
	}
}

func TestAllocateBuiltInResamplesOnCollision(t *testing.T) {
	store := newFakeStore()
	store.roomCollisions = 3
	a := NewRoomAllocator(store, nil)

	room, err := a.AllocateBuiltIn(context.Background(), uuid.New(), RoomParams{
		ScheduledStart: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("AllocateBuiltIn after collisions: %v", err)
	}
	if room.Code == "" {
		t.Error("expected a code after resampling")
	}
}

// abortingStore mimics Postgres transaction-abort semantics: after any
// statement fails inside a scope, every later statement in that scope fails
// with a different error until the scope rolls back.
type abortingStore struct {
	*fakeStore
	aborted bool
}

func (s *abortingStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.fakeStore.InTx(ctx, fn)
	if err != nil {
		s.aborted = false
	}
	return err
}

func (s *abortingStore) CreateRoom(ctx context.Context, room *models.VideoRoom) error {
	if s.aborted {
		return errors.New("current transaction is aborted")
	}
	if err := s.fakeStore.CreateRoom(ctx, room); err != nil {
		s.aborted = true
		return err
	}
	return nil
}

func TestAllocateBuiltInResamplesInsideOpenTransaction(t *testing.T) {
	store := &abortingStore{fakeStore: newFakeStore()}
	store.roomCollisions = 2
	a := NewRoomAllocator(store, nil)

	var room *models.VideoRoom
	err := store.InTx(context.Background(), func(ctx context.Context) error {
		r, err := a.AllocateBuiltIn(ctx, uuid.New(), RoomParams{
			ScheduledStart: time.Now().Add(time.Hour),
		})
		room = r
		return err
	})
	if err != nil {
		t.Fatalf("AllocateBuiltIn inside transaction: %v", err)
	}
	if room == nil || room.Code == "" {
		t.Fatal("expected a room after resampling inside the transaction")
	}
	if _, err := store.GetRoom(context.Background(), room.ID); err != nil {
		t.Fatalf("GetRoom after commit: %v", err)
	}
}

func TestAllocateBuiltInGivesUpAfterMaxAttempts(t *testing.T) {
	store := newFakeStore()
	store.roomCollisions = maxCodeAttempts
	a := NewRoomAllocator(store, nil)

	_, err := a.AllocateBuiltIn(context.Background(), uuid.New(), RoomParams{
		ScheduledStart: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("AllocateBuiltIn = %v, want ErrUnavailable", err)
	}
}

func TestAllocateBuiltInValidatesParticipants(t *testing.T) {
	store := newFakeStore()
	a := NewRoomAllocator(store, nil)

	for _, n := range []int{1, -1, models.RoomMaxParticipants + 1} {
		_, err := a.AllocateBuiltIn(context.Background(), uuid.New(), RoomParams{
			MaxParticipants: n,
			ScheduledStart:  time.Now().Add(time.Hour),
		})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("AllocateBuiltIn(max=%d) = %v, want *ValidationError", n, err)
		}
	}
}

func TestNormalizeMeetingLink(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"https link", "https://meet.google.com/abc-defg-hij", "https://meet.google.com/abc-defg-hij", false},
		{"http link", "http://example.com/room", "http://example.com/room", false},
		{"trims whitespace", "  https://meet.google.com/xyz  ", "https://meet.google.com/xyz", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"ftp scheme", "ftp://example.com/file", "", true},
		{"javascript scheme", "javascript:alert(1)", "", true},
		{"no host", "https://", "", true},
		{"not a url", "://bad", "", true},
		{"too long", "https://example.com/" + strings.Repeat("a", maxMeetingLinkLength), "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeMeetingLink(tc.in)
			if tc.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("NormalizeMeetingLink(%q) err = %v, want *ValidationError", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeMeetingLink(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("NormalizeMeetingLink(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewRoomCodesAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := newRoomCode()
		if err != nil {
			t.Fatalf("newRoomCode: %v", err)
		}
		seen[code] = true
	}
	// 100 draws from a 36^8 space colliding down to a handful would mean the
	// generator is broken.
	if len(seen) < 95 {
		t.Errorf("only %d distinct codes out of 100", len(seen))
	}
}
