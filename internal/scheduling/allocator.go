package scheduling

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermock/backend/internal/models"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 8
	// maxCodeAttempts bounds collision resampling. The code space is 36^8,
	// far above any expected room count, so retries are O(1) in practice.
	maxCodeAttempts = 10

	maxMeetingLinkLength = 2000
)

// RoomAllocator creates built-in video rooms with collision-checked codes
// and validates manually supplied external meeting links.
type RoomAllocator struct {
	store  Store
	logger *zap.Logger
}

// NewRoomAllocator creates a room allocator.
func NewRoomAllocator(store Store, logger *zap.Logger) *RoomAllocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomAllocator{store: store, logger: logger}
}

// RoomParams are caller-supplied settings for a built-in room.
type RoomParams struct {
	Name            string
	IsPrivate       bool
	MaxParticipants int // 0 = default (2)
	ScheduledStart  time.Time
	Settings        *models.RoomSettings // nil = defaults
}

// AllocateBuiltIn persists a new active room owned by hostID. Idempotency is
// not guaranteed across retries; the caller wraps allocation and interview
// creation in one transaction so a failed creation leaves no orphan room.
func (a *RoomAllocator) AllocateBuiltIn(ctx context.Context, hostID uuid.UUID, p RoomParams) (*models.VideoRoom, error) {
	maxParticipants := p.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = models.RoomMinParticipants
	}
	if maxParticipants < models.RoomMinParticipants || maxParticipants > models.RoomMaxParticipants {
		return nil, &ValidationError{
			Field:  "max_participants",
			Reason: fmt.Sprintf("must be between %d and %d", models.RoomMinParticipants, models.RoomMaxParticipants),
		}
	}

	settings := models.DefaultRoomSettings()
	if p.Settings != nil {
		settings = *p.Settings
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := newRoomCode()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}
		room := &models.VideoRoom{
			Code:            code,
			HostID:          hostID,
			Name:            p.Name,
			IsPrivate:       p.IsPrivate,
			MaxParticipants: maxParticipants,
			ScheduledStart:  p.ScheduledStart.UTC(),
			IsActive:        true,
			Settings:        settings,
		}
		// Each attempt gets its own transaction scope. Against Postgres a
		// unique violation aborts the enclosing transaction, so without the
		// savepoint the resample's INSERT could never run.
		err = a.store.InTx(ctx, func(ctx context.Context) error {
			return a.store.CreateRoom(ctx, room)
		})
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, ErrRoomCodeTaken) {
			return nil, err
		}
		a.logger.Warn("room code collision, resampling",
			zap.String("code", code), zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("room code space exhausted after %d attempts: %w", maxCodeAttempts, ErrUnavailable)
}

// NormalizeMeetingLink validates a manually supplied meeting URL and returns
// its normalized form. Only http and https schemes are accepted.
func NormalizeMeetingLink(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Field: "meeting_link", Reason: "required for external meetings"}
	}
	if len(raw) > maxMeetingLinkLength {
		return "", &ValidationError{Field: "meeting_link", Reason: fmt.Sprintf("longer than %d characters", maxMeetingLinkLength)}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &ValidationError{Field: "meeting_link", Reason: "not a valid URL"}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", &ValidationError{Field: "meeting_link", Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return "", &ValidationError{Field: "meeting_link", Reason: "missing host"}
	}
	return u.String(), nil
}

func newRoomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf), nil
}
