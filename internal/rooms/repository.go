package rooms

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peermock/backend/internal/models"
)

// ErrRoomNotFound is returned when no room matches the lookup.
var ErrRoomNotFound = errors.New("room not found")

// Repository handles video room reads and settings updates. Room creation
// lives with the scheduler, which allocates rooms inside the interview
// creation transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a rooms repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roomColumns = `id, code, host_id, name, is_private, max_participants, scheduled_start, is_active, settings, created_at, updated_at`

// GetByCode returns a room by its shareable code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.VideoRoom, error) {
	return scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM video_rooms WHERE code = $1`, code))
}

// GetByID returns a room by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.VideoRoom, error) {
	return scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM video_rooms WHERE id = $1`, id))
}

// UpdateSettings replaces the room's settings JSONB.
func (r *Repository) UpdateSettings(ctx context.Context, id uuid.UUID, settings models.RoomSettings) (*models.VideoRoom, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	return scanRoom(r.pool.QueryRow(ctx, `UPDATE video_rooms
		SET settings = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+roomColumns, id, raw))
}

// InterviewForRoom returns the interview bound to the room, or nil when the
// room is orphaned.
func (r *Repository) InterviewForRoom(ctx context.Context, roomID uuid.UUID) (*models.Interview, error) {
	var iv models.Interview
	var status, videoType string
	err := r.pool.QueryRow(ctx, `SELECT id, interviewer_id, interviewee_id, scheduled_time, status, video_type, meeting_link, video_room_id, created_at, updated_at
		FROM mock_interviews WHERE video_room_id = $1`, roomID).
		Scan(&iv.ID, &iv.InterviewerID, &iv.IntervieweeID, &iv.ScheduledTime, &status, &videoType,
			&iv.MeetingLink, &iv.VideoRoomID, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	iv.Status = models.InterviewStatus(status)
	iv.VideoType = models.VideoType(videoType)
	return &iv, nil
}

func scanRoom(row pgx.Row) (*models.VideoRoom, error) {
	var room models.VideoRoom
	var raw []byte
	err := row.Scan(&room.ID, &room.Code, &room.HostID, &room.Name, &room.IsPrivate,
		&room.MaxParticipants, &room.ScheduledStart, &room.IsActive, &raw,
		&room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &room.Settings); err != nil {
			return nil, err
		}
	}
	return &room, nil
}
