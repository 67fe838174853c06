package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peermock/backend/internal/models"
	"github.com/peermock/backend/pkg/database"
)

const pgUniqueViolation = "23505"

const interviewColumns = `id, interviewer_id, interviewee_id, scheduled_time, status, video_type, meeting_link, video_room_id, created_at, updated_at`

// PostgresStore implements Store on a pgx pool. All methods resolve their
// querier from the context so they join any transaction opened by InTx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the scheduling store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InTx runs fn in one database transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, s.pool, fn)
}

// GetInterview returns an interview by ID, or ErrNotFound.
func (s *PostgresStore) GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	q := database.From(ctx, s.pool)
	row := q.QueryRow(ctx, `SELECT `+interviewColumns+` FROM mock_interviews WHERE id = $1`, id)
	iv, err := scanInterview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr("get interview", err)
	}
	return iv, nil
}

// ListInterviews returns interviews matching the filter, newest first.
func (s *PostgresStore) ListInterviews(ctx context.Context, f InterviewFilter) ([]models.Interview, error) {
	q := database.From(ctx, s.pool)
	query := `SELECT ` + interviewColumns + ` FROM mock_interviews WHERE 1=1`
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.InterviewerID != nil {
		args = append(args, *f.InterviewerID)
		query += fmt.Sprintf(" AND interviewer_id = $%d", len(args))
	}
	if f.ParticipantID != nil {
		args = append(args, *f.ParticipantID)
		query += fmt.Sprintf(" AND (interviewer_id = $%d OR interviewee_id = $%d)", len(args), len(args))
	}
	query += " ORDER BY scheduled_time DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapStoreErr("list interviews", err)
	}
	defer rows.Close()
	return collectInterviews(rows)
}

// ListOverdueBooked returns booked/in_progress interviews scheduled before
// the given instant, oldest first.
func (s *PostgresStore) ListOverdueBooked(ctx context.Context, before time.Time, limit int) ([]models.Interview, error) {
	q := database.From(ctx, s.pool)
	rows, err := q.Query(ctx, `SELECT `+interviewColumns+` FROM mock_interviews
		WHERE status = ANY($1) AND scheduled_time < $2
		ORDER BY scheduled_time ASC LIMIT $3`,
		[]string{string(models.StatusBooked), string(models.StatusInProgress)}, before, limit)
	if err != nil {
		return nil, mapStoreErr("list overdue", err)
	}
	defer rows.Close()
	return collectInterviews(rows)
}

// CreateInterview inserts a new interview slot.
func (s *PostgresStore) CreateInterview(ctx context.Context, iv *models.Interview) error {
	q := database.From(ctx, s.pool)
	row := q.QueryRow(ctx, `INSERT INTO mock_interviews
		(id, interviewer_id, interviewee_id, scheduled_time, status, video_type, meeting_link, video_room_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		iv.InterviewerID, iv.IntervieweeID, iv.ScheduledTime, string(iv.Status), string(iv.VideoType), iv.MeetingLink, iv.VideoRoomID)
	if err := row.Scan(&iv.ID, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
		return mapStoreErr("create interview", err)
	}
	return nil
}

// DeleteInterview removes the interview and cascades its bound room.
func (s *PostgresStore) DeleteInterview(ctx context.Context, id uuid.UUID) error {
	q := database.From(ctx, s.pool)
	var roomID *uuid.UUID
	err := q.QueryRow(ctx, `DELETE FROM mock_interviews WHERE id = $1 RETURNING video_room_id`, id).Scan(&roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapStoreErr("delete interview", err)
	}
	if roomID != nil {
		if _, err := q.Exec(ctx, `DELETE FROM video_rooms WHERE id = $1`, *roomID); err != nil {
			return mapStoreErr("delete room", err)
		}
	}
	return nil
}

// UpdateInterviewStatus applies change iff the current status is one of
// expect. A guard miss returns matched=false with no error so callers can
// distinguish a lost race from a store failure.
func (s *PostgresStore) UpdateInterviewStatus(ctx context.Context, id uuid.UUID, expect []models.InterviewStatus, change StatusChange) (*models.Interview, bool, error) {
	q := database.From(ctx, s.pool)
	expected := make([]string, len(expect))
	for i, st := range expect {
		expected[i] = string(st)
	}
	row := q.QueryRow(ctx, `UPDATE mock_interviews
		SET status = $1, interviewee_id = COALESCE($2, interviewee_id), updated_at = NOW()
		WHERE id = $3 AND status = ANY($4)
		RETURNING `+interviewColumns,
		string(change.Status), change.IntervieweeID, id, expected)
	iv, err := scanInterview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, mapStoreErr("update interview status", err)
	}
	return iv, true, nil
}

// CreateRoom inserts a new video room. A code collision surfaces as
// ErrRoomCodeTaken for the allocator to resample.
func (s *PostgresStore) CreateRoom(ctx context.Context, room *models.VideoRoom) error {
	q := database.From(ctx, s.pool)
	settings, err := json.Marshal(room.Settings)
	if err != nil {
		return fmt.Errorf("marshal room settings: %w", err)
	}
	row := q.QueryRow(ctx, `INSERT INTO video_rooms
		(id, code, host_id, name, is_private, max_participants, scheduled_start, is_active, settings)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		room.Code, room.HostID, room.Name, room.IsPrivate, room.MaxParticipants, room.ScheduledStart, room.IsActive, settings)
	if err := row.Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrRoomCodeTaken
		}
		return mapStoreErr("create room", err)
	}
	return nil
}

// SetRoomActive opens or closes a room.
func (s *PostgresStore) SetRoomActive(ctx context.Context, id uuid.UUID, active bool) error {
	q := database.From(ctx, s.pool)
	tag, err := q.Exec(ctx, `UPDATE video_rooms SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return mapStoreErr("set room active", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// GetRoom returns a room by ID, or ErrRoomNotFound.
func (s *PostgresStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.VideoRoom, error) {
	q := database.From(ctx, s.pool)
	row := q.QueryRow(ctx, `SELECT id, code, host_id, name, is_private, max_participants, scheduled_start, is_active, settings, created_at, updated_at
		FROM video_rooms WHERE id = $1`, id)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, mapStoreErr("get room", err)
	}
	return room, nil
}

func scanInterview(row pgx.Row) (*models.Interview, error) {
	var iv models.Interview
	var status, videoType string
	err := row.Scan(&iv.ID, &iv.InterviewerID, &iv.IntervieweeID, &iv.ScheduledTime,
		&status, &videoType, &iv.MeetingLink, &iv.VideoRoomID, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	iv.Status = models.InterviewStatus(status)
	iv.VideoType = models.VideoType(videoType)
	return &iv, nil
}

func collectInterviews(rows pgx.Rows) ([]models.Interview, error) {
	var list []models.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *iv)
	}
	return list, rows.Err()
}

func scanRoom(row pgx.Row) (*models.VideoRoom, error) {
	var room models.VideoRoom
	var settings []byte
	err := row.Scan(&room.ID, &room.Code, &room.HostID, &room.Name, &room.IsPrivate,
		&room.MaxParticipants, &room.ScheduledStart, &room.IsActive, &settings, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &room.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal room settings: %w", err)
		}
	}
	return &room, nil
}

// mapStoreErr wraps store failures; deadline expiry surfaces as a retryable
// ErrUnavailable for the caller.
func mapStoreErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
