package recordings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peermock/backend/internal/models"
)

// ErrRecordingNotFound is returned when no recording matches the lookup.
var ErrRecordingNotFound = errors.New("recording not found")

// Repository handles recording metadata persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a recordings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordingColumns = `id, interview_id, status, provider_url, s3_key, s3_url, size_bytes, duration_seconds, created_at, updated_at`

// Create inserts a pending recording row for an interview.
func (r *Repository) Create(ctx context.Context, interviewID uuid.UUID, providerURL string, durationSeconds int) (*models.Recording, error) {
	return scanRecording(r.pool.QueryRow(ctx, `INSERT INTO recordings (interview_id, provider_url, duration_seconds)
		VALUES ($1, $2, $3)
		RETURNING `+recordingColumns, interviewID, providerURL, durationSeconds))
}

// GetByID returns a recording by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recording, error) {
	return scanRecording(r.pool.QueryRow(ctx, `SELECT `+recordingColumns+` FROM recordings WHERE id = $1`, id))
}

// ListByInterview returns an interview's recordings, newest first.
func (r *Repository) ListByInterview(ctx context.Context, interviewID uuid.UUID) ([]models.Recording, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recordingColumns+` FROM recordings
		WHERE interview_id = $1 ORDER BY created_at DESC`, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Recording
	for rows.Next() {
		var rec models.Recording
		if err := rows.Scan(&rec.ID, &rec.InterviewID, &rec.Status, &rec.ProviderURL, &rec.S3Key,
			&rec.S3URL, &rec.SizeBytes, &rec.DurationSeconds, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// MarkCompleted records a successful mirror to S3.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, s3Key, s3URL string, sizeBytes int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE recordings
		SET status = $2, s3_key = $3, s3_url = $4, size_bytes = $5, updated_at = now()
		WHERE id = $1`, id, models.RecordingStatusCompleted, s3Key, s3URL, sizeBytes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordingNotFound
	}
	return nil
}

// MarkFailed records a permanently failed mirror.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE recordings
		SET status = $2, updated_at = now()
		WHERE id = $1`, id, models.RecordingStatusFailed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordingNotFound
	}
	return nil
}

func scanRecording(row pgx.Row) (*models.Recording, error) {
	var rec models.Recording
	err := row.Scan(&rec.ID, &rec.InterviewID, &rec.Status, &rec.ProviderURL, &rec.S3Key,
		&rec.S3URL, &rec.SizeBytes, &rec.DurationSeconds, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}
	return &rec, nil
}
