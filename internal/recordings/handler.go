package recordings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peermock/backend/internal/middleware"
	"github.com/peermock/backend/internal/models"
	"github.com/peermock/backend/internal/scheduling"
	"github.com/peermock/backend/pkg/queue"
	"github.com/peermock/backend/pkg/response"
	"github.com/peermock/backend/pkg/storage"
)

// Handler exposes recording endpoints and the provider webhook.
type Handler struct {
	repo   *Repository
	sched  *scheduling.Service
	s3     *storage.S3
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates a recordings handler. s3 may be nil when AWS is not
// configured; download URLs are then unavailable.
func NewHandler(repo *Repository, sched *scheduling.Service, s3 *storage.S3, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, sched: sched, s3: s3, jobs: jobs, logger: logger}
}

// ListByInterview handles GET /interviews/:id/recordings. Participants only.
func (h *Handler) ListByInterview(c *gin.Context) {
	interviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interview id")
		return
	}
	iv, ok := h.participantInterview(c, interviewID)
	if !ok {
		return
	}
	list, err := h.repo.ListByInterview(c.Request.Context(), iv.ID)
	if err != nil {
		response.Internal(c, "failed to list recordings")
		return
	}
	response.OK(c, list)
}

// DownloadURL handles GET /recordings/:id/download-url. Returns a short-lived
// pre-signed S3 URL. Participants only.
func (h *Handler) DownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid recording id")
		return
	}
	rec, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRecordingNotFound) {
			response.NotFound(c, "recording not found")
			return
		}
		response.Internal(c, "failed to load recording")
		return
	}
	if _, ok := h.participantInterview(c, rec.InterviewID); !ok {
		return
	}
	if rec.Status != models.RecordingStatusCompleted || rec.S3Key == "" {
		response.Conflict(c, "recording is not ready")
		return
	}
	if h.s3 == nil {
		response.ServiceUnavailable(c, "recording storage is not configured")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), rec.S3Key, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign download failed", zap.Error(err), zap.String("recording_id", id.String()))
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{"url": url, "expires_in_seconds": int(h.s3.PresignExpire().Seconds())})
}

// RecordingReadyRequest is the provider webhook body.
type RecordingReadyRequest struct {
	InterviewID     uuid.UUID `json:"interview_id" binding:"required"`
	RecordingURL    string    `json:"recording_url" binding:"required,url"`
	DurationSeconds int       `json:"duration_seconds"`
}

// RecordingReady handles POST /webhooks/recording-ready. Registers the
// recording and enqueues the upload job that mirrors it to S3.
func (h *Handler) RecordingReady(c *gin.Context) {
	var req RecordingReadyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if _, _, err := h.sched.GetInterview(ctx, req.InterviewID); err != nil {
		if errors.Is(err, scheduling.ErrNotFound) {
			response.NotFound(c, "interview not found")
			return
		}
		response.Internal(c, "failed to load interview")
		return
	}

	rec, err := h.repo.Create(ctx, req.InterviewID, req.RecordingURL, req.DurationSeconds)
	if err != nil {
		response.Internal(c, "failed to register recording")
		return
	}
	err = h.jobs.EnqueueRecordingUpload(ctx, queue.RecordingUploadPayload{
		RecordingID: rec.ID,
		InterviewID: rec.InterviewID,
		SourceURL:   req.RecordingURL,
	})
	if err != nil {
		h.logger.Error("enqueue recording upload failed", zap.Error(err), zap.String("recording_id", rec.ID.String()))
		response.Internal(c, "failed to enqueue upload")
		return
	}
	response.Created(c, rec)
}

// participantInterview loads the interview and enforces that the caller is a
// participant, writing the error response itself when the check fails.
func (h *Handler) participantInterview(c *gin.Context, interviewID uuid.UUID) (*models.Interview, bool) {
	iv, _, err := h.sched.GetInterview(c.Request.Context(), interviewID)
	if err != nil {
		if errors.Is(err, scheduling.ErrNotFound) {
			response.NotFound(c, "interview not found")
			return nil, false
		}
		response.Internal(c, "failed to load interview")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.Get(middleware.ContextUserRole)
	if !iv.IsParticipant(userID) && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not a participant of this interview")
		return nil, false
	}
	return iv, true
}
