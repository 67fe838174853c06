package scheduling

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/peermock/backend/internal/middleware"
	"github.com/peermock/backend/internal/models"
	"github.com/peermock/backend/pkg/response"
)

// CreateRequest is the body for POST /interviews.
type CreateRequest struct {
	ScheduledTime   string               `json:"scheduled_time" binding:"required"`
	VideoType       string               `json:"video_type" binding:"required"`
	MeetingLink     string               `json:"meeting_link"`
	RoomName        string               `json:"room_name"`
	MaxParticipants int                  `json:"max_participants"`
	RoomSettings    *models.RoomSettings `json:"room_settings"`
}

// Handler exposes the scheduling service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a scheduling handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /interviews.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	scheduledTime, err := time.Parse(time.RFC3339, req.ScheduledTime)
	if err != nil {
		response.BadRequest(c, "invalid scheduled_time, expected RFC3339")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	iv, err := h.svc.CreateInterview(c.Request.Context(), CreateInterviewParams{
		InterviewerID:   userID,
		ScheduledTime:   scheduledTime,
		VideoType:       models.VideoType(req.VideoType),
		MeetingLink:     req.MeetingLink,
		RoomName:        req.RoomName,
		MaxParticipants: req.MaxParticipants,
		RoomSettings:    req.RoomSettings,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, iv)
}

// Book handles POST /interviews/:id/book.
func (h *Handler) Book(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	iv, err := h.svc.BookInterview(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, iv)
}

// Cancel handles POST /interviews/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	iv, err := h.svc.CancelInterview(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, iv)
}

// Start handles POST /interviews/:id/start.
func (h *Handler) Start(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	iv, err := h.svc.StartInterview(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, iv)
}

// Complete handles POST /interviews/:id/complete (admin).
func (h *Handler) Complete(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	iv, err := h.svc.CompleteInterview(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, iv)
}

// NoShow handles POST /interviews/:id/no-show (admin).
func (h *Handler) NoShow(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	iv, err := h.svc.MarkNoShow(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, iv)
}

// GetByID handles GET /interviews/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	iv, room, err := h.svc.GetInterview(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if room != nil {
		response.OK(c, gin.H{"interview": iv, "video_room": room})
		return
	}
	response.OK(c, gin.H{"interview": iv})
}

// List handles GET /interviews. Query: ?status=pending, ?mine=1.
func (h *Handler) List(c *gin.Context) {
	f := InterviewFilter{Limit: 100}
	if s := c.Query("status"); s != "" {
		f.Status = models.InterviewStatus(s)
	}
	if c.Query("mine") == "1" {
		uid := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		f.ParticipantID = &uid
	}
	list, err := h.svc.ListInterviews(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /interviews/:id (creator only).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.DeleteInterview(c.Request.Context(), id, userID); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func interviewID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interview id")
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps the scheduling error taxonomy to HTTP statuses. Typed
// errors are never downgraded to a generic 500.
func writeError(c *gin.Context, err error) {
	var validationErr *ValidationError
	var timeErr *TimeError
	var transitionErr *InvalidTransitionError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(c, validationErr.Error())
	case errors.As(err, &timeErr):
		response.BadRequest(c, timeErr.Error())
	case errors.As(err, &transitionErr):
		response.Conflict(c, transitionErr.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRoomNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrSlotTaken):
		response.Conflict(c, ErrSlotTaken.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, ErrForbidden.Error())
	case errors.Is(err, ErrInsufficientPoints):
		response.PaymentRequired(c, ErrInsufficientPoints.Error())
	case errors.Is(err, ErrUnavailable):
		response.ServiceUnavailable(c, ErrUnavailable.Error())
	default:
		response.Internal(c, "internal error")
	}
}
