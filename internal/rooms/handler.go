package rooms

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/peermock/backend/internal/middleware"
	"github.com/peermock/backend/internal/models"
	"github.com/peermock/backend/pkg/response"
)

// Handler exposes video room endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a rooms handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// JoinInfo is the metadata a client needs to join a room.
type JoinInfo struct {
	Room      *models.VideoRoom `json:"room"`
	Interview *models.Interview `json:"interview,omitempty"`
	IsHost    bool              `json:"is_host"`
}

// GetByCode handles GET /rooms/:code. This is the landing endpoint for the
// shareable /rooms/{code} link on built-in interviews. Inactive rooms read
// as absent so stale links stop resolving after the session closes.
func (h *Handler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	room, err := h.repo.GetByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		response.Internal(c, "failed to load room")
		return
	}
	if !room.IsActive {
		response.NotFound(c, "room not found")
		return
	}
	iv, err := h.repo.InterviewForRoom(c.Request.Context(), room.ID)
	if err != nil {
		response.Internal(c, "failed to load room")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	response.OK(c, JoinInfo{Room: room, Interview: iv, IsHost: room.HostID == userID})
}

// UpdateSettingsRequest is the body for PATCH /rooms/:id/settings.
type UpdateSettingsRequest struct {
	AllowScreenShare *bool `json:"allow_screen_share"`
	AllowChat        *bool `json:"allow_chat"`
	AllowRecording   *bool `json:"allow_recording"`
}

// UpdateSettings handles PATCH /rooms/:id/settings. Host only; absent fields
// keep their current value.
func (h *Handler) UpdateSettings(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	room, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		response.Internal(c, "failed to load room")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if room.HostID != userID {
		response.Forbidden(c, "only the host can change room settings")
		return
	}

	settings := room.Settings
	if req.AllowScreenShare != nil {
		settings.AllowScreenShare = *req.AllowScreenShare
	}
	if req.AllowChat != nil {
		settings.AllowChat = *req.AllowChat
	}
	if req.AllowRecording != nil {
		settings.AllowRecording = *req.AllowRecording
	}

	updated, err := h.repo.UpdateSettings(c.Request.Context(), id, settings)
	if err != nil {
		response.Internal(c, "failed to update settings")
		return
	}
	response.OK(c, updated)
}
