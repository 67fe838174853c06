package points

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/peermock/backend/internal/middleware"
	"github.com/peermock/backend/pkg/response"
)

// Handler exposes point balance and history endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a points handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Balance handles GET /points/balance.
func (h *Handler) Balance(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	b, err := h.repo.Balance(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load balance")
		return
	}
	response.OK(c, b)
}

// History handles GET /points/history. Query: ?limit=50.
func (h *Handler) History(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.repo.History(c.Request.Context(), userID, limit)
	if err != nil {
		response.Internal(c, "failed to load history")
		return
	}
	response.OK(c, list)
}
