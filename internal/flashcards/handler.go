package flashcards

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/peermock/backend/internal/middleware"
	"github.com/peermock/backend/internal/models"
	"github.com/peermock/backend/pkg/response"
)

// Handler exposes flashcard study endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a flashcards handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateDeckRequest is the body for POST /decks.
type CreateDeckRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// CreateCardRequest is the body for POST /decks/:id/cards.
type CreateCardRequest struct {
	Front string `json:"front" binding:"required"`
	Back  string `json:"back" binding:"required"`
}

// ReviewRequest is the body for POST /cards/:id/review.
type ReviewRequest struct {
	Passed bool `json:"passed"`
}

// CreateDeck handles POST /decks.
func (h *Handler) CreateDeck(c *gin.Context) {
	var req CreateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	deck, err := h.repo.CreateDeck(c.Request.Context(), userID, req.Title, req.Description)
	if err != nil {
		response.Internal(c, "failed to create deck")
		return
	}
	response.Created(c, deck)
}

// ListDecks handles GET /decks.
func (h *Handler) ListDecks(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListDecks(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list decks")
		return
	}
	response.OK(c, list)
}

// DeleteDeck handles DELETE /decks/:id. Owner only.
func (h *Handler) DeleteDeck(c *gin.Context) {
	deck, ok := h.ownedDeck(c, c.Param("id"))
	if !ok {
		return
	}
	if err := h.repo.DeleteDeck(c.Request.Context(), deck.ID); err != nil {
		response.Internal(c, "failed to delete deck")
		return
	}
	response.NoContent(c)
}

// CreateCard handles POST /decks/:id/cards. Owner only.
func (h *Handler) CreateCard(c *gin.Context) {
	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	deck, ok := h.ownedDeck(c, c.Param("id"))
	if !ok {
		return
	}
	card, err := h.repo.CreateCard(c.Request.Context(), deck.ID, req.Front, req.Back)
	if err != nil {
		response.Internal(c, "failed to create card")
		return
	}
	response.Created(c, card)
}

// ListCards handles GET /decks/:id/cards. Query ?due=1 filters to cards due
// for review. Owner only.
func (h *Handler) ListCards(c *gin.Context) {
	deck, ok := h.ownedDeck(c, c.Param("id"))
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if c.Query("due") == "1" {
		list, err := h.repo.ListDue(ctx, deck.ID, time.Now().UTC())
		if err != nil {
			response.Internal(c, "failed to list cards")
			return
		}
		response.OK(c, list)
		return
	}
	list, err := h.repo.ListCards(ctx, deck.ID)
	if err != nil {
		response.Internal(c, "failed to list cards")
		return
	}
	response.OK(c, list)
}

// Review handles POST /cards/:id/review. Owner only.
func (h *Handler) Review(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid card id")
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	card, err := h.repo.GetCard(c.Request.Context(), cardID)
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			response.NotFound(c, "card not found")
			return
		}
		response.Internal(c, "failed to load card")
		return
	}
	if _, ok := h.ownedDeck(c, card.DeckID.String()); !ok {
		return
	}

	updated, err := h.repo.RecordReview(c.Request.Context(), cardID, req.Passed, time.Now().UTC())
	if err != nil {
		response.Internal(c, "failed to record review")
		return
	}
	response.OK(c, updated)
}

// DeleteCard handles DELETE /cards/:id. Owner only.
func (h *Handler) DeleteCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid card id")
		return
	}
	card, err := h.repo.GetCard(c.Request.Context(), cardID)
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			response.NotFound(c, "card not found")
			return
		}
		response.Internal(c, "failed to load card")
		return
	}
	if _, ok := h.ownedDeck(c, card.DeckID.String()); !ok {
		return
	}
	if err := h.repo.DeleteCard(c.Request.Context(), cardID); err != nil {
		response.Internal(c, "failed to delete card")
		return
	}
	response.NoContent(c)
}

// ownedDeck loads the deck and enforces ownership, writing the error
// response itself when the check fails.
func (h *Handler) ownedDeck(c *gin.Context, rawID string) (*models.FlashcardDeck, bool) {
	deckID, err := uuid.Parse(rawID)
	if err != nil {
		response.BadRequest(c, "invalid deck id")
		return nil, false
	}
	deck, err := h.repo.GetDeck(c.Request.Context(), deckID)
	if err != nil {
		if errors.Is(err, ErrDeckNotFound) {
			response.NotFound(c, "deck not found")
			return nil, false
		}
		response.Internal(c, "failed to load deck")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if deck.OwnerID != userID {
		response.Forbidden(c, "not your deck")
		return nil, false
	}
	return deck, true
}
