package models

import (
	"time"

	"github.com/google/uuid"
)

// FlashcardDeck groups study cards owned by a user.
type FlashcardDeck struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CardCount   int       `json:"card_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Flashcard is one question/answer pair in a deck. Review scheduling uses a
// doubling interval: each successful review pushes due_at out twice as far.
type Flashcard struct {
	ID           uuid.UUID  `json:"id"`
	DeckID       uuid.UUID  `json:"deck_id"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	ReviewCount  int        `json:"review_count"`
	IntervalDays int        `json:"interval_days"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
