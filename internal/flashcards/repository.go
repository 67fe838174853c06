package flashcards

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peermock/backend/internal/models"
)

var (
	ErrDeckNotFound = errors.New("deck not found")
	ErrCardNotFound = errors.New("card not found")
)

// Repository handles flashcard deck and card persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a flashcards repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateDeck inserts a deck for the owner.
func (r *Repository) CreateDeck(ctx context.Context, ownerID uuid.UUID, title, description string) (*models.FlashcardDeck, error) {
	d := &models.FlashcardDeck{OwnerID: ownerID, Title: title, Description: description}
	err := r.pool.QueryRow(ctx, `INSERT INTO flashcard_decks (owner_id, title, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		ownerID, title, description).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetDeck returns a deck with its card count.
func (r *Repository) GetDeck(ctx context.Context, id uuid.UUID) (*models.FlashcardDeck, error) {
	var d models.FlashcardDeck
	err := r.pool.QueryRow(ctx, `SELECT d.id, d.owner_id, d.title, d.description,
			(SELECT COUNT(*) FROM flashcards c WHERE c.deck_id = d.id),
			d.created_at, d.updated_at
		FROM flashcard_decks d WHERE d.id = $1`, id).
		Scan(&d.ID, &d.OwnerID, &d.Title, &d.Description, &d.CardCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListDecks returns the owner's decks with card counts.
func (r *Repository) ListDecks(ctx context.Context, ownerID uuid.UUID) ([]models.FlashcardDeck, error) {
	rows, err := r.pool.Query(ctx, `SELECT d.id, d.owner_id, d.title, d.description,
			(SELECT COUNT(*) FROM flashcards c WHERE c.deck_id = d.id),
			d.created_at, d.updated_at
		FROM flashcard_decks d
		WHERE d.owner_id = $1
		ORDER BY d.updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.FlashcardDeck
	for rows.Next() {
		var d models.FlashcardDeck
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Description, &d.CardCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// DeleteDeck removes a deck and its cards.
func (r *Repository) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM flashcard_decks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDeckNotFound
	}
	return nil
}

const cardColumns = `id, deck_id, front, back, review_count, interval_days, due_at, created_at, updated_at`

// CreateCard inserts a card into a deck.
func (r *Repository) CreateCard(ctx context.Context, deckID uuid.UUID, front, back string) (*models.Flashcard, error) {
	return scanCard(r.pool.QueryRow(ctx, `INSERT INTO flashcards (deck_id, front, back)
		VALUES ($1, $2, $3)
		RETURNING `+cardColumns, deckID, front, back))
}

// GetCard returns a card by ID.
func (r *Repository) GetCard(ctx context.Context, id uuid.UUID) (*models.Flashcard, error) {
	return scanCard(r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM flashcards WHERE id = $1`, id))
}

// ListCards returns a deck's cards, oldest first.
func (r *Repository) ListCards(ctx context.Context, deckID uuid.UUID) ([]models.Flashcard, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cardColumns+` FROM flashcards
		WHERE deck_id = $1 ORDER BY created_at`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Flashcard
	for rows.Next() {
		var card models.Flashcard
		if err := rows.Scan(&card.ID, &card.DeckID, &card.Front, &card.Back,
			&card.ReviewCount, &card.IntervalDays, &card.DueAt, &card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, card)
	}
	return list, rows.Err()
}

// ListDue returns the deck's cards due for review at or before now.
func (r *Repository) ListDue(ctx context.Context, deckID uuid.UUID, now time.Time) ([]models.Flashcard, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cardColumns+` FROM flashcards
		WHERE deck_id = $1 AND (due_at IS NULL OR due_at <= $2)
		ORDER BY due_at NULLS FIRST`, deckID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Flashcard
	for rows.Next() {
		var card models.Flashcard
		if err := rows.Scan(&card.ID, &card.DeckID, &card.Front, &card.Back,
			&card.ReviewCount, &card.IntervalDays, &card.DueAt, &card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, card)
	}
	return list, rows.Err()
}

// RecordReview applies one review outcome. A pass doubles the interval and
// pushes due_at out by the new interval; a fail resets the interval to one
// day and makes the card due tomorrow.
func (r *Repository) RecordReview(ctx context.Context, id uuid.UUID, passed bool, now time.Time) (*models.Flashcard, error) {
	var query string
	if passed {
		query = `UPDATE flashcards
			SET review_count = review_count + 1,
			    interval_days = interval_days * 2,
			    due_at = $2 + (interval_days * 2) * INTERVAL '1 day',
			    updated_at = now()
			WHERE id = $1
			RETURNING ` + cardColumns
	} else {
		query = `UPDATE flashcards
			SET review_count = review_count + 1,
			    interval_days = 1,
			    due_at = $2 + INTERVAL '1 day',
			    updated_at = now()
			WHERE id = $1
			RETURNING ` + cardColumns
	}
	return scanCard(r.pool.QueryRow(ctx, query, id, now))
}

// DeleteCard removes a card.
func (r *Repository) DeleteCard(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM flashcards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

func scanCard(row pgx.Row) (*models.Flashcard, error) {
	var card models.Flashcard
	err := row.Scan(&card.ID, &card.DeckID, &card.Front, &card.Back,
		&card.ReviewCount, &card.IntervalDays, &card.DueAt, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}
