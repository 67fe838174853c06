package points

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peermock/backend/internal/models"
	"github.com/peermock/backend/internal/scheduling"
	"github.com/peermock/backend/pkg/database"
)

// Repository is the points ledger backed by point_balances and
// point_transactions. All writes are tx-aware: when a transaction is carried
// in ctx the write joins it, so a booking debit commits or rolls back with
// the booking itself.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a points repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Debit subtracts amount from the user's balance and journals the entry.
// The guarded UPDATE keeps the balance non-negative under concurrency;
// a miss means insufficient funds.
func (r *Repository) Debit(ctx context.Context, userID uuid.UUID, amount int, reason string) error {
	if amount <= 0 {
		return nil
	}
	q := database.From(ctx, r.pool)
	var balanceAfter int
	err := q.QueryRow(ctx, `UPDATE point_balances
		SET balance = balance - $2, updated_at = now()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance`, userID, amount).Scan(&balanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		// No matching row: either the user has no balance row or the
		// balance is short. Both read as insufficient funds.
		return scheduling.ErrInsufficientPoints
	}
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `INSERT INTO point_transactions (user_id, amount, reason, balance_after)
		VALUES ($1, $2, $3, $4)`, userID, -amount, reason, balanceAfter)
	return err
}

// Credit adds amount to the user's balance, creating the balance row on
// first credit, and journals the entry.
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int, reason string) error {
	if amount <= 0 {
		return nil
	}
	q := database.From(ctx, r.pool)
	var balanceAfter int
	err := q.QueryRow(ctx, `INSERT INTO point_balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = point_balances.balance + $2, updated_at = now()
		RETURNING balance`, userID, amount).Scan(&balanceAfter)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `INSERT INTO point_transactions (user_id, amount, reason, balance_after)
		VALUES ($1, $2, $3, $4)`, userID, amount, reason, balanceAfter)
	return err
}

// Balance returns the user's current balance. Users without a balance row
// read as zero.
func (r *Repository) Balance(ctx context.Context, userID uuid.UUID) (*models.PointBalance, error) {
	q := database.From(ctx, r.pool)
	b := &models.PointBalance{UserID: userID}
	err := q.QueryRow(ctx, `SELECT balance, updated_at FROM point_balances WHERE user_id = $1`,
		userID).Scan(&b.Balance, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.PointBalance{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// History returns the user's journal entries, newest first.
func (r *Repository) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := database.From(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT id, user_id, amount, reason, balance_after, created_at
		FROM point_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.PointTransaction
	for rows.Next() {
		var t models.PointTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Reason, &t.BalanceAfter, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
