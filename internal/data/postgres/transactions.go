package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/cardwatch/cardwatch/internal/domain"
)

const pgUniqueViolation = "23505"

// InsertTransaction persists one transaction candidate. A natural-key
// conflict surfaces as domain.ErrDuplicateTransaction; the unique constraint
// is the store-side backstop behind the importer's dedup check.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, transaction_date, description, amount, category, card, multiplier_id, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var category *string
	if tx.Category != "" {
		category = &tx.Category
	}
	var multiplierID *uuid.UUID
	if tx.MultiplierID.Valid {
		multiplierID = &tx.MultiplierID.UUID
	}
	var points *string
	if tx.Points.Valid {
		v := tx.Points.Decimal.StringFixed(2)
		points = &v
	}

	_, err := s.querier.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.TransactionDate,
		tx.Description,
		tx.Amount.StringFixed(2),
		category,
		tx.Card,
		multiplierID,
		points,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrDuplicateTransaction
		}
		s.log.Error().Err(err).Msg("Failed to insert transaction")
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// ExistsByNaturalKey reports whether the owner already has a transaction with
// this (date, description, amount, card) tuple.
func (s *Store) ExistsByNaturalKey(ctx context.Context, userID uuid.UUID, key domain.NaturalKey) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE user_id = $1 AND transaction_date = $2 AND description = $3 AND amount = $4 AND card = $5
		)
	`

	var exists bool
	err := s.querier.QueryRow(ctx, query,
		userID,
		key.TransactionDate,
		key.Description,
		key.Amount.StringFixed(2),
		key.Card,
	).Scan(&exists)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to check natural key")
		return false, fmt.Errorf("failed to check natural key: %w", err)
	}

	return exists, nil
}

// ListTransactions returns the owner's transactions newest-first.
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT id, user_id, transaction_date, description, amount::text, category, card, multiplier_id, points::text, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY transaction_date DESC, created_at DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := s.querier.Query(ctx, query, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var (
			tx           domain.Transaction
			amount       string
			category     *string
			multiplierID *uuid.UUID
			points       *string
		)
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.TransactionDate,
			&tx.Description,
			&amount,
			&category,
			&tx.Card,
			&multiplierID,
			&points,
			&tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
		}
		if category != nil {
			tx.Category = *category
		}
		if multiplierID != nil {
			tx.MultiplierID = uuid.NullUUID{UUID: *multiplierID, Valid: true}
		}
		if points != nil {
			p, err := decimal.NewFromString(*points)
			if err != nil {
				return nil, fmt.Errorf("failed to parse points %q: %w", *points, err)
			}
			tx.Points = decimal.NullDecimal{Decimal: p, Valid: true}
		}

		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txs, nil
}

// Summary returns the owner's total spend and total points earned.
func (s *Store) Summary(ctx context.Context, userID uuid.UUID) (totalSpent, totalPoints decimal.Decimal, err error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)::text, COALESCE(SUM(points), 0)::text
		FROM transactions
		WHERE user_id = $1
	`

	var spent, pts string
	if err = s.querier.QueryRow(ctx, query, userID).Scan(&spent, &pts); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to compute summary: %w", err)
	}

	if totalSpent, err = decimal.NewFromString(spent); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse total spent %q: %w", spent, err)
	}
	if totalPoints, err = decimal.NewFromString(pts); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse total points %q: %w", pts, err)
	}

	return totalSpent, totalPoints, nil
}
