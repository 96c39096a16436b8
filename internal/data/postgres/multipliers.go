package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardwatch/cardwatch/internal/domain"
)

// FindMultiplier returns the rule for an exact (category, card) pair, or
// (nil, nil) when no rule exists.
func (s *Store) FindMultiplier(ctx context.Context, category, card string) (*domain.Multiplier, error) {
	query := `
		SELECT id, category, card, multiplier
		FROM multipliers
		WHERE category = $1 AND card = $2
	`

	var m domain.Multiplier
	err := s.querier.QueryRow(ctx, query, category, card).Scan(&m.ID, &m.Category, &m.Card, &m.Multiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to look up multiplier")
		return nil, fmt.Errorf("failed to look up multiplier: %w", err)
	}

	return &m, nil
}

// ListMultipliers returns every reward rule, ordered for stable output.
func (s *Store) ListMultipliers(ctx context.Context) ([]*domain.Multiplier, error) {
	query := `
		SELECT id, category, card, multiplier
		FROM multipliers
		ORDER BY card, category
	`

	rows, err := s.querier.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list multipliers: %w", err)
	}
	defer rows.Close()

	var ms []*domain.Multiplier
	for rows.Next() {
		var m domain.Multiplier
		if err := rows.Scan(&m.ID, &m.Category, &m.Card, &m.Multiplier); err != nil {
			return nil, fmt.Errorf("failed to scan multiplier: %w", err)
		}
		ms = append(ms, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list multipliers: %w", err)
	}

	return ms, nil
}
