package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardwatch/cardwatch/internal/domain"
)

// GetUserByUsername looks up an account for authentication or to resolve the
// watcher's owner. Returns domain.ErrUserNotFound when no row matches.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, email, hashed_password, is_active
		FROM users
		WHERE username = $1
	`

	var u domain.User
	err := s.querier.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to look up user")
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return &u, nil
}
