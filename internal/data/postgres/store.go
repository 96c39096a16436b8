// Package postgres implements the transaction, multiplier, and user stores
// over PostgreSQL. It owns persistence and the uniqueness constraints that
// back up the importer's dedup check.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/cardwatch/cardwatch/internal/importer"
	"github.com/cardwatch/cardwatch/internal/platform/persistence"
)

// Store exposes every query the importer and the API need. It runs against
// the shared pool by default; WithinTx rebinds it to a single transaction.
type Store struct {
	db      *persistence.PostgresDB // nil when bound to a transaction
	querier persistence.Querier
	log     zerolog.Logger
}

// NewStore creates a Store over the database's connection pool.
func NewStore(db *persistence.PostgresDB, log zerolog.Logger) *Store {
	return &Store{
		db:      db,
		querier: db.Pool(),
		log:     log,
	}
}

// WithinTx runs fn against a Store bound to one transaction. An error from fn
// rolls the transaction back, so a batch import is all-or-nothing.
func (s *Store) WithinTx(ctx context.Context, fn func(importer.Store) error) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return fn(&Store{querier: tx, log: s.log})
	})
}

var _ importer.Store = (*Store)(nil)
