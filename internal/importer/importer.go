// Package importer turns canonical-schema CSV text into persisted
// transactions: it parses rows, recomputes points, suppresses duplicates
// against the store, and writes the batch inside one store transaction.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cardwatch/cardwatch/internal/domain"
	"github.com/cardwatch/cardwatch/internal/normalize"
	"github.com/cardwatch/cardwatch/internal/points"
)

// Store is the slice of the persistence layer the importer needs. WithinTx
// runs fn against a store bound to a single transaction; returning an error
// rolls the whole batch back, so a malformed row never leaves a partial
// import behind.
type Store interface {
	points.Lookup
	ExistsByNaturalKey(ctx context.Context, userID uuid.UUID, key domain.NaturalKey) (bool, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	WithinTx(ctx context.Context, fn func(s Store) error) error
}

// Result reports what one import did.
type Result struct {
	Added   int
	Skipped int
}

// Importer persists canonical CSV rows for an owner.
type Importer struct {
	store Store
	log   zerolog.Logger
}

// New creates an Importer backed by the given store.
func New(store Store, log zerolog.Logger) *Importer {
	return &Importer{store: store, log: log}
}

const dateLayout = "2006-01-02"

// ImportCSV parses content as canonical-schema CSV and persists each row for
// userID. Rows matching an existing transaction's natural key, or an earlier
// row in the same batch, are skipped. Any row that fails to parse aborts the
// batch and rolls back rows already staged.
func (i *Importer) ImportCSV(ctx context.Context, content string, userID uuid.UUID) (Result, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return Result{}, fmt.Errorf("ImportCSV: reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for n, h := range header {
		idx[strings.TrimSpace(h)] = n
	}
	var missing []string
	for _, want := range normalize.CanonicalHeaders {
		if _, ok := idx[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return Result{}, fmt.Errorf("ImportCSV: %w: missing %s",
			normalize.ErrMissingHeaders, strings.Join(missing, ", "))
	}

	var result Result
	err = i.store.WithinTx(ctx, func(s Store) error {
		seen := make(map[string]bool)

		for row := 1; ; row++ {
			record, err := r.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("row %d: %w", row, err)
			}

			tx, err := parseRow(record, idx, userID)
			if err != nil {
				return fmt.Errorf("row %d: %w", row, err)
			}

			if err := points.Apply(ctx, tx, s); err != nil {
				return fmt.Errorf("row %d: %w", row, err)
			}

			key := tx.Key()
			if seen[key.String()] {
				result.Skipped++
				continue
			}
			exists, err := s.ExistsByNaturalKey(ctx, userID, key)
			if err != nil {
				return fmt.Errorf("row %d: duplicate check: %w", row, err)
			}
			if exists {
				result.Skipped++
				continue
			}

			if err := s.InsertTransaction(ctx, tx); err != nil {
				return fmt.Errorf("row %d: insert: %w", row, err)
			}
			seen[key.String()] = true
			result.Added++
		}
	})
	if err != nil {
		return Result{}, fmt.Errorf("ImportCSV: %w", err)
	}

	i.log.Info().Int("added", result.Added).Int("skipped", result.Skipped).Msg("Import finished")
	return result, nil
}

// parseRow maps one record onto a transaction candidate. Description, card,
// and category are trimmed here, before the dedup comparison ever sees them.
func parseRow(record []string, idx map[string]int, userID uuid.UUID) (*domain.Transaction, error) {
	field := func(name string) (string, error) {
		n := idx[name]
		if n >= len(record) {
			return "", fmt.Errorf("missing value for %q", name)
		}
		return strings.TrimSpace(record[n]), nil
	}

	dateStr, err := field("transaction_date")
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction_date %q: %w", dateStr, err)
	}

	description, err := field("description")
	if err != nil {
		return nil, err
	}
	if description == "" {
		return nil, fmt.Errorf("empty description")
	}

	amountStr, err := field("amount")
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}

	category, err := field("category")
	if err != nil {
		return nil, err
	}
	card, err := field("card")
	if err != nil {
		return nil, err
	}
	if card == "" {
		return nil, fmt.Errorf("empty card")
	}

	return &domain.Transaction{
		ID:              uuid.New(),
		UserID:          userID,
		TransactionDate: date,
		Description:     description,
		Amount:          amount,
		Category:        category,
		Card:            card,
	}, nil
}
