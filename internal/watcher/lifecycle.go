// Package watcher drives statement files from the inbox through
// normalization, validation, and import into a processed or failed archive.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cardwatch/cardwatch/internal/config"
	"github.com/cardwatch/cardwatch/internal/importer"
	"github.com/cardwatch/cardwatch/internal/metrics"
	"github.com/cardwatch/cardwatch/internal/normalize"
)

// State names the position of an inbox file in its lifecycle.
type State int

const (
	StateDiscovered State = iota
	StateNormalizing
	StateNormalized
	StateValidating
	StateArchivedProcessed
	StateArchivedFailed
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateNormalizing:
		return "normalizing"
	case StateNormalized:
		return "normalized"
	case StateValidating:
		return "validating"
	case StateArchivedProcessed:
		return "archived-processed"
	case StateArchivedFailed:
		return "archived-failed"
	default:
		return "unknown"
	}
}

// next returns the state that follows s when its stage succeeds. Failure in
// any non-terminal state lands in StateArchivedFailed; terminal states do not
// advance.
func next(s State) State {
	switch s {
	case StateDiscovered:
		return StateNormalizing
	case StateNormalizing:
		return StateNormalized
	case StateNormalized:
		return StateValidating
	case StateValidating:
		return StateArchivedProcessed
	default:
		return s
	}
}

// Importer is the per-row persistence step of the pipeline.
type Importer interface {
	ImportCSV(ctx context.Context, content string, userID uuid.UUID) (importer.Result, error)
}

const (
	markerSuffix    = ".processed"
	rawPrefix       = "raw_"
	timestampLayout = "20060102150405"
)

// Lifecycle is the per-file state machine. It owns all mutations of the
// inbox, processed, and failed directories, and only ever moves files whole.
type Lifecycle struct {
	dirs       config.WatcherConfig
	normalizer normalize.Normalizer
	importer   Importer
	ownerID    uuid.UUID
	events     *EventLog
	log        zerolog.Logger
}

// NewLifecycle wires the state machine to its collaborators. ownerID is the
// authenticated identity persisted rows are attributed to; it comes from the
// auth layer and is opaque here.
func NewLifecycle(
	dirs config.WatcherConfig,
	normalizer normalize.Normalizer,
	imp Importer,
	ownerID uuid.UUID,
	events *EventLog,
	log zerolog.Logger,
) *Lifecycle {
	return &Lifecycle{
		dirs:       dirs,
		normalizer: normalizer,
		importer:   imp,
		ownerID:    ownerID,
		events:     events,
		log:        log,
	}
}

// CardLabel derives the card identifier from a statement filename: the text
// before the first underscore of the stem, lowercased. "Amex_2024_03.csv"
// becomes "amex".
func CardLabel(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.ToLower(strings.SplitN(stem, "_", 2)[0])
}

// ProcessFile drives one inbox file to a terminal state. A file whose
// completion marker already exists is terminal immediately: no re-processing,
// no log entry. Every failure between normalization and import moves the
// original to the failed archive and appends a failed event; the error is
// returned for the caller's logging but has already been fully handled.
func (l *Lifecycle) ProcessFile(ctx context.Context, path string) (State, error) {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	marker := filepath.Join(filepath.Dir(path), stem+markerSuffix)

	state := StateDiscovered
	if _, err := os.Stat(marker); err == nil {
		l.log.Debug().Str("file", name).Msg("Completion marker present, skipping")
		return StateArchivedProcessed, nil
	}

	state = next(state) // Normalizing
	raw, err := os.ReadFile(path)
	if err != nil {
		return l.fail(name, path, state, fmt.Errorf("reading file: %w", err))
	}

	card := CardLabel(name)
	normalized, err := l.normalizer.Normalize(ctx, string(raw), card)
	if err != nil {
		return l.fail(name, path, state, fmt.Errorf("normalization: %w", err))
	}

	state = next(state) // Normalized
	firstLine, _, _ := strings.Cut(normalized, "\n")
	if !strings.Contains(strings.ToLower(firstLine), "transaction_date") {
		return l.fail(name, path, state, fmt.Errorf("model response missing headers"))
	}

	state = next(state) // Validating
	if err := normalize.ValidateCSV(normalized); err != nil {
		return l.fail(name, path, state, err)
	}

	result, err := l.importer.ImportCSV(ctx, normalized, l.ownerID)
	if err != nil {
		return l.fail(name, path, state, err)
	}

	if err := l.archiveProcessed(path, stem, normalized, marker); err != nil {
		return l.fail(name, path, state, err)
	}

	if err := l.events.Append(name, StatusProcessed, ""); err != nil {
		l.log.Error().Err(err).Str("file", name).Msg("Failed to append event log")
	}

	metrics.FilesProcessed.Inc()
	metrics.RowsAdded.Add(float64(result.Added))
	metrics.RowsSkipped.Add(float64(result.Skipped))

	l.log.Info().
		Str("file", name).
		Int("added", result.Added).
		Int("skipped", result.Skipped).
		Msg("Processed statement")

	return next(state), nil // ArchivedProcessed
}

// archiveProcessed writes the normalized output, moves the raw original into
// the processed archive, and touches the completion marker. The marker is
// written last: it is the durable success signal, so nothing may create it
// before every other side effect has landed.
func (l *Lifecycle) archiveProcessed(path, stem, normalized, marker string) error {
	outName := fmt.Sprintf("%s_normalized_%s.csv", stem, time.Now().Format(timestampLayout))
	outPath := filepath.Join(l.dirs.ProcessedDir, outName)
	if err := os.WriteFile(outPath, []byte(normalized), 0o644); err != nil {
		return fmt.Errorf("writing normalized output: %w", err)
	}

	rawDest := filepath.Join(l.dirs.ProcessedDir, rawPrefix+filepath.Base(path))
	if err := os.Rename(path, rawDest); err != nil {
		return fmt.Errorf("archiving original: %w", err)
	}

	f, err := os.OpenFile(marker, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("creating completion marker: %w", err)
	}
	return f.Close()
}

// fail moves the original file unchanged into the failed archive and records
// the failure. No marker is created, so re-dropping the same filename retries
// it.
func (l *Lifecycle) fail(name, path string, state State, cause error) (State, error) {
	if err := os.Rename(path, filepath.Join(l.dirs.FailedDir, name)); err != nil {
		// The file stays in the inbox and will be retried next cycle.
		l.log.Error().Err(err).Str("file", name).Msg("Failed to move file to failed archive")
	}

	if err := l.events.Append(name, StatusFailed, cause.Error()); err != nil {
		l.log.Error().Err(err).Str("file", name).Msg("Failed to append event log")
	}

	metrics.FilesFailed.Inc()

	l.log.Warn().
		Err(cause).
		Str("file", name).
		Stringer("state", state).
		Msg("Statement failed")

	return StateArchivedFailed, cause
}
