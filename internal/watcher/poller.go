package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FileProcessor drives a single inbox file to a terminal state.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (State, error)
}

// Poller scans the inbox on a fixed interval and submits each CSV file, in
// filename order, to the lifecycle. A single poller is the only worker: a
// file is never revisited once moved out of the inbox, which is what makes
// the marker check race-free.
type Poller struct {
	dir       string
	interval  time.Duration
	processor FileProcessor
	log       zerolog.Logger
}

// NewPoller creates a poller over the inbox directory.
func NewPoller(dir string, interval time.Duration, processor FileProcessor, log zerolog.Logger) *Poller {
	return &Poller{
		dir:       dir,
		interval:  interval,
		processor: processor,
		log:       log,
	}
}

// Start runs one pass immediately, then polls until the context is canceled.
func (p *Poller) Start(ctx context.Context) {
	p.log.Info().
		Str("dir", p.dir).
		Dur("interval", p.interval).
		Msg("Watching for new CSV files")

	p.scan(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("Poller stopping due to context cancellation")
			return
		case <-ticker.C:
			p.scan(ctx)
		}
	}
}

// scan processes every eligible inbox file sequentially. One file's failure
// never aborts the pass; the lifecycle has already archived and logged it.
func (p *Poller) scan(ctx context.Context) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		p.log.Error().Err(err).Str("dir", p.dir).Msg("Failed to list inbox")
		return
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	for _, name := range files {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.processor.ProcessFile(ctx, filepath.Join(p.dir, name)); err != nil {
			p.log.Debug().Err(err).Str("file", name).Msg("File handled as failed")
		}
	}
}
