package watcher

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Status is the terminal outcome recorded for a file.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// EventLog is the append-only ingestion log: one comma-joined
// `timestamp,filename,status,message` line per terminal transition. It is
// never rewritten or compacted.
type EventLog struct {
	path string
	mu   sync.Mutex
}

// NewEventLog creates an event log appending to the file at path.
func NewEventLog(path string) *EventLog {
	return &EventLog{path: path}
}

// Append writes one log line. The message is empty on success; newlines and
// carriage returns in failure messages are flattened so every event stays on
// one line.
func (e *EventLog) Append(filename string, status Status, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := os.OpenFile(e.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("event log: open %s: %w", e.path, err)
	}
	defer f.Close()

	message = strings.NewReplacer("\n", " ", "\r", " ").Replace(message)
	line := fmt.Sprintf("%s,%s,%s,%s\n", time.Now().Format(time.RFC3339), filename, status, message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("event log: append: %w", err)
	}
	return nil
}
