package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog_AppendFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watcher_log.csv")
	log := NewEventLog(path)

	require.NoError(t, log.Append("amex_march.csv", StatusProcessed, ""))
	require.NoError(t, log.Append("visa_feb.csv", StatusFailed, "validation failed: CSV headers missing"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	first := strings.SplitN(lines[0], ",", 4)
	require.Len(t, first, 4)
	_, err = time.Parse(time.RFC3339, first[0])
	assert.NoError(t, err, "timestamp must be RFC3339")
	assert.Equal(t, []string{"amex_march.csv", "processed", ""}, first[1:])

	second := strings.SplitN(lines[1], ",", 4)
	assert.Equal(t, "visa_feb.csv", second[1])
	assert.Equal(t, "failed", second[2])
	assert.Contains(t, second[3], "headers missing")
}

func TestEventLog_FlattensNewlinesInMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watcher_log.csv")
	log := NewEventLog(path)

	require.NoError(t, log.Append("a.csv", StatusFailed, "line one\nline two"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 1)
}

func TestEventLog_AppendsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watcher_log.csv")

	require.NoError(t, NewEventLog(path).Append("a.csv", StatusProcessed, ""))
	require.NoError(t, NewEventLog(path).Append("b.csv", StatusProcessed, ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}
