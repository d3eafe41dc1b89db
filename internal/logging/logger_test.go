package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelWarn, FormatJSON)
	logger.SetOutput(&buf)

	logger.Info("dropped")
	logger.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry.Level)
	assert.Equal(t, "kept", entry.Message)
}

func TestLogger_WithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(LevelDebug, FormatJSON)
	parent.SetOutput(&buf)

	child := parent.WithField("source", "primary")
	child.Info("child")
	parent.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var childEntry, parentEntry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &childEntry))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &parentEntry))
	assert.Equal(t, "primary", childEntry.Fields["source"])
	assert.Empty(t, parentEntry.Fields)
}

func TestLogger_Events(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo, FormatJSON)
	logger.SetOutput(&buf)

	logger.Event("cache_hit", map[string]interface{}{"records": 3})
	logger.WarnEvent("stale_cache_served", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var hit, stale LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &hit))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &stale))

	assert.Equal(t, "info", hit.Level)
	assert.Equal(t, "cache_hit", hit.Fields["event"])
	assert.EqualValues(t, 3, hit.Fields["records"])
	assert.Equal(t, "warn", stale.Level)
	assert.Equal(t, "stale_cache_served", stale.Fields["event"])
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo, FormatText)
	logger.SetOutput(&buf)

	logger.WithField("k", "v").Info("hello")

	out := buf.String()
	assert.Contains(t, out, "info: hello")
	assert.Contains(t, out, `fields={"k":"v"}`)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLogLevel("verbose"))
	assert.Equal(t, FormatText, ParseLogFormat("text"))
	assert.Equal(t, FormatJSON, ParseLogFormat("yaml"))
}
