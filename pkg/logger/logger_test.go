package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRecord(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info").With("session", "abc")
	l.Infof("loaded %s", "/work/")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "loaded /work/", rec["message"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "abc", rec["session"])
	assert.Contains(t, rec, "timestamp")
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")
	l.Debugf("hidden")
	l.Infof("hidden")
	assert.Zero(t, buf.Len())
	l.Errorf("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNop(t *testing.T) {
	Nop().Errorf("nothing %d", 1)
}
