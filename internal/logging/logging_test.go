package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Config{Level: "warn", Format: FormatJSON}, "sudokud")
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("game_id", "ROOM01"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "ROOM01", entry["game_id"])
	assert.Equal(t, "sudokud", entry["service"])
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Config{Level: "debug", Format: FormatText}, "sudokud")
	require.NoError(t, err)

	logger.Debug("hello", slog.String("player_id", "p1"))
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "p1")
}

func TestRejectsUnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Config{Format: "xml"}, "")
	assert.Error(t, err)
}
