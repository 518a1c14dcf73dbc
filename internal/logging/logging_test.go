package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		enabled bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"INFO", zapcore.InfoLevel, true},
		{"", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"off", zapcore.InvalidLevel, false},
	}
	for _, tt := range tests {
		lvl, enabled, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, lvl, tt.in)
		assert.Equal(t, tt.enabled, enabled, tt.in)
	}

	_, _, err := ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNewLoggerWritesFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vocab.log")
	var console bytes.Buffer

	logger, closeFn, err := NewLogger("debug", path, &console)
	require.NoError(t, err)

	logger.Debug("card selected", zap.String("card_id", "c1"))
	logger.Warn("recovery unavailable", zap.Int("failures", 2))
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "card selected", entry["msg"])
	assert.Equal(t, "c1", entry["card_id"])
	assert.Equal(t, "debug", entry["level"])

	// Console only receives warnings and above.
	assert.NotContains(t, console.String(), "card selected")
	assert.Contains(t, console.String(), "recovery unavailable")
}

func TestNewLoggerOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.log")
	logger, closeFn, err := NewLogger("off", path, os.Stderr)
	require.NoError(t, err)
	logger.Error("dropped")
	require.NoError(t, closeFn())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewLoggerBadLevel(t *testing.T) {
	_, _, err := NewLogger("chatty", "", nil)
	assert.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	_, ok := LoggerFromContext(context.Background())
	assert.False(t, ok)
	assert.NotNil(t, FromContext(context.Background()))

	logger := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), logger)
	got, ok := LoggerFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, logger, got)
	assert.Same(t, logger, FromContext(ctx))
}
