package logging

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLogger_Info(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir, slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("lock", "vault locked")

	content, err := os.ReadFile(logger.logPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "[INFO]")
	assert.Contains(t, string(content), "[lock]")
	assert.Contains(t, string(content), "vault locked")
}

func TestLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir, slog.LevelWarn)
	defer func() { _ = logger.Close() }()

	logger.Info("unlock", "info message")
	logger.Warn("unlock", "warn message")
	logger.Error("unlock", "error message")

	content, err := os.ReadFile(logger.logPath())
	require.NoError(t, err)
	assert.NotContains(t, string(content), "info message")
	assert.Contains(t, string(content), "warn message")
	assert.Contains(t, string(content), "error message")
}

func TestLogger_DisabledWhenEmptyDir(t *testing.T) {
	logger := New("", slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("lock", "test message")
	logger.Warn("lock", "warn message")
	logger.Error("lock", "error message")
}

func TestLogger_LogFormat(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir, slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("patch", `change set synthesized: 3 records`)

	content, err := os.ReadFile(logger.logPath())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "[patch]")
	assert.Contains(t, line, "change set synthesized: 3 records")
}

func TestLogger_MultipleCategoriesShareOneFile(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir, slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("lock", "locked vault secrets")
	logger.Info("cache", "cache refreshed")

	content, err := os.ReadFile(logger.logPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "[lock]")
	assert.Contains(t, string(content), "locked vault secrets")
	assert.Contains(t, string(content), "[cache]")
	assert.Contains(t, string(content), "cache refreshed")
}

func TestLogger_Close(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir, slog.LevelInfo)

	logger.Info("lock", "test message")

	require.NoError(t, logger.Close())
	assert.FileExists(t, logger.logPath())
}

func TestLogger_CreatesLogDir(t *testing.T) {
	parent := t.TempDir()
	dir := parent + "/.git-vault"

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	logger := New(dir, slog.LevelInfo)
	defer func() { _ = logger.Close() }()
	logger.Info("lock", "test message")

	stat, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}
