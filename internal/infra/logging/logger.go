// Package logging provides file-based logging for git-vault. It writes one
// append-only log file per repository (R/.git-vault/vault.log) recording
// every lock/unlock/patch/cache event, independent of whatever the CLI
// prints to the console via charmbracelet/log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benjaminpreiss/git-vault/internal/domain"
)

var _ domain.Logger = (*Logger)(nil)

// Logger writes structured, timestamped lines to a single log file.
type Logger struct {
	dir   string
	file  *os.File
	mu    sync.Mutex
	level slog.Level
}

// New creates a Logger that writes under dir (R/.git-vault). If dir is
// empty, logging is disabled and every call is a no-op.
func New(dir string, level slog.Level) *Logger {
	return &Logger{dir: dir, level: level}
}

// ParseLevel parses a log level string, defaulting to info on anything
// unrecognized.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) logPath() string { return filepath.Join(l.dir, "vault.log") }

func (l *Logger) ensureFile() (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file, nil
	}
	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(l.logPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open vault log: %w", err)
	}
	l.file = f
	return f, nil
}

// Close closes the underlying log file, if open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Format: [2026-08-01 09:32:51] [INFO] [category] message
func formatLog(t time.Time, level slog.Level, category, msg string) string {
	return fmt.Sprintf("[%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l *Logger) log(level slog.Level, category, msg string) {
	if l.dir == "" {
		return
	}
	if level < l.level {
		return
	}
	f, err := l.ensureFile()
	if err != nil {
		return
	}
	_, _ = io.WriteString(f, formatLog(time.Now(), level, category, msg))
}

// Info logs an info-level event under category (e.g. "lock", "unlock",
// "patch", "cache").
func (l *Logger) Info(category, msg string) { l.log(slog.LevelInfo, category, msg) }

// Warn logs a warning-level event.
func (l *Logger) Warn(category, msg string) { l.log(slog.LevelWarn, category, msg) }

// Error logs an error-level event.
func (l *Logger) Error(category, msg string) { l.log(slog.LevelError, category, msg) }
