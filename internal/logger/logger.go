// Package logger builds the process-wide slog logger: JSON records on stdout,
// optionally mirrored to a log file, with a level that can change at runtime.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger owns the handler level and the optional log file.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  *os.File
}

// New returns a JSON logger writing to stdout and, when path is non-empty,
// to path as well. The parent directory of path is created if needed.
func New(level, path string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	lv := &slog.LevelVar{}
	lv.Set(lvl)

	var w io.Writer = os.Stdout
	var f *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("logger: create log dir: %w", err)
		}
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
	}

	return &Logger{
		Logger: NewWithWriter(w, lv),
		level:  lv,
		file:   f,
	}, nil
}

// NewWithWriter returns a JSON logger on w gated by level.
func NewWithWriter(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetLevel changes the level of the running logger.
func (l *Logger) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(lvl)
	return nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a config level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", s)
	}
}

// Scope tags records with the emitting component.
func Scope(name string) slog.Attr {
	return slog.String("scope", name)
}

// Error attaches err under the "err" key.
func Error(err error) slog.Attr {
	return slog.Any("err", err)
}
