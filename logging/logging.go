// Package logging builds the program's slog logger. The terminal UI owns
// stdout, so records go to a per-session file under the log directory.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ssoenhancer/config"

	"github.com/google/uuid"
)

// Session is an open session log
type Session struct {
	ID     string
	Path   string
	Logger *slog.Logger
	file   *os.File
}

// Close closes the log file
func (s *Session) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// ParseLevel maps a level name to a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", s)
	}
	return level, nil
}

// New returns a logger writing to w
func New(w io.Writer, cfg config.LogSettings) (*slog.Logger, error) {
	handler, err := buildHandler(w, cfg)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

func buildHandler(w io.Writer, cfg config.LogSettings) (slog.Handler, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text", "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

// Open creates <dir>/<session-id>.log and a logger writing to it. When the
// file cannot be created the returned session logs to stderr and the error
// says why.
func Open(dir string, cfg config.LogSettings) (*Session, error) {
	id := uuid.New().String()

	// reject bad settings before touching the filesystem
	if _, err := buildHandler(io.Discard, cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fallback(id, cfg, fmt.Errorf("failed to create log directory: %w", err))
	}

	path := filepath.Join(dir, id+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fallback(id, cfg, fmt.Errorf("failed to open log file: %w", err))
	}

	logger, err := New(file, cfg)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &Session{
		ID:     id,
		Path:   path,
		Logger: logger.With("session", id),
		file:   file,
	}, nil
}

func fallback(id string, cfg config.LogSettings, cause error) (*Session, error) {
	logger, err := New(os.Stderr, cfg)
	if err != nil {
		return nil, err
	}
	logger.Warn("file logging unavailable, logging to stderr", "error", cause)
	return &Session{ID: id, Logger: logger.With("session", id)}, cause
}
