// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package logging provides per-backend run log files. Each update run
// gets its own logger writing structured entries to the user cache dir,
// so a failed run can be diagnosed after the TUI is gone.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// RunLogger wraps a logrus logger bound to one backend's log file.
type RunLogger struct {
	*logrus.Logger

	file *os.File
	path string
}

// DefaultDir returns the log directory, honoring XDG_CACHE_HOME.
func DefaultDir() string {
	if cache := os.Getenv("XDG_CACHE_HOME"); cache != "" {
		return filepath.Join(cache, "sysup", "logs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sysup", "logs")
	}

	return filepath.Join(home, ".cache", "sysup", "logs")
}

// NewRunLogger creates a logger writing to
// <dir>/<backend>-<timestamp>.log. An empty dir selects DefaultDir.
func NewRunLogger(dir, backend string) (*RunLogger, error) {
	if dir == "" {
		dir = DefaultDir()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.log", backend, time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(file)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return &RunLogger{Logger: logger, file: file, path: path}, nil
}

// Discard returns a logger that drops everything, for dry runs and tests.
func Discard() *RunLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &RunLogger{Logger: logger}
}

// Path returns the log file path, empty for discard loggers.
func (l *RunLogger) Path() string {
	return l.path
}

// Close flushes and closes the underlying file.
func (l *RunLogger) Close() error {
	if l.file == nil {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	return nil
}
