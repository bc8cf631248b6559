//go:build linux

package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

/**
 * Represents a log format.
 */
type LogFormat int

/**
 * Supported log formats.
 */
const (
	LogText LogFormat = iota
	LogJSON
)

/**
 * LoggerError wraps a failure to (re)configure the global logger's
 * destination.
 */
type LoggerError struct {
	Path string
	Err  error
}

func (e *LoggerError) Error() string {
	return fmt.Sprintf("configure logger %q: %v", e.Path, e.Err)
}

func (e *LoggerError) Unwrap() error { return e.Err }

/**
 * The global logger instance. Every component imports this rather than
 * building its own, since the logger is the one piece of state shared
 * across judgments.
 */
var Log = slog.New(slog.NewTextHandler(os.Stdout, nil))

var (
	mu       sync.Mutex
	destFile *os.File
)

/**
 * Configure (re)points the global logger at the file named by path, or
 * at stdout when path is empty. It is idempotent: each call replaces the
 * single global Log with a logger writing to the new destination and
 * closes the previously opened file, if any. This is the library's
 * `configure_logger(path?)` entry point.
 * @param path the log file path, or "" for stdout
 * @param format the log record format
 * @return error if the destination file could not be opened
 */
func Configure(path string, format LogFormat) error {
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = os.Stdout
	var f *os.File
	if path != "" {
		opened, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return &LoggerError{Path: path, Err: err}
		}
		w, f = opened, opened
	}

	var handler slog.Handler
	handlerOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == LogJSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	Log = slog.New(handler).With(slog.Int("pid", os.Getpid()))
	slog.SetDefault(Log)

	if destFile != nil {
		_ = destFile.Close()
	}
	destFile = f
	return nil
}
