// Package runlog provides the persistent run log: every record is appended
// to a log file and mirrored to the interactive output stream. Logging is
// best-effort; an unwritable log file degrades to mirror-only output and
// never fails a run.
package runlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log owns the open log file and the logger writing to it.
type Log struct {
	file   *os.File
	logger *slog.Logger
}

// Open opens the log file at path for appending and returns a Log whose
// logger tees each record to the file and to mirror. Format is "text" or
// "json". If the file cannot be opened, the returned Log writes to mirror
// only and a warning is emitted.
func Open(path string, mirror io.Writer, level slog.Level, format string) *Log {
	var file *os.File
	out := mirror
	if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			out = io.MultiWriter(file, mirror)
		} else {
			fmt.Fprintf(mirror, "hostkeeper: cannot open log file %s: %v\n", path, err)
		}
	} else {
		fmt.Fprintf(mirror, "hostkeeper: cannot create log directory for %s: %v\n", path, err)
	}

	return &Log{
		file:   file,
		logger: slog.New(NewHandler(out, level, format)),
	}
}

// NewHandler constructs a text or JSON handler for the given writer.
func NewHandler(out io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// Logger returns the logger backing this run log.
func (l *Log) Logger() *slog.Logger {
	return l.logger
}

// Close closes the underlying log file, if one was opened.
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
