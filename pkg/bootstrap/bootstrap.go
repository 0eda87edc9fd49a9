// Package bootstrap wires up process-wide concerns: structured logging to
// the log file and console, and the run identifier attached to every
// record.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LogFileName is the per-run log file, written into the log path (or the
// export directory when no log path is configured).
const LogFileName = "gcexport.log"

// teeHandler fans every record out to all wrapped handlers. The file
// handler records everything, the console handler filters by verbosity.
type teeHandler struct {
	handlers []slog.Handler
}

// Enabled implements slog.Handler
func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler
func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t.handlers {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

// WithAttrs implements slog.Handler
func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: handlers}
}

// WithGroup implements slog.Handler
func (t *teeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: handlers}
}

// ConsoleLevel maps the repeatable verbosity flag to a console log level.
// The log file always records at debug level regardless.
func ConsoleLevel(verbosity int) slog.Level {
	switch verbosity {
	case 0:
		return slog.LevelWarn
	case 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// InitLogger installs the default logger: a debug-level log file plus a
// verbosity-filtered console stream, both tagged with a fresh run ID.
// The returned closer flushes and closes the log file.
func InitLogger(logPath string, verbosity int) (runID string, closer func() error, err error) {
	if err := os.MkdirAll(logPath, 0o755); err != nil {
		return "", nil, err
	}
	f, err := os.OpenFile(filepath.Join(logPath, LogFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", nil, err
	}

	runID = uuid.NewString()
	fileHandler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	consoleHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ConsoleLevel(verbosity)})
	logger := slog.New(&teeHandler{handlers: []slog.Handler{fileHandler, consoleHandler}}).With("run_id", runID)
	slog.SetDefault(logger)

	return runID, f.Close, nil
}
