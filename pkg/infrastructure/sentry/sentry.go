// Package sentry wraps optional error reporting for fatal export failures.
// Reporting is disabled unless SENTRY_DSN is set.
package sentry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// Init initializes Sentry from the given DSN. An empty DSN disables
// reporting and is not an error.
func Init(dsn, release string) error {
	if dsn == "" {
		slog.Debug("Sentry DSN not configured - error tracking disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:     dsn,
		Release: release,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// Filter out sensitive data
			if event.Request != nil && event.Request.Headers != nil {
				delete(event.Request.Headers, "Authorization")
				delete(event.Request.Headers, "Cookie")
			}
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	slog.Info("Sentry initialized", "release", release)
	return nil
}

// CaptureException reports an error with the run identifier attached.
func CaptureException(err error, runID string) {
	if err == nil {
		return
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("run_id", runID)
	})
	sentry.CaptureException(err)
}

// Flush waits for pending events before process exit.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
