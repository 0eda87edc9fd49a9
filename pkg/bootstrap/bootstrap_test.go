package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleLevel(t *testing.T) {
	cases := []struct {
		verbosity int
		want      slog.Level
	}{
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{5, slog.LevelDebug},
	}
	for _, tc := range cases {
		if got := ConsoleLevel(tc.verbosity); got != tc.want {
			t.Errorf("ConsoleLevel(%d) = %v, want %v", tc.verbosity, got, tc.want)
		}
	}
}

func TestTeeHandlerRespectsLevels(t *testing.T) {
	var file, console strings.Builder
	tee := &teeHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	logger := slog.New(tee)

	logger.Debug("detail")
	logger.Warn("problem")

	if !strings.Contains(file.String(), "detail") || !strings.Contains(file.String(), "problem") {
		t.Errorf("file handler should see every record, got %q", file.String())
	}
	if strings.Contains(console.String(), "detail") {
		t.Errorf("console handler should filter debug records, got %q", console.String())
	}
	if !strings.Contains(console.String(), "problem") {
		t.Errorf("console handler should see warnings, got %q", console.String())
	}
}

func TestTeeHandlerEnabled(t *testing.T) {
	tee := &teeHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	if tee.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled when every handler filters it")
	}
	if !tee.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled")
	}
}
