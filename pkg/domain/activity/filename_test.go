package activity

import (
	"path/filepath"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		maxLength int
		expected  string
	}{
		{"Spaces become underscores", "Morning Run", 0, "Morning_Run"},
		{"Accents decompose to base letters", "Crème brûlée", 0, "Creme_brulee"},
		{"Disallowed characters dropped", "5k @ the park!", 0, "5k__the_park"},
		{"Allowed punctuation kept", "interval (4x400m) -_test.", 0, "interval_(4x400m)_-_test."},
		{"Truncation", "abcdefghij", 4, "abcd"},
		{"Empty", "", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in, tt.maxLength); got != tt.expected {
				t.Errorf("SanitizeFilename(%q, %d) = %q, want %q", tt.in, tt.maxLength, got, tt.expected)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name     string
		dir      string
		subdir   string
		dateTime string
		expected string
	}{
		{"Year and month", "export", "{YYYY}/{MM}", "2021-06-01 08:00:00", filepath.Join("export", "2021", "06")},
		{"Year only", "export", "{YYYY}", "2021-06-01", filepath.Join("export", "2021")},
		{"No placeholders", "export", "files", "2021-06-01", filepath.Join("export", "files")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePath(tt.dir, tt.subdir, tt.dateTime); got != tt.expected {
				t.Errorf("ResolvePath() = %q, want %q", got, tt.expected)
			}
		})
	}
}
