// Package storage persists export artifacts to the local filesystem.
package storage

import (
	"os"
	"path/filepath"
	"time"
)

// FileStore writes files beneath a user-chosen export directory, creating
// parent directories as needed. Existing files are never overwritten by
// the exporter; callers check Exists first.
type FileStore struct{}

// Write persists data to path, creating parent directories. A non-nil
// modTime is applied as the file's modification time (used to stamp
// downloads with the activity start time).
func (s *FileStore) Write(path string, data []byte, modTime *time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	if modTime != nil {
		return os.Chtimes(path, *modTime, *modTime)
	}
	return nil
}

// Exists reports whether path exists as a regular file.
func (s *FileStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
