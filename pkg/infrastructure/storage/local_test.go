package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreWrite(t *testing.T) {
	dir := t.TempDir()
	store := &FileStore{}

	path := filepath.Join(dir, "2021", "06", "activity_1.gpx")
	mtime := time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := store.Write(path, []byte("<gpx/>"), &mtime); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !store.Exists(path) {
		t.Fatal("expected file to exist")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("mod time = %v, want %v", info.ModTime(), mtime)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<gpx/>" {
		t.Errorf("content = %q", data)
	}
}

func TestFileStoreExists(t *testing.T) {
	dir := t.TempDir()
	store := &FileStore{}
	if store.Exists(filepath.Join(dir, "nope")) {
		t.Error("missing file reported as existing")
	}
	if store.Exists(dir) {
		t.Error("directory reported as regular file")
	}
}
