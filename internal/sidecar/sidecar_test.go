package sidecar

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSkipMarkerLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")

	if HasSkipMarker(path) {
		t.Fatal("HasSkipMarker() true before marker created")
	}

	if err := CreateSkipMarker(path); err != nil {
		t.Fatalf("CreateSkipMarker() error = %v", err)
	}
	if !HasSkipMarker(path) {
		t.Error("HasSkipMarker() false after marker created")
	}

	// Idempotent.
	if err := CreateSkipMarker(path); err != nil {
		t.Errorf("CreateSkipMarker() second call error = %v", err)
	}

	if err := RemoveSkipMarker(path); err != nil {
		t.Fatalf("RemoveSkipMarker() error = %v", err)
	}
	if HasSkipMarker(path) {
		t.Error("HasSkipMarker() true after marker removed")
	}

	// Removing an already-absent marker is not an error.
	if err := RemoveSkipMarker(path); err != nil {
		t.Errorf("RemoveSkipMarker() on absent marker error = %v", err)
	}
}

func TestWriteWhyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")

	if err := WriteWhyFile(path, "already av1"); err != nil {
		t.Fatalf("WriteWhyFile() error = %v", err)
	}

	data, err := os.ReadFile(path + ".why.txt")
	if err != nil {
		t.Fatalf("reading why file: %v", err)
	}
	if string(data) != "already av1" {
		t.Errorf("why file contents = %q, want %q", data, "already av1")
	}

	// Overwrites on repeat calls.
	if err := WriteWhyFile(path, "updated reason"); err != nil {
		t.Fatalf("WriteWhyFile() second call error = %v", err)
	}
	data, err = os.ReadFile(path + ".why.txt")
	if err != nil {
		t.Fatalf("reading why file: %v", err)
	}
	if string(data) != "updated reason" {
		t.Errorf("why file contents = %q, want %q", data, "updated reason")
	}
}
