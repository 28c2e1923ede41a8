package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yourname/av1qsvd/internal/jobstore"
)

func writeCommandFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestProcessRequeueClearsSkipMarker(t *testing.T) {
	cmdDir := t.TempDir()
	libDir := t.TempDir()
	sourcePath := filepath.Join(libDir, "movie.mkv")
	if err := os.WriteFile(sourcePath, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	markerPath := sourcePath + ".av1skip"
	if err := os.WriteFile(markerPath, nil, 0644); err != nil {
		t.Fatal(err)
	}

	job := jobstore.New(sourcePath)
	job.SetStatus(jobstore.Skipped)

	writeCommandFile(t, cmdDir, "req1.json", `{"action":"requeue","job_id":"`+job.ID+`","reason":"try again","timestamp":"2026-01-01T00:00:00Z"}`)

	if err := Process(cmdDir, []*jobstore.Job{job}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if _, err := os.Stat(markerPath); !os.IsNotExist(err) {
		t.Errorf("expected skip marker removed after requeue, stat err = %v", err)
	}

	entries, err := os.ReadDir(cmdDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected command file consumed, found %d remaining", len(entries))
	}
}

func TestProcessIgnoresRequeueForNonTerminalJob(t *testing.T) {
	cmdDir := t.TempDir()
	libDir := t.TempDir()
	sourcePath := filepath.Join(libDir, "movie.mkv")
	markerPath := sourcePath + ".av1skip"
	if err := os.WriteFile(markerPath, nil, 0644); err != nil {
		t.Fatal(err)
	}

	job := jobstore.New(sourcePath)
	job.SetStatus(jobstore.Running)

	writeCommandFile(t, cmdDir, "req1.json", `{"action":"requeue","job_id":"`+job.ID+`"}`)

	if err := Process(cmdDir, []*jobstore.Job{job}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if _, err := os.Stat(markerPath); err != nil {
		t.Errorf("expected skip marker untouched for a Running job, stat err = %v", err)
	}
}

func TestProcessOnMissingDirReturnsNil(t *testing.T) {
	if err := Process(filepath.Join(t.TempDir(), "nope"), nil); err != nil {
		t.Errorf("Process() on missing dir error = %v, want nil", err)
	}
}

func TestProcessLeavesUnparseableCommandFileInPlace(t *testing.T) {
	cmdDir := t.TempDir()
	writeCommandFile(t, cmdDir, "bad.json", `not json`)

	if err := Process(cmdDir, nil); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(cmdDir, "bad.json")); err != nil {
		t.Errorf("expected unparseable command file left for the operator, stat err = %v", err)
	}
}

func TestWriteThenProcessRoundTrip(t *testing.T) {
	cmdDir := t.TempDir()
	libDir := t.TempDir()
	sourcePath := filepath.Join(libDir, "movie.mkv")
	markerPath := sourcePath + ".av1skip"
	if err := os.WriteFile(markerPath, nil, 0644); err != nil {
		t.Fatal(err)
	}

	job := jobstore.New(sourcePath)
	job.SetStatus(jobstore.Failed)

	if err := Write(cmdDir, NewRequeue(job.ID, "operator retry")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := os.ReadDir(cmdDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one command file, found %d", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".json" {
		t.Errorf("command file %s does not have .json extension", entries[0].Name())
	}

	if err := Process(cmdDir, []*jobstore.Job{job}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if _, err := os.Stat(markerPath); !os.IsNotExist(err) {
		t.Errorf("expected skip marker removed after requeue round trip, stat err = %v", err)
	}
}
