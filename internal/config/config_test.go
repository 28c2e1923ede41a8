package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir string, cfg Config) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, Config{
		LibraryRoots:      []string{"/library"},
		MinBytes:          1,
		MaxSizeRatio:      0.9,
		ScanIntervalSecs:  60,
		JobStateDir:       filepath.Join(dir, "jobs"),
		TempOutputDir:     filepath.Join(dir, "tmp"),
		MaxConcurrentJobs: 1,
		QualityTier:       "high",
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.LibraryRoots) != 1 || cfg.LibraryRoots[0] != "/library" {
		t.Errorf("unexpected library roots: %v", cfg.LibraryRoots)
	}
}

func TestValidateRejectsEmptyLibraryRoots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LibraryRoots = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty library_roots")
	}
}

func TestValidateRejectsBadSizeRatio(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LibraryRoots = []string{"/library"}
	cfg.MaxSizeRatio = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for max_size_ratio > 1")
	}
}

func TestValidateRejectsBadPreferEncoder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LibraryRoots = []string{"/library"}
	cfg.PreferEncoder = "nonsense"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid prefer_encoder")
	}
}

func TestExpandTilde(t *testing.T) {
	cfg := Config{JobStateDir: "~/jobs"}
	cfg.expandTilde()
	if cfg.JobStateDir == "~/jobs" {
		t.Error("expandTilde() did not expand leading ~")
	}
}
