// Package config loads and validates the daemon's JSON configuration file,
// following the same read-and-unmarshal pattern used throughout this
// repository for every other on-disk record.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Config holds the full configuration for the transcoding daemon and the
// monitor front-end.
type Config struct {
	LibraryRoots      []string `json:"library_roots"`
	MinBytes          int64    `json:"min_bytes"`
	MaxSizeRatio      float64  `json:"max_size_ratio"`
	ScanIntervalSecs  int      `json:"scan_interval_secs"`
	JobStateDir       string   `json:"job_state_dir"`
	TempOutputDir     string   `json:"temp_output_dir"`
	CommandDir        string   `json:"command_dir"`
	MaxConcurrentJobs int      `json:"max_concurrent_jobs"`
	PreferEncoder     string   `json:"prefer_encoder"` // "svt", "aom", "rav1e", or "" for auto
	QualityTier       string   `json:"quality_tier"`   // "high" or "very_high"
	KeepOriginal      bool     `json:"keep_original"`
	WriteWhySidecars  bool     `json:"write_why_sidecars"`
	FFmpegPath        string   `json:"ffmpeg_path"`
	ToolchainDir      string   `json:"toolchain_dir"`
	FFmpegURL         string   `json:"ffmpeg_url"`
}

// DefaultConfig returns a configuration with sensible defaults, keeping
// all daemon state under an XDG-style data directory.
func DefaultConfig() Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "av1qsvd")

	return Config{
		LibraryRoots:      []string{},
		MinBytes:          2 * 1024 * 1024 * 1024,
		MaxSizeRatio:      0.90,
		ScanIntervalSecs:  60,
		JobStateDir:       filepath.Join(dataDir, "jobs"),
		TempOutputDir:     filepath.Join(dataDir, "tmp"),
		CommandDir:        filepath.Join(dataDir, "commands"),
		MaxConcurrentJobs: 1,
		PreferEncoder:     "",
		QualityTier:       "high",
		KeepOriginal:      false,
		WriteWhySidecars:  true,
		FFmpegPath:        "",
		ToolchainDir:      filepath.Join(dataDir, "ffmpeg"),
		FFmpegURL:         "https://github.com/BtbN/FFmpeg-Builds/releases/download/latest/ffmpeg-n8.0-latest-linux64-gpl-8.0.tar.xz",
	}
}

// Load reads configuration from a JSON file path, expands leading "~" in
// path-like fields, and validates the result. Parsing starts from
// DefaultConfig, so keys absent from the file keep their defaults; a key
// present in the file with a zero or empty value stays zero or empty.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.expandTilde()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) expandTilde() {
	c.JobStateDir = expand(c.JobStateDir)
	c.TempOutputDir = expand(c.TempOutputDir)
	c.CommandDir = expand(c.CommandDir)
	c.ToolchainDir = expand(c.ToolchainDir)
	c.FFmpegPath = expand(c.FFmpegPath)
	for i, root := range c.LibraryRoots {
		c.LibraryRoots[i] = expand(root)
	}
}

func expand(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		u, err := user.Current()
		if err != nil {
			return p
		}
		return filepath.Join(u.HomeDir, strings.TrimPrefix(p, "~"))
	}
	return p
}

// Validate checks that the configuration is internally consistent enough
// to run the daemon.
func (c Config) Validate() error {
	if len(c.LibraryRoots) == 0 {
		return fmt.Errorf("library_roots must contain at least one path")
	}
	if c.MinBytes < 0 {
		return fmt.Errorf("min_bytes must be non-negative")
	}
	if c.MaxSizeRatio <= 0 || c.MaxSizeRatio > 1 {
		return fmt.Errorf("max_size_ratio must be in (0, 1]")
	}
	if c.ScanIntervalSecs <= 0 {
		return fmt.Errorf("scan_interval_secs must be positive")
	}
	if c.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("max_concurrent_jobs must be positive")
	}
	if c.JobStateDir == "" {
		return fmt.Errorf("job_state_dir must be set")
	}
	if c.TempOutputDir == "" {
		return fmt.Errorf("temp_output_dir must be set")
	}
	switch c.PreferEncoder {
	case "", "svt", "aom", "rav1e":
	default:
		return fmt.Errorf("prefer_encoder must be one of \"\", svt, aom, rav1e")
	}
	switch c.QualityTier {
	case "high", "very_high":
	default:
		return fmt.Errorf("quality_tier must be high or very_high")
	}
	return nil
}
