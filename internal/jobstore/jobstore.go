// Package jobstore persists Job records as one JSON file per job id,
// writing through a temp file and fsync-then-rename so a crash mid-write
// never leaves a corrupt or partially-written job file behind.
package jobstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a Job. Transitions only ever move
// forward: Pending -> Running -> {Success, Failed, Skipped}.
type Status string

const (
	Pending Status = "pending"
	Running Status = "running"
	Success Status = "success"
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

// Job is the durable record of one candidate file's trip through the
// pipeline.
type Job struct {
	ID         string     `json:"id"`
	SourcePath string     `json:"source_path"`
	OutputPath string     `json:"output_path,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     Status     `json:"status"`
	Reason     string     `json:"reason,omitempty"`

	OriginalBytes int64 `json:"original_bytes,omitempty"`
	NewBytes      int64 `json:"new_bytes,omitempty"`

	IsWebLike             bool     `json:"is_web_like"`
	ClassificationReasons []string `json:"classification_reasons,omitempty"`

	SourceCodec     string `json:"source_codec,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	SourceBitrate   int64  `json:"source_bitrate,omitempty"`
	FrameRate       string `json:"frame_rate,omitempty"`
	SourceBitDepth  int    `json:"source_bit_depth,omitempty"`
	SourcePixFmt    string `json:"source_pix_fmt,omitempty"`
	HDR             bool   `json:"hdr"`
	AudioStreams    int    `json:"audio_streams,omitempty"`
	SubtitleStreams int    `json:"subtitle_streams,omitempty"`

	Encoder        string `json:"encoder,omitempty"`
	CRF            int    `json:"crf,omitempty"`
	Preset         int    `json:"preset,omitempty"`
	AV1Profile     string `json:"av1_profile,omitempty"`
	TargetBitDepth int    `json:"target_bit_depth,omitempty"`
}

// Resolution formats Width/Height as e.g. "1920x1080", or "" if unset.
func (j *Job) Resolution() string {
	if j.Width == 0 || j.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", j.Width, j.Height)
}

// New creates a pending job with a fresh random ID.
func New(sourcePath string) *Job {
	return &Job{
		ID:         uuid.New().String(),
		SourcePath: sourcePath,
		CreatedAt:  time.Now().UTC(),
		Status:     Pending,
	}
}

// SetStatus transitions the job to a new status, stamping StartedAt on
// entry to Running and FinishedAt on entry to any terminal status.
// Timestamps are stored in UTC so the serialized form is stable across
// hosts in different zones.
func (j *Job) SetStatus(status Status) {
	j.Status = status
	now := time.Now().UTC()
	switch status {
	case Running:
		j.StartedAt = &now
	case Success, Failed, Skipped:
		j.FinishedAt = &now
	}
}

// Save writes job to "<dir>/<id>.json" via a temp-file-then-rename so
// readers never observe a partially written file, fsyncing both the file
// and its parent directory before returning.
func Save(job *Job, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create job state dir: %w", err)
	}

	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	finalPath := filepath.Join(dir, job.ID+".json")
	tmpPath := finalPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create temp job file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp job file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp job file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp job file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename job file into place: %w", err)
	}

	if dirF, err := os.Open(dir); err == nil {
		dirF.Sync()
		dirF.Close()
	}

	return nil
}

// LoadAll loads every job record from dir. A missing directory yields an
// empty slice, not an error; files that fail to parse are skipped.
func LoadAll(dir string) ([]*Job, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []*Job{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read job state dir: %w", err)
	}

	var jobs []*Job
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var job Job
		if err := json.Unmarshal(data, &job); err != nil {
			continue
		}
		jobs = append(jobs, &job)
	}

	return jobs, nil
}

// FindBySourcePath returns the first job in jobs whose SourcePath matches,
// or nil.
func FindBySourcePath(jobs []*Job, sourcePath string) *Job {
	for _, j := range jobs {
		if j.SourcePath == sourcePath {
			return j
		}
	}
	return nil
}
