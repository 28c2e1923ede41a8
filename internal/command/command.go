// Package command reads one-shot instruction files the monitor drops into
// a shared directory for the daemon to pick up on its next scan cycle.
// The monitor only ever writes these files; the daemon only ever reads
// and deletes them.
package command

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/av1qsvd/internal/jobstore"
	"github.com/yourname/av1qsvd/internal/sidecar"
)

// Requeue asks the daemon to forget a prior terminal outcome for a job so
// the source file is reconsidered on the next scan. Matches the command
// file format: {"action":"requeue","job_id":"...","reason":"...","timestamp":"..."}.
type Requeue struct {
	Action    string `json:"action"`
	JobID     string `json:"job_id"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// NewRequeue builds a requeue command for jobID, stamped with the current
// time.
func NewRequeue(jobID, reason string) Requeue {
	return Requeue{
		Action:    "requeue",
		JobID:     jobID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Write drops cmd into dir as a new JSON file, via temp-then-rename so
// the daemon never reads a half-written command. This is the monitor's
// only write path into the daemon.
func Write(dir string, cmd Requeue) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create command dir: %w", err)
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	finalPath := filepath.Join(dir, uuid.New().String()+".json")
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp command file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename command file into place: %w", err)
	}
	return nil
}

// Process reads every command file in dir, applies any "requeue" commands
// against jobs, and deletes each file once handled. A file that fails to
// parse is logged and left in place for the operator to inspect.
func Process(dir string, jobs []*jobstore.Job) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read command dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var cmd Requeue
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Printf("warning: unparseable command file %s left in place: %v", path, err)
			continue
		}

		if cmd.Action == "requeue" {
			applyRequeue(cmd, jobs)
		}

		os.Remove(path)
	}

	return nil
}

func applyRequeue(cmd Requeue, jobs []*jobstore.Job) {
	for _, j := range jobs {
		if j.ID != cmd.JobID {
			continue
		}
		if j.Status != jobstore.Failed && j.Status != jobstore.Skipped {
			return
		}
		sidecar.RemoveSkipMarker(j.SourcePath)
		return
	}
}
