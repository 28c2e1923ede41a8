// Package replace swaps a transcoded output file in for the original on
// disk, keeping a timestamped backup until the swap is confirmed so a
// mid-operation failure can be rolled back instead of losing the
// original.
package replace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Atomic replaces original with newPath's contents. It proceeds in three
// phases:
//
//  1. rename original aside to a timestamped backup
//  2. copy newPath's contents over original
//  3. remove newPath (the temp output) and, unless keepOriginal is set,
//     remove the backup
//
// If step 1 fails, nothing has changed and the wrapped error is returned.
// If step 2 fails, step 1 is undone by renaming the backup back to
// original; if that rollback succeeds the error says so, and if the
// rollback also fails the error is prefixed "CRITICAL" and names the
// backup path, since both the original and the backup may now be in an
// inconsistent state.
func Atomic(original, newPath string, keepOriginal bool) error {
	if _, err := os.Stat(newPath); err != nil {
		return fmt.Errorf("encoded output missing: %w", err)
	}
	if _, err := os.Stat(original); err != nil {
		return fmt.Errorf("original file missing: %w", err)
	}

	backupPath := backupPath(original)

	if err := os.Rename(original, backupPath); err != nil {
		return fmt.Errorf("back up original before replace: %w", err)
	}

	if err := copyFile(newPath, original); err != nil {
		if rollbackErr := os.Rename(backupPath, original); rollbackErr != nil {
			return fmt.Errorf("CRITICAL: replace failed (%v) and restoring original from backup also failed (%v); original data may only exist at %s", err, rollbackErr, backupPath)
		}
		return fmt.Errorf("replace failed, original restored from backup: %w", err)
	}

	if err := os.Remove(newPath); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to remove temp output %s: %v\n", newPath, err)
	}

	if !keepOriginal {
		if err := os.Remove(backupPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove backup %s: %v\n", backupPath, err)
		}
	}

	return nil
}

func backupPath(original string) string {
	return fmt.Sprintf("%s.orig.%d", original, time.Now().Unix())
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy contents: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("sync destination: %w", err)
	}
	return out.Close()
}

// BackupPattern returns the glob pattern matching all backups left behind
// for original, useful for cleanup tooling. The pattern holds the base name
// only, so it matches when globbed relative to original's directory.
func BackupPattern(original string) string {
	return filepath.Base(original) + ".orig.*"
}
