// Package scan walks configured library roots looking for video files.
package scan

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/yourname/av1qsvd/internal/candidate"
)

var videoExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".m4v":  true,
	".ts":   true,
	".m2ts": true,
}

// Libraries walks every root in order and returns every regular file with
// a recognized video extension. Symlinks are not followed. A root that
// cannot be walked is skipped; its error is returned alongside whatever
// candidates were found under the other roots.
func Libraries(roots []string) ([]candidate.File, error) {
	var candidates []candidate.File
	var firstErr error

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if !videoExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}

			candidates = append(candidates, candidate.File{
				Path:    path,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
			return nil
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return candidates, firstErr
}
