// Package candidate defines the file records produced by the library scan.
package candidate

import "time"

// File is a video file discovered under a library root, not yet probed
// or classified.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}
