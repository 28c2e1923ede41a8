// Package gate decides whether a candidate file should be turned into a
// transcoding job, running a fixed, ordered sequence of checks and
// stopping at the first one that applies.
package gate

import (
	"github.com/yourname/av1qsvd/internal/candidate"
	"github.com/yourname/av1qsvd/internal/probe"
	"github.com/yourname/av1qsvd/internal/sidecar"
)

// Reason names which gate, if any, caused a skip.
type Reason string

const (
	Pass          Reason = ""
	HasSkipMarker Reason = "has_skip_marker"
	NoVideo       Reason = "no_video_stream"
	AlreadyAV1    Reason = "already_av1"
	TooSmall      Reason = "below_min_bytes"
)

// Result is the outcome of evaluating all gates against a candidate.
type Result struct {
	Reason Reason
}

// Passed reports whether the candidate cleared every gate.
func (r Result) Passed() bool { return r.Reason == Pass }

// Permanent reports whether the skip reason warrants an ".av1skip"
// marker. TooSmall is the one non-permanent skip: a file below the size
// floor today may grow past it and deserves another look.
func (r Result) Permanent() bool {
	switch r.Reason {
	case HasSkipMarker, NoVideo, AlreadyAV1:
		return true
	}
	return false
}

// Evaluate runs the ordered gate checks: skip marker, missing video
// stream, already-AV1, then minimum size. The first gate that applies
// wins; later gates are not evaluated.
func Evaluate(c candidate.File, result *probe.Result, minBytes int64) Result {
	if sidecar.HasSkipMarker(c.Path) {
		return Result{Reason: HasSkipMarker}
	}
	main := result.MainVideoStream()
	if main == nil {
		return Result{Reason: NoVideo}
	}
	if main.IsAV1() {
		return Result{Reason: AlreadyAV1}
	}
	if c.Size <= minBytes {
		return Result{Reason: TooSmall}
	}
	return Result{Reason: Pass}
}
