// Package validate checks a freshly encoded output file before it is
// allowed anywhere near the original.
package validate

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/yourname/av1qsvd/internal/probe"
)

// ErrNoAV1Stream is returned when the encoded output has zero AV1 video
// streams.
var ErrNoAV1Stream = errors.New("encoded output has no av1 video stream")

// ErrMultipleAV1Streams is returned when the encoded output has more than
// one AV1 video stream.
var ErrMultipleAV1Streams = errors.New("encoded output has more than one av1 video stream")

// DurationMismatchError reports that the source and output durations
// disagree by more than the 2.0 second tolerance.
type DurationMismatchError struct {
	Expected float64
	Actual   float64
}

func (e *DurationMismatchError) Error() string {
	return fmt.Sprintf("duration mismatch: expected %.2fs, got %.2fs", e.Expected, e.Actual)
}

const durationTolerance = 2.0

// Output probes outputPath and checks that it is a playable, single-AV1-
// stream file whose duration agrees with the original source within
// tolerance. ffmpeg is used to locate ffprobe next to, and sourceResult
// is the original source's probe result for the duration comparison.
func Output(ffmpegPath, outputPath string, sourceResult *probe.Result) (*probe.Result, error) {
	if _, err := os.Stat(outputPath); err != nil {
		return nil, fmt.Errorf("stat encoded output: %w", err)
	}

	result, err := probe.File(ffmpegPath, outputPath)
	if err != nil {
		return nil, fmt.Errorf("probe encoded output: %w", err)
	}

	if err := checkStreamCount(result.AV1VideoStreamCount()); err != nil {
		return nil, err
	}
	if err := checkDuration(sourceResult.DurationSeconds(), result.DurationSeconds()); err != nil {
		return nil, err
	}

	return result, nil
}

func checkStreamCount(n int) error {
	switch {
	case n == 0:
		return ErrNoAV1Stream
	case n > 1:
		return ErrMultipleAV1Streams
	default:
		return nil
	}
}

// checkDuration compares expected and actual durations, skipping the
// check entirely when either is unknown (zero).
func checkDuration(expected, actual float64) error {
	if expected <= 0 || actual <= 0 {
		return nil
	}
	if math.Abs(expected-actual) > durationTolerance {
		return &DurationMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
