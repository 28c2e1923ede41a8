package daemonloop_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yourname/av1qsvd/internal/candidate"
	"github.com/yourname/av1qsvd/internal/classify"
	"github.com/yourname/av1qsvd/internal/gate"
	"github.com/yourname/av1qsvd/internal/jobstore"
	"github.com/yourname/av1qsvd/internal/paramselect"
	"github.com/yourname/av1qsvd/internal/probe"
	"github.com/yourname/av1qsvd/internal/replace"
	"github.com/yourname/av1qsvd/internal/sidecar"
	"github.com/yourname/av1qsvd/internal/sizegate"
)

// These tests chain the same pure functions processCandidate calls, end
// to end, with real files on disk standing in for the source and encoder
// output. They do not shell out to a real ffmpeg/ffprobe: probe.Result
// values are constructed directly, matching what a prior probe() call
// would have returned.

const gib = 1024 * 1024 * 1024

func mainVideoStream(codec string, width, height int, bitRate int64) probe.Stream {
	return probe.Stream{Index: 0, CodecType: "video", CodecName: codec, Width: width, Height: height, BitRate: probe.FlexibleInt(bitRate)}
}

// TestHappyPathReplacesSource: a WEB-DL 1080p h264 source clears every
// gate, is classified web-like, gets the VeryHigh-tier CRF/preset,
// passes the size gate, and is atomically replaced with no sidecars left
// behind.
func TestHappyPathReplacesSource(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "show.WEB-DL.1080p.mkv")
	originalSize := int64(4.0 * gib)
	if err := os.WriteFile(sourcePath, make([]byte, 16), 0644); err != nil {
		t.Fatal(err)
	}

	cand := candidate.File{Path: sourcePath, Size: originalSize}
	sourceProbe := &probe.Result{
		Format:  probe.Format{Duration: 3600.0},
		Streams: []probe.Stream{mainVideoStream("h264", 1920, 1080, 5_000_000)},
	}

	g := gate.Evaluate(cand, sourceProbe, 2*gib)
	if !g.Passed() {
		t.Fatalf("gate.Evaluate() = %v, want Pass", g.Reason)
	}

	class := classify.Source(sourcePath, originalSize, sourceProbe)
	if class.SourceType != classify.WebLike {
		t.Fatalf("classify.Source() = %v, want WebLike", class.SourceType)
	}

	job := jobstore.New(sourcePath)
	job.OriginalBytes = originalSize
	job.IsWebLike = true
	job.Width, job.Height = 1920, 1080
	job.SetStatus(jobstore.Running)

	tier := paramselect.VeryHigh
	crf := paramselect.SelectCRF(job.Height, tier)
	preset := paramselect.SelectPreset(job.Height, tier)
	if crf != 21 {
		t.Errorf("CRF = %d, want 21 (22 base - 1 for VeryHigh)", crf)
	}
	if preset != 2 {
		t.Errorf("preset = %d, want 2 (3 base - 1 for VeryHigh)", preset)
	}

	// Encoder "runs" and produces a 2.0 GiB AV1 output.
	outputPath := filepath.Join(dir, job.ID+".mkv")
	newSize := int64(2.0 * gib)
	if err := os.WriteFile(outputPath, []byte("av1 payload"), 0644); err != nil {
		t.Fatal(err)
	}
	job.NewBytes = newSize

	sg := sizegate.Check(originalSize, newSize, 0.9)
	if !sg.Pass {
		t.Fatalf("sizegate.Check() did not pass, threshold=%d", sg.ThresholdBytes)
	}

	if err := replace.Atomic(sourcePath, outputPath, false); err != nil {
		t.Fatalf("replace.Atomic() error = %v", err)
	}
	job.SetStatus(jobstore.Success)

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		t.Fatalf("reading replaced source: %v", err)
	}
	if string(data) != "av1 payload" {
		t.Errorf("source content after replace = %q, want av1 payload", data)
	}
	if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
		t.Errorf("temp output should be gone after replace, stat err = %v", err)
	}
	matches, _ := filepath.Glob(sourcePath + ".orig.*")
	if len(matches) != 0 {
		t.Errorf("expected no backup left behind (keep_original=false), found %v", matches)
	}
	if sidecar.HasSkipMarker(sourcePath) {
		t.Error("no skip marker expected on success")
	}
	if job.Status != jobstore.Success {
		t.Errorf("job status = %v, want Success", job.Status)
	}
}

// TestSizeGateFailureLeavesSourceUntouched: the same input, but the
// encoder output only shrinks to 3.8 GiB against a 3.6 GiB threshold, so
// the source is left untouched, skip-marked, and explained.
func TestSizeGateFailureLeavesSourceUntouched(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "show.WEB-DL.1080p.mkv")
	originalSize := int64(4.0 * gib)
	originalContent := []byte("original h264 content")
	if err := os.WriteFile(sourcePath, originalContent, 0644); err != nil {
		t.Fatal(err)
	}

	outputPath := filepath.Join(dir, "temp-output.mkv")
	gibF := float64(gib)
	newSize := int64(3.8 * gibF)
	if err := os.WriteFile(outputPath, []byte("oversized av1 output"), 0644); err != nil {
		t.Fatal(err)
	}

	sg := sizegate.Check(originalSize, newSize, 0.9)
	wantThreshold := int64(3.6 * gibF)
	if sg.Pass {
		t.Fatalf("sizegate.Check() passed, want Fail (threshold=%d, new=%d)", sg.ThresholdBytes, newSize)
	}
	if sg.ThresholdBytes != wantThreshold {
		t.Errorf("threshold = %d, want %d", sg.ThresholdBytes, wantThreshold)
	}

	reason := sg.Reason(newSize)
	if reason == "" {
		t.Error("expected a non-empty size-gate failure reason")
	}

	if err := os.Remove(outputPath); err != nil {
		t.Fatalf("removing temp output: %v", err)
	}
	if err := sidecar.CreateSkipMarker(sourcePath); err != nil {
		t.Fatalf("CreateSkipMarker() error = %v", err)
	}
	if err := sidecar.WriteWhyFile(sourcePath, reason); err != nil {
		t.Fatalf("WriteWhyFile() error = %v", err)
	}

	if !sidecar.HasSkipMarker(sourcePath) {
		t.Error("expected skip marker after size-gate failure")
	}
	why, err := os.ReadFile(sourcePath + ".why.txt")
	if err != nil {
		t.Fatalf("reading why file: %v", err)
	}
	if string(why) != reason {
		t.Errorf("why file = %q, want %q", why, reason)
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(originalContent) {
		t.Error("source file was modified despite size-gate failure")
	}
	if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
		t.Error("temp output should have been deleted after size-gate failure")
	}
}

// TestAlreadyAV1ShortCircuits: a source whose main video stream is
// already (case-insensitively) AV1 short-circuits at the gate, before
// any Job is created.
func TestAlreadyAV1ShortCircuits(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "movie.mkv")
	originalContent := []byte("already av1 content")
	if err := os.WriteFile(sourcePath, originalContent, 0644); err != nil {
		t.Fatal(err)
	}

	cand := candidate.File{Path: sourcePath, Size: 5 * gib}
	sourceProbe := &probe.Result{
		Streams: []probe.Stream{mainVideoStream("AV1", 3840, 2160, 12_000_000)},
	}

	g := gate.Evaluate(cand, sourceProbe, 2*gib)
	if g.Reason != gate.AlreadyAV1 {
		t.Fatalf("gate.Evaluate() = %v, want AlreadyAV1", g.Reason)
	}

	if err := sidecar.CreateSkipMarker(sourcePath); err != nil {
		t.Fatalf("CreateSkipMarker() error = %v", err)
	}
	if err := sidecar.WriteWhyFile(sourcePath, string(g.Reason)); err != nil {
		t.Fatalf("WriteWhyFile() error = %v", err)
	}

	if !sidecar.HasSkipMarker(sourcePath) {
		t.Error("expected skip marker for AlreadyAV1 source")
	}
	why, err := os.ReadFile(sourcePath + ".why.txt")
	if err != nil {
		t.Fatalf("reading why file: %v", err)
	}
	if string(why) != string(gate.AlreadyAV1) {
		t.Errorf("why file = %q, want %q", why, gate.AlreadyAV1)
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(originalContent) {
		t.Error("source file was modified despite AlreadyAV1 short-circuit")
	}
}
