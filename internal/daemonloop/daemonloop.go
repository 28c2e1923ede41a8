// Package daemonloop is the pipeline driver: it turns one candidate file
// into a finished or abandoned Job by walking it through stability
// checking, probing, classification, gating, encoding, validation, size
// gating, and atomic replacement, in that fixed order.
package daemonloop

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/yourname/av1qsvd/internal/candidate"
	"github.com/yourname/av1qsvd/internal/classify"
	"github.com/yourname/av1qsvd/internal/cmdbuild"
	"github.com/yourname/av1qsvd/internal/command"
	"github.com/yourname/av1qsvd/internal/config"
	"github.com/yourname/av1qsvd/internal/gate"
	"github.com/yourname/av1qsvd/internal/jobstore"
	"github.com/yourname/av1qsvd/internal/paramselect"
	"github.com/yourname/av1qsvd/internal/probe"
	"github.com/yourname/av1qsvd/internal/replace"
	"github.com/yourname/av1qsvd/internal/scan"
	"github.com/yourname/av1qsvd/internal/scheduler"
	"github.com/yourname/av1qsvd/internal/sidecar"
	"github.com/yourname/av1qsvd/internal/sizegate"
	"github.com/yourname/av1qsvd/internal/stability"
	"github.com/yourname/av1qsvd/internal/startup"
	"github.com/yourname/av1qsvd/internal/validate"
)

// inFlight tracks which source paths currently have a pipeline running so
// a later scan cycle never starts a second one for the same file while an
// encode is still in progress.
type inFlight struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func newInFlight() *inFlight {
	return &inFlight{paths: make(map[string]struct{})}
}

func (f *inFlight) tryAcquire(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.paths[path]; busy {
		return false
	}
	f.paths[path] = struct{}{}
	return true
}

func (f *inFlight) release(path string) {
	f.mu.Lock()
	delete(f.paths, path)
	f.mu.Unlock()
}

// Run drives the daemon's main loop: scan, process every candidate,
// sleep, repeat, until ctx is cancelled. Cancellation stops new work from
// being admitted and then waits for in-flight encodes to finish.
func Run(ctx context.Context, cfg config.Config, ffmpegPath string, encoder startup.Selected) error {
	log.Printf("starting daemon main loop")
	log.Printf("scan interval: %d seconds", cfg.ScanIntervalSecs)
	log.Printf("max concurrent jobs: %d", cfg.MaxConcurrentJobs)
	log.Printf("selected encoder: %s", encoder.CodecName)

	sched := scheduler.New(cfg.MaxConcurrentJobs)
	flight := newInFlight()
	var wg sync.WaitGroup

	drain := func() {
		log.Printf("daemon loop stopping, waiting for in-flight encodes to finish")
		wg.Wait()
	}

	if err := os.MkdirAll(cfg.JobStateDir, 0755); err != nil {
		return fmt.Errorf("create job state dir: %w", err)
	}
	if err := os.MkdirAll(cfg.TempOutputDir, 0755); err != nil {
		return fmt.Errorf("create temp output dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			return nil
		default:
		}

		log.Printf("starting scan cycle")

		existing, err := jobstore.LoadAll(cfg.JobStateDir)
		if err != nil {
			log.Printf("error loading jobs: %v", err)
		}
		if err := command.Process(cfg.CommandDir, existing); err != nil {
			log.Printf("error processing commands: %v", err)
		}

		candidates, err := scan.Libraries(cfg.LibraryRoots)
		if err != nil {
			log.Printf("error scanning libraries: %v", err)
		}
		log.Printf("found %d candidate files", len(candidates))

		for _, c := range candidates {
			if ctx.Err() != nil {
				break
			}
			if err := processCandidate(ctx, c, cfg, ffmpegPath, encoder, sched, flight, &wg); err != nil {
				log.Printf("error processing candidate %s: %v", c.Path, err)
			}
		}

		log.Printf("scan cycle complete, waiting %d seconds", cfg.ScanIntervalSecs)
		select {
		case <-ctx.Done():
			drain()
			return nil
		case <-time.After(time.Duration(cfg.ScanIntervalSecs) * time.Second):
		}
	}
}

// processCandidate runs the synchronous head of the pipeline (stability,
// probe, classify, gate, job creation) and, if the candidate survives,
// hands the encode tail to a goroutine bounded by the scheduler. The
// head stays synchronous so a Job record exists and the path is marked
// in-flight before the candidate is released to concurrent execution.
func processCandidate(ctx context.Context, c candidate.File, cfg config.Config, ffmpegPath string, encoder startup.Selected, sched *scheduler.Scheduler, flight *inFlight, wg *sync.WaitGroup) error {
	path := c.Path

	if !flight.tryAcquire(path) {
		return nil
	}
	handedOff := false
	defer func() {
		if !handedOff {
			flight.release(path)
		}
	}()

	if sidecar.HasSkipMarker(path) {
		return nil
	}

	stable, err := stability.Check(path, stability.DefaultWindow)
	if err != nil {
		log.Printf("warning: stability check failed for %s: %v", path, err)
		return nil
	}
	if !stable {
		return nil
	}

	probeResult, err := probe.File(ffmpegPath, path)
	if err != nil {
		sidecar.CreateSkipMarker(path)
		if cfg.WriteWhySidecars {
			sidecar.WriteWhyFile(path, fmt.Sprintf("probe failed: %v", err))
		}
		return nil
	}

	classification := classify.Source(path, c.Size, probeResult)

	g := gate.Evaluate(c, probeResult, cfg.MinBytes)
	if !g.Passed() {
		log.Printf("file skipped due to gate: %s - %s", path, g.Reason)
		if g.Permanent() {
			sidecar.CreateSkipMarker(path)
		}
		if cfg.WriteWhySidecars {
			sidecar.WriteWhyFile(path, string(g.Reason))
		}
		return nil
	}

	job := jobstore.New(path)
	job.OriginalBytes = c.Size
	job.IsWebLike = classification.SourceType == classify.WebLike
	job.ClassificationReasons = classification.Reasons

	if stream := probeResult.MainVideoStream(); stream != nil {
		job.SourceCodec = stream.CodecName
		job.Width = stream.Width
		job.Height = stream.Height
		job.SourceBitrate = int64(stream.BitRate)
		job.FrameRate = stream.RFrameRate
		job.SourceBitDepth = int(stream.BitsPerRawSample)
		job.SourcePixFmt = stream.PixFmt
	}
	job.HDR = probeResult.IsHDR()
	for _, s := range probeResult.Streams {
		switch s.CodecType {
		case "audio":
			job.AudioStreams++
		case "subtitle":
			job.SubtitleStreams++
		}
	}
	job.TargetBitDepth = paramselect.TargetBitDepth(job.SourceBitDepth)
	job.AV1Profile = paramselect.TargetAV1Profile(job.TargetBitDepth, job.SourcePixFmt)

	tier := paramselect.QualityTier(cfg.QualityTier)
	job.Encoder = encoder.CodecName
	job.CRF = paramselect.SelectCRF(job.Height, tier)
	if encoder.Encoder == startup.SVTAV1 {
		job.Preset = paramselect.SelectPreset(job.Height, tier)
	}

	if err := jobstore.Save(job, cfg.JobStateDir); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	log.Printf("created job %s for %s", job.ID, path)

	job.SetStatus(jobstore.Running)
	outputPath := filepath.Join(cfg.TempOutputDir, job.ID+".mkv")
	job.OutputPath = outputPath

	args := cmdbuild.Build(job, probeResult, encoder, cfg, outputPath)

	if err := jobstore.Save(job, cfg.JobStateDir); err != nil {
		return fmt.Errorf("save running job: %w", err)
	}

	handedOff = true
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer flight.release(path)
		runJobTail(ctx, job, probeResult, args, outputPath, cfg, ffmpegPath, sched)
	}()

	return nil
}

// runJobTail is everything after job admission: the permit-bounded encode
// followed by validation, the size gate, and the atomic replace. It owns
// the Job record for its whole run and persists every terminal outcome.
func runJobTail(ctx context.Context, job *jobstore.Job, probeResult *probe.Result, args []string, outputPath string, cfg config.Config, ffmpegPath string, sched *scheduler.Scheduler) {
	path := job.SourcePath

	log.Printf("starting encode for job %s: %s", job.ID, path)

	err := sched.Run(ctx, func() error {
		return runEncode(ffmpegPath, args)
	})
	if err != nil {
		log.Printf("encoding failed for job %s: %v", job.ID, err)
		job.Reason = fmt.Sprintf("encoding failed: %v", err)
		job.SetStatus(jobstore.Failed)
		saveOrLog(job, cfg.JobStateDir)
		removeOrLog(outputPath, "partial output")
		return
	}

	log.Printf("encoding complete for job %s", job.ID)

	if _, err := validate.Output(ffmpegPath, outputPath, probeResult); err != nil {
		log.Printf("output validation failed for job %s: %v", job.ID, err)
		job.Reason = fmt.Sprintf("validation failed: %v", err)
		job.SetStatus(jobstore.Failed)
		saveOrLog(job, cfg.JobStateDir)
		removeOrLog(outputPath, "invalid output")
		return
	}

	outInfo, err := os.Stat(outputPath)
	if err != nil {
		log.Printf("stat encoded output for job %s: %v", job.ID, err)
		job.Reason = fmt.Sprintf("stat encoded output: %v", err)
		job.SetStatus(jobstore.Failed)
		saveOrLog(job, cfg.JobStateDir)
		return
	}
	job.NewBytes = outInfo.Size()

	gateResult := sizegate.Check(job.OriginalBytes, job.NewBytes, cfg.MaxSizeRatio)
	if !gateResult.Pass {
		reason := gateResult.Reason(job.NewBytes)
		log.Printf("size gate failed for job %s: %s", job.ID, reason)
		job.Reason = reason
		job.SetStatus(jobstore.Skipped)
		saveOrLog(job, cfg.JobStateDir)
		removeOrLog(outputPath, "oversized output")
		sidecar.CreateSkipMarker(path)
		if cfg.WriteWhySidecars {
			sidecar.WriteWhyFile(path, job.Reason)
		}
		return
	}
	log.Printf("size gate passed for job %s: saved %d bytes", job.ID, gateResult.SavingsBytes)

	log.Printf("replacing original file for job %s", job.ID)
	if err := replace.Atomic(path, outputPath, cfg.KeepOriginal); err != nil {
		log.Printf("failed to replace file for job %s: %v", job.ID, err)
		job.Reason = fmt.Sprintf("replacement failed: %v", err)
		job.SetStatus(jobstore.Failed)
		saveOrLog(job, cfg.JobStateDir)
		log.Printf("output file preserved at %s for manual inspection", outputPath)
		return
	}

	job.SetStatus(jobstore.Success)
	saveOrLog(job, cfg.JobStateDir)
	log.Printf("job %s completed successfully", job.ID)
}

func saveOrLog(job *jobstore.Job, dir string) {
	if err := jobstore.Save(job, dir); err != nil {
		log.Printf("warning: failed to persist job %s: %v", job.ID, err)
	}
}

func removeOrLog(path, what string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to clean up %s %s: %v", what, path, err)
	}
}

func runEncode(ffmpegPath string, args []string) error {
	cmd := exec.Command(ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, tail(string(out), 800))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
