// Package cmdbuild constructs the ffmpeg argv for a transcoding job. It is
// a pure function of the job, the source probe result, the selected
// encoder, the config, and the output path: no
// I/O, no side effects, so it is trivial to unit test against expected
// argument lists.
package cmdbuild

import (
	"fmt"
	"strconv"

	"github.com/yourname/av1qsvd/internal/config"
	"github.com/yourname/av1qsvd/internal/jobstore"
	"github.com/yourname/av1qsvd/internal/paramselect"
	"github.com/yourname/av1qsvd/internal/probe"
	"github.com/yourname/av1qsvd/internal/startup"
)

// muxingQueueSize is the -max_muxing_queue_size value used on every
// invocation, large enough to absorb the demuxer getting ahead of a slow
// software AV1 encode without dropping packets.
const muxingQueueSize = 2048

// Build returns the full ffmpeg argv (not including the "ffmpeg" binary
// name itself) for encoding job to outputPath with the selected encoder.
func Build(job *jobstore.Job, result *probe.Result, encoder startup.Selected, cfg config.Config, outputPath string) []string {
	args := []string{"-hide_banner", "-y"}

	if job.IsWebLike {
		args = append(args, "-fflags", "+genpts", "-copyts", "-start_at_zero", "-vsync", "0", "-avoid_negative_ts", "make_zero")
	}

	args = append(args, "-i", job.SourcePath)

	args = append(args, buildStreamMapping(result)...)

	tier := paramselect.QualityTier(cfg.QualityTier)
	crf := paramselect.SelectCRF(job.Height, tier)

	switch encoder.Encoder {
	case startup.SVTAV1:
		preset := paramselect.SelectPreset(job.Height, tier)
		args = append(args, "-c:v", "libsvtav1", "-crf", strconv.Itoa(crf), "-preset", strconv.Itoa(preset),
			"-threads", "0", "-svtav1-params", "lp=0")
	case startup.LibaomAV1:
		cpuUsed := paramselect.EncoderSpeedParam(startup.LibaomAV1, job.Height, tier)
		tiles := paramselect.AomTileColumns(job.Height)
		args = append(args, "-c:v", "libaom-av1", "-b:v", "0", "-crf", strconv.Itoa(crf),
			"-cpu-used", strconv.Itoa(cpuUsed), "-row-mt", "1", "-tiles", fmt.Sprintf("%dx%d", tiles, tiles))
	case startup.Rav1e:
		speed := paramselect.EncoderSpeedParam(startup.Rav1e, job.Height, tier)
		qp := paramselect.Rav1eQP(crf)
		args = append(args, "-c:v", "librav1e", "-speed", strconv.Itoa(speed), "-qp", strconv.Itoa(qp))
	}

	profile := paramselect.TargetAV1Profile(job.TargetBitDepth, job.SourcePixFmt)
	args = append(args, "-profile:v", profile)

	pixFmt := "yuv420p"
	if job.TargetBitDepth == 10 {
		pixFmt = "yuv420p10le"
	}
	args = append(args, "-pix_fmt", pixFmt)

	if needsPad(job) {
		args = append(args, "-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2")
	}

	args = append(args, "-c:a", "copy", "-c:s", "copy")
	args = append(args, "-max_muxing_queue_size", strconv.Itoa(muxingQueueSize))
	args = append(args, outputPath)

	return args
}

// buildStreamMapping maps every stream (preserving chapters and global
// metadata), then excludes any video stream other than the one the
// pipeline considers "main" (attached pictures among them), and any
// audio or subtitle stream tagged Russian ("ru" or "rus").
func buildStreamMapping(result *probe.Result) []string {
	args := []string{"-map", "0", "-map_metadata", "0", "-map_chapters", "0"}

	main := result.MainVideoStream()
	for i := range result.Streams {
		s := &result.Streams[i]
		if s.CodecType != "video" {
			continue
		}
		if main == nil || s.Index != main.Index {
			args = append(args, "-map", fmt.Sprintf("-0:%d", s.Index))
		}
	}

	nonRussian := make(map[int]bool, len(result.Streams))
	for _, idx := range result.NonRussianAudioAndSubtitleIndexes() {
		nonRussian[idx] = true
	}
	for i := range result.Streams {
		s := &result.Streams[i]
		if s.CodecType != "audio" && s.CodecType != "subtitle" {
			continue
		}
		if !nonRussian[s.Index] {
			args = append(args, "-map", fmt.Sprintf("-0:%d", s.Index))
		}
	}

	return args
}

// needsPad reports whether the pad filter must run to guarantee even
// output dimensions: always for web-like sources (whose odd SAR/crop
// combinations the encoder otherwise chokes on), and for any source
// whose width or height is itself odd.
func needsPad(job *jobstore.Job) bool {
	return job.IsWebLike || job.Width%2 != 0 || job.Height%2 != 0
}
