// Package probe shells out to ffprobe and parses its JSON stream/format
// report into the fields the rest of the pipeline needs.
package probe

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FlexibleInt unmarshals a JSON value that ffprobe sometimes encodes as a
// number and sometimes as a numeric string (bit_rate, in particular).
type FlexibleInt int64

func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	var asInt int64
	if err := json.Unmarshal(data, &asInt); err == nil {
		*f = FlexibleInt(asInt)
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("flexible int: %w", err)
	}
	if asString == "" || asString == "N/A" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(asString, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexibleInt(v)
	return nil
}

// FlexibleFloat unmarshals a JSON value that ffprobe sometimes encodes as
// a number and sometimes as a numeric string (format.duration, in
// particular).
type FlexibleFloat float64

func (f *FlexibleFloat) UnmarshalJSON(data []byte) error {
	var asFloat float64
	if err := json.Unmarshal(data, &asFloat); err == nil {
		*f = FlexibleFloat(asFloat)
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("flexible float: %w", err)
	}
	if asString == "" || asString == "N/A" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(asString, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexibleFloat(v)
	return nil
}

// hdrTransferCharacteristics are the color_transfer tags ffprobe reports
// for PQ (SMPTE ST 2084) and HLG content; anything else is treated as SDR.
var hdrTransferCharacteristics = map[string]bool{
	"smpte2084":    true,
	"arib-std-b67": true,
}

// Stream is one entry of ffprobe's "streams" array, trimmed to the fields
// the pipeline consumes.
type Stream struct {
	Index            int         `json:"index"`
	CodecType        string      `json:"codec_type"`
	CodecName        string      `json:"codec_name"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	BitRate          FlexibleInt `json:"bit_rate"`
	RFrameRate       string      `json:"r_frame_rate"`
	PixFmt           string      `json:"pix_fmt"`
	ColorTransfer    string      `json:"color_transfer"`
	BitsPerRawSample FlexibleInt `json:"bits_per_raw_sample"`
	Tags             struct {
		Language string `json:"language"`
	} `json:"tags"`
	Disposition struct {
		Default     int `json:"default"`
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
}

// IsAV1 reports whether the stream's codec is AV1, matched
// case-insensitively.
func (s *Stream) IsAV1() bool {
	return strings.EqualFold(s.CodecName, "av1")
}

// Format is ffprobe's "format" object, trimmed similarly.
type Format struct {
	FormatName string        `json:"format_name"`
	Duration   FlexibleFloat `json:"duration"`
	BitRate    FlexibleInt   `json:"bit_rate"`
	Size       FlexibleInt   `json:"size"`
}

// Result is the parsed output of an ffprobe invocation. Values the daemon
// derives from it are computed by methods, not stored as fields.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// MainVideoStream returns the stream the pipeline treats as "the" video
// track: the default-dispositioned video stream if one exists, else the
// first video stream, else nil. Attached pictures (cover art) are never
// considered, even if disposition default is incorrectly set on one.
func (r *Result) MainVideoStream() *Stream {
	var first *Stream
	for i := range r.Streams {
		s := &r.Streams[i]
		if s.CodecType != "video" || s.Disposition.AttachedPic != 0 {
			continue
		}
		if first == nil {
			first = s
		}
		if s.Disposition.Default != 0 {
			return s
		}
	}
	return first
}

// AV1VideoStreamCount returns how many non-attached-picture video streams
// in the result are coded AV1, for the validator's exactly-one check.
func (r *Result) AV1VideoStreamCount() int {
	n := 0
	for i := range r.Streams {
		s := &r.Streams[i]
		if s.CodecType == "video" && s.Disposition.AttachedPic == 0 && s.IsAV1() {
			n++
		}
	}
	return n
}

// NonRussianAudioAndSubtitleIndexes returns the stream indexes of every
// audio and subtitle stream whose language tag is not "ru" or "rus", in
// the order ffprobe reported them.
func (r *Result) NonRussianAudioAndSubtitleIndexes() []int {
	var out []int
	for _, s := range r.Streams {
		if s.CodecType != "audio" && s.CodecType != "subtitle" {
			continue
		}
		lang := strings.ToLower(s.Tags.Language)
		if lang == "ru" || lang == "rus" {
			continue
		}
		out = append(out, s.Index)
	}
	return out
}

// IsHDR reports whether the main video stream's transfer characteristics
// indicate HDR (PQ/ST-2084 or HLG) content.
func (r *Result) IsHDR() bool {
	stream := r.MainVideoStream()
	if stream == nil {
		return false
	}
	return hdrTransferCharacteristics[strings.ToLower(stream.ColorTransfer)]
}

// DurationSeconds returns the container duration, or 0 if ffprobe did not
// report one.
func (r *Result) DurationSeconds() float64 {
	return float64(r.Format.Duration)
}

// File runs ffprobe against filePath and parses the result. ffprobe is
// located alongside ffmpegPath.
func File(ffmpegPath, filePath string) (*Result, error) {
	ffprobePath := filepath.Join(filepath.Dir(ffmpegPath), "ffprobe")

	cmd := exec.Command(ffprobePath, "-v", "quiet", "-print_format", "json", "-show_streams", "-show_format", filePath)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("run ffprobe: %w", err)
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	return &result, nil
}
