// Package classify guesses whether a video file originated from a web
// streaming rip or a disc remux, purely from path keywords and probed
// bitrate/codec/size heuristics. There is no ffprobe field that states
// this directly, so every signal here is circumstantial and additive.
package classify

import (
	"fmt"
	"strings"

	"github.com/yourname/av1qsvd/internal/probe"
)

// SourceType is the classifier's verdict.
type SourceType string

const (
	WebLike  SourceType = "web_like"
	DiscLike SourceType = "disc_like"
	Unknown  SourceType = "unknown"
)

// Classification is the classifier's output, including the running score
// and the reasons it accumulated along the way.
type Classification struct {
	SourceType SourceType
	WebScore   int
	DiscScore  int
	Reasons    []string
}

var webKeywords = []string{"WEB", "WEBRIP", "WEBDL", "WEB-DL", "NF", "AMZN", "DSNP", "HULU", "ATVP"}
var discKeywords = []string{"BLURAY", "BLU-RAY", "REMUX", "BDMV", "UHD"}

// Source classifies a file given its path, size (from the scan/stability
// pass, not re-stated here), and probe result.
func Source(path string, sizeBytes int64, result *probe.Result) Classification {
	c := Classification{SourceType: Unknown}
	upper := strings.ToUpper(path)

	for _, kw := range webKeywords {
		if strings.Contains(upper, kw) {
			c.WebScore += 10
			c.Reasons = append(c.Reasons, fmt.Sprintf("path contains web keyword %q", kw))
			break
		}
	}

	for _, kw := range discKeywords {
		if strings.Contains(upper, kw) {
			c.DiscScore += 10
			c.Reasons = append(c.Reasons, fmt.Sprintf("path contains disc keyword %q", kw))
			break
		}
	}

	stream := result.MainVideoStream()
	if stream != nil {
		bitrate := int64(stream.BitRate)
		if bitrate == 0 {
			bitrate = int64(result.Format.BitRate)
		}
		height := stream.Height

		switch {
		case height >= 2160 && bitrate != 0 && bitrate < 10_000_000:
			c.WebScore += 5
			c.Reasons = append(c.Reasons, "4K bitrate below 10 Mbps is web-typical")
		case height >= 1080 && height < 2160 && bitrate != 0 && bitrate < 5_000_000:
			c.WebScore += 5
			c.Reasons = append(c.Reasons, "1080p bitrate below 5 Mbps is web-typical")
		}

		switch {
		case height >= 2160 && bitrate > 40_000_000:
			c.DiscScore += 5
			c.Reasons = append(c.Reasons, "4K bitrate above 40 Mbps is disc-typical")
		case height >= 1080 && height < 2160 && bitrate > 15_000_000:
			c.DiscScore += 5
			c.Reasons = append(c.Reasons, "1080p bitrate above 15 Mbps is disc-typical")
		}

		if strings.ToLower(stream.CodecName) == "vp9" {
			c.WebScore += 5
			c.Reasons = append(c.Reasons, "VP9 source codec is web-typical")
		}
	}

	gb := float64(sizeBytes) / (1024 * 1024 * 1024)
	if gb > 20.0 {
		c.DiscScore += 5
		c.Reasons = append(c.Reasons, fmt.Sprintf("file size %.1f GiB exceeds 20 GiB disc threshold", gb))
	}

	switch {
	case c.WebScore > c.DiscScore:
		c.SourceType = WebLike
	case c.DiscScore > c.WebScore:
		c.SourceType = DiscLike
	default:
		c.SourceType = Unknown
	}

	return c
}
