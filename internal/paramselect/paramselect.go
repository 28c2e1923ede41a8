// Package paramselect chooses encoder quality parameters from a source
// video's resolution alone. Bitrate is deliberately ignored: a low source
// bitrate is not a license to degrade quality further.
package paramselect

import (
	"strings"

	"github.com/yourname/av1qsvd/internal/startup"
)

// QualityTier selects between the two CRF/preset ladders: High is the
// default, VeryHigh tightens every knob by one step.
type QualityTier string

const (
	High     QualityTier = "high"
	VeryHigh QualityTier = "very_high"
)

// SelectCRF returns the CRF value for a given source height: 20 at or
// above 2160p, 21 at or above 1440p, 22 at or above 1080p, else 23.
// VeryHigh subtracts 1 from whichever bucket applies, saturating at 0.
func SelectCRF(height int, tier QualityTier) int {
	crf := baseCRF(height)
	if tier == VeryHigh {
		crf--
		if crf < 0 {
			crf = 0
		}
	}
	return crf
}

func baseCRF(height int) int {
	switch {
	case height >= 2160:
		return 20
	case height >= 1440:
		return 21
	case height >= 1080:
		return 22
	default:
		return 23
	}
}

// SelectPreset returns the libsvtav1 preset (lower is slower/higher
// quality) for a source height and quality tier. Only SVT-AV1 uses this
// numeric preset; libaom-av1 and librav1e use their own speed knobs set
// directly in the command builder.
func SelectPreset(height int, tier QualityTier) int {
	preset := basePreset(height)
	if tier == VeryHigh {
		preset--
		if preset < 0 {
			preset = 0
		}
	}
	return preset
}

func basePreset(height int) int {
	switch {
	case height >= 2160:
		return 2
	case height >= 1440:
		return 3
	case height >= 1080:
		return 3
	default:
		return 4
	}
}

// TargetBitDepth returns the output bit depth to encode at: 10 for sources
// of 10 bits or more (so 12-bit sources are reduced to 10), else 8.
func TargetBitDepth(sourceBitDepth int) int {
	if sourceBitDepth >= 10 {
		return 10
	}
	return 8
}

// TargetAV1Profile returns the AV1 profile name for the target bit depth
// and source pixel format: "high" when the source pixel format is 4:4:4,
// "professional" when the target bit depth is above 10, else "main". The
// choice follows the source's chroma layout only; the command builder's
// -pix_fmt is always a 4:2:0 format (yuv420p or yuv420p10le).
func TargetAV1Profile(targetBitDepth int, sourcePixFmt string) string {
	if is444(sourcePixFmt) {
		return "high"
	}
	if targetBitDepth > 10 {
		return "professional"
	}
	return "main"
}

func is444(pixFmt string) bool {
	return strings.Contains(pixFmt, "444")
}

// EncoderSpeedParam maps a quality tier onto a speed/cpu-used value for
// the non-SVT backends, which use a single combined speed knob instead of
// SVT's separate preset. Higher resolutions lean toward more tiles and a
// faster cpu-used value to keep wall-clock time reasonable; VeryHigh
// trades some of that speed back for quality.
func EncoderSpeedParam(encoder startup.Encoder, height int, tier QualityTier) int {
	switch encoder {
	case startup.LibaomAV1:
		cpuUsed := 4
		if height >= 2160 {
			cpuUsed = 6
		} else if height >= 1440 {
			cpuUsed = 5
		}
		if tier == VeryHigh {
			cpuUsed--
		}
		return cpuUsed
	case startup.Rav1e:
		speed := 6
		if height >= 2160 {
			speed = 8
		} else if height >= 1440 {
			speed = 7
		}
		if tier == VeryHigh {
			speed--
		}
		return speed
	default:
		return SelectPreset(height, tier)
	}
}

// AomTileColumns returns the -tiles column count for libaom-av1: higher
// resolutions split into more tiles so cpu-used's parallelism pays off.
func AomTileColumns(height int) int {
	switch {
	case height >= 2160:
		return 4
	case height >= 1440:
		return 2
	default:
		return 1
	}
}

// Rav1eQP converts a CRF value into the qp knob librav1e expects in
// place of a true CRF mode.
func Rav1eQP(crf int) int {
	qp := crf * 4
	if qp > 255 {
		qp = 255
	}
	return qp
}
