// Package startup validates the external ffmpeg toolchain before the
// daemon loop begins: checks its version and figures out which AV1
// software encoder backends it was built with.
package startup

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Encoder names one of the three supported software AV1 encoder backends.
type Encoder string

const (
	SVTAV1    Encoder = "svt"
	LibaomAV1 Encoder = "aom"
	Rav1e     Encoder = "rav1e"
)

// CodecName returns the ffmpeg -c:v codec name for this backend.
func (e Encoder) CodecName() string {
	switch e {
	case SVTAV1:
		return "libsvtav1"
	case LibaomAV1:
		return "libaom-av1"
	case Rav1e:
		return "librav1e"
	}
	return ""
}

// Selected is the encoder chosen for this run.
type Selected struct {
	Encoder   Encoder
	CodecName string
}

var versionRe = regexp.MustCompile(`ffmpeg version[^\d]*(\d+)\.(\d+)\.(\d+)`)

// CheckVersion runs "ffmpeg -version" and rejects anything older than
// major version 8.
func CheckVersion(ffmpegPath string) error {
	out, err := exec.Command(ffmpegPath, "-version").Output()
	if err != nil {
		return fmt.Errorf("run ffmpeg -version: %w", err)
	}

	m := versionRe.FindStringSubmatch(string(out))
	if m == nil {
		return fmt.Errorf("could not parse ffmpeg version from output")
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return fmt.Errorf("parse ffmpeg major version: %w", err)
	}
	if major < 8 {
		return fmt.Errorf("ffmpeg version %s.%s.%s is too old, need 8.0 or newer", m[1], m[2], m[3])
	}
	return nil
}

// DetectAvailable runs "ffmpeg -hide_banner -encoders" and returns the
// set of supported software AV1 backends found in the listing.
func DetectAvailable(ffmpegPath string) ([]Encoder, error) {
	out, err := exec.Command(ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("run ffmpeg -encoders: %w", err)
	}

	listing := string(out)
	var available []Encoder
	if strings.Contains(listing, "libsvtav1") {
		available = append(available, SVTAV1)
	}
	if strings.Contains(listing, "libaom-av1") {
		available = append(available, LibaomAV1)
	}
	if strings.Contains(listing, "librav1e") {
		available = append(available, Rav1e)
	}

	if len(available) == 0 {
		return nil, fmt.Errorf("ffmpeg has no AV1 software encoder backend (need libsvtav1, libaom-av1, or librav1e)")
	}
	return available, nil
}

// Select picks an encoder from the available list, honoring preference if
// it is present, else falling back in the fixed order SVT, aom, rav1e.
func Select(available []Encoder, preference Encoder) (Selected, error) {
	if len(available) == 0 {
		return Selected{}, fmt.Errorf("no encoders available to select from")
	}

	has := func(e Encoder) bool {
		for _, a := range available {
			if a == e {
				return true
			}
		}
		return false
	}

	if preference != "" && has(preference) {
		return Selected{Encoder: preference, CodecName: preference.CodecName()}, nil
	}

	for _, e := range []Encoder{SVTAV1, LibaomAV1, Rav1e} {
		if has(e) {
			return Selected{Encoder: e, CodecName: e.CodecName()}, nil
		}
	}

	return Selected{}, fmt.Errorf("no supported encoder in available list")
}
