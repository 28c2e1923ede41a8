package paramselect

import (
	"testing"

	"github.com/yourname/av1qsvd/internal/startup"
)

func TestSelectCRF(t *testing.T) {
	cases := []struct {
		height int
		tier   QualityTier
		want   int
	}{
		{2160, High, 20},
		{3840, High, 20},
		{1440, High, 21},
		{2000, High, 21},
		{1080, High, 22},
		{1200, High, 22},
		{720, High, 23},
		{480, High, 23},
		{2160, VeryHigh, 19},
		{1440, VeryHigh, 20},
		{1080, VeryHigh, 21},
		{720, VeryHigh, 22},
	}
	for _, c := range cases {
		if got := SelectCRF(c.height, c.tier); got != c.want {
			t.Errorf("SelectCRF(%d, %v) = %d, want %d", c.height, c.tier, got, c.want)
		}
	}
}

func TestSelectCRFSaturatesAtZero(t *testing.T) {
	// A height whose base CRF is already 0 would need an explicit floor;
	// none of the real buckets reach 0, but the saturation logic must
	// still never go negative for any height in range.
	for h := 0; h <= 4320; h += 60 {
		if got := SelectCRF(h, VeryHigh); got < 0 {
			t.Fatalf("SelectCRF(%d, VeryHigh) = %d, want >= 0", h, got)
		}
	}
}

func TestSelectPreset(t *testing.T) {
	cases := []struct {
		height int
		tier   QualityTier
		want   int
	}{
		{2160, High, 2},
		{1440, High, 3},
		{1080, High, 3},
		{720, High, 4},
		{2160, VeryHigh, 1},
		{1440, VeryHigh, 2},
		{1080, VeryHigh, 2},
		{720, VeryHigh, 3},
	}
	for _, c := range cases {
		if got := SelectPreset(c.height, c.tier); got != c.want {
			t.Errorf("SelectPreset(%d, %v) = %d, want %d", c.height, c.tier, got, c.want)
		}
	}
}

func TestSelectPresetSaturatesAtZero(t *testing.T) {
	for h := 0; h <= 4320; h += 60 {
		if got := SelectPreset(h, VeryHigh); got < 0 {
			t.Fatalf("SelectPreset(%d, VeryHigh) = %d, want >= 0", h, got)
		}
	}
}

func TestTargetBitDepth(t *testing.T) {
	if got := TargetBitDepth(10); got != 10 {
		t.Errorf("TargetBitDepth(10) = %d, want 10", got)
	}
	if got := TargetBitDepth(8); got != 8 {
		t.Errorf("TargetBitDepth(8) = %d, want 8", got)
	}
	if got := TargetBitDepth(0); got != 8 {
		t.Errorf("TargetBitDepth(0) = %d, want 8", got)
	}
	if got := TargetBitDepth(12); got != 10 {
		t.Errorf("TargetBitDepth(12) = %d, want 10", got)
	}
}

func TestTargetAV1Profile(t *testing.T) {
	cases := []struct {
		bitDepth int
		pixFmt   string
		want     string
	}{
		{8, "yuv420p", "main"},
		{10, "yuv420p10le", "main"},
		{10, "yuv444p10le", "high"},
		{12, "yuv420p12le", "professional"},
	}
	for _, c := range cases {
		if got := TargetAV1Profile(c.bitDepth, c.pixFmt); got != c.want {
			t.Errorf("TargetAV1Profile(%d, %q) = %q, want %q", c.bitDepth, c.pixFmt, got, c.want)
		}
	}
}

func TestEncoderSpeedParamHonorsTier(t *testing.T) {
	high := EncoderSpeedParam(startup.LibaomAV1, 1080, High)
	veryHigh := EncoderSpeedParam(startup.LibaomAV1, 1080, VeryHigh)
	if veryHigh >= high {
		t.Errorf("EncoderSpeedParam(aom, 1080, VeryHigh) = %d, want < High's %d", veryHigh, high)
	}
}

func TestAomTileColumnsIncreasesWithResolution(t *testing.T) {
	if AomTileColumns(2160) <= AomTileColumns(1080) {
		t.Errorf("expected more tile columns at 2160p than 1080p")
	}
}
