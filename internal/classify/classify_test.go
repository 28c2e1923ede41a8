package classify

import (
	"path/filepath"
	"testing"

	"github.com/yourname/av1qsvd/internal/probe"
)

func TestSourceKeywordClassification(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name string
		path string
		want SourceType
	}{
		{"web keyword", filepath.Join(dir, "Show.S01E01.WEBRip.mkv"), WebLike},
		{"disc keyword", filepath.Join(dir, "Movie.2020.BluRay.REMUX.mkv"), DiscLike},
		{"no keyword, no stream signal", filepath.Join(dir, "Movie.mkv"), Unknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result := &probe.Result{}
			got := Source(c.path, 1024, result)
			if got.SourceType != c.want {
				t.Errorf("Source() = %v, want %v (reasons: %v)", got.SourceType, c.want, got.Reasons)
			}
		})
	}
}

func TestSourceBitrateHeuristics(t *testing.T) {
	path := "/library/Movie.mkv"

	result := &probe.Result{
		Streams: []probe.Stream{
			{CodecType: "video", Height: 2160, BitRate: 8_000_000},
		},
	}
	got := Source(path, 1024, result)
	if got.SourceType != WebLike {
		t.Errorf("low-bitrate 4K should classify web-like, got %v", got.SourceType)
	}

	result2 := &probe.Result{
		Streams: []probe.Stream{
			{CodecType: "video", Height: 2160, BitRate: 50_000_000},
		},
	}
	got2 := Source(path, 1024, result2)
	if got2.SourceType != DiscLike {
		t.Errorf("high-bitrate 4K should classify disc-like, got %v", got2.SourceType)
	}
}

func TestSourceLargeFileIsDiscLike(t *testing.T) {
	path := "/library/Movie.mkv"
	result := &probe.Result{}

	const twentyOneGiB = 21 * 1024 * 1024 * 1024
	got := Source(path, twentyOneGiB, result)
	if got.SourceType != DiscLike {
		t.Errorf("file over 20 GiB should classify disc-like, got %v (disc=%d web=%d)", got.SourceType, got.DiscScore, got.WebScore)
	}
}

func TestSourceTieIsUnknown(t *testing.T) {
	path := "/library/WEB.BLURAY.mkv"

	result := &probe.Result{}
	got := Source(path, 1024, result)
	if got.SourceType != Unknown {
		t.Errorf("equal web/disc keyword scores should tie to Unknown, got %v (web=%d disc=%d)", got.SourceType, got.WebScore, got.DiscScore)
	}
}
