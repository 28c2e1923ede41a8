// Package toolchain locates or installs the ffmpeg/ffprobe binaries the
// rest of the daemon shells out to, downloading and extracting a release
// tarball when nothing suitable is found on PATH.
package toolchain

import (
	"archive/tar"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// Ensure returns a path to a usable ffmpeg binary: explicitPath if set,
// else whatever "ffmpeg" resolves to on PATH, else a binary downloaded
// into installDir from url.
func Ensure(explicitPath, installDir, url string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err == nil {
			return explicitPath, nil
		}
		return "", fmt.Errorf("configured ffmpeg_path %s does not exist", explicitPath)
	}

	if found, err := exec.LookPath("ffmpeg"); err == nil {
		return found, nil
	}

	installed := filepath.Join(installDir, "ffmpeg")
	if _, err := os.Stat(installed); err == nil {
		return installed, nil
	}

	if err := downloadAndExtract(url, installDir); err != nil {
		return "", fmt.Errorf("install ffmpeg: %w", err)
	}

	if _, err := os.Stat(installed); err != nil {
		return "", fmt.Errorf("ffmpeg binary not found in archive after extraction")
	}

	return installed, nil
}

func downloadAndExtract(url, installDir string) error {
	if err := os.MkdirAll(installDir, 0755); err != nil {
		return fmt.Errorf("create install dir: %w", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("download ffmpeg archive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download ffmpeg archive: unexpected status %s", resp.Status)
	}

	xzReader, err := xz.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("open xz stream: %w", err)
	}

	tarReader := tar.NewReader(xzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		name := filepath.Base(header.Name)
		if name != "ffmpeg" && name != "ffprobe" {
			continue
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		destPath := filepath.Join(installDir, name)
		out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := io.Copy(out, tarReader); err != nil {
			out.Close()
			return fmt.Errorf("extract %s: %w", name, err)
		}
		out.Close()
	}

	return nil
}
