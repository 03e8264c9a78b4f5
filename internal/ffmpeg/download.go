package ffmpeg

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// binaryInfo is where to fetch a gzipped ffmpeg and what it should hash to.
type binaryInfo struct {
	URL    string
	SHA256 string // of the .gz file
}

const downloadBaseURL = "https://github.com/eugeneware/ffmpeg-static/releases/download/b6.1.1"

// maxDecompressedSize caps gunzip output (the binary is ~80MB).
const maxDecompressedSize = 200 * 1024 * 1024

// platformInfo returns the download for goos/goarch, if one exists.
func platformInfo(goos, goarch string) (binaryInfo, bool) {
	switch goos + "-" + goarch {
	case "darwin-arm64":
		return binaryInfo{downloadBaseURL + "/ffmpeg-darwin-arm64.gz",
			"8923876afa8db5585022d7860ec7e589af192f441c56793971276d450ed3bbfa"}, true
	case "darwin-amd64":
		return binaryInfo{downloadBaseURL + "/ffmpeg-darwin-x64.gz",
			"5d8fb6f280c428d0e82cd5ee68215f0734d64f88e37dcc9e082f818c9e5025f0"}, true
	case "linux-amd64":
		return binaryInfo{downloadBaseURL + "/ffmpeg-linux-x64.gz",
			"bfe8a8fc511530457b528c48d77b5737527b504a3797a9bc4866aeca69c2dffa"}, true
	case "windows-amd64":
		return binaryInfo{downloadBaseURL + "/ffmpeg-win32-x64.gz",
			"8883a3dffbd0a16cf4ef95206ea05283f78908dbfb118f73c83f4951dcc06d77"}, true
	}
	return binaryInfo{}, false
}

// install downloads, verifies and unpacks ffmpeg to bin, then records the
// version next to it.
func (r *Resolver) install(ctx context.Context, bin string) error {
	info, ok := platformInfo(r.goos, r.goarch)
	if r.platformInfo != nil {
		info, ok = *r.platformInfo, true
	}
	if !ok {
		return fmt.Errorf("%w: %s-%s (supported: darwin-arm64, darwin-amd64, linux-amd64, windows-amd64)",
			ErrUnsupportedPlatform, r.goos, r.goarch)
	}

	dir := filepath.Dir(bin)
	if err := r.writer.MkdirAll(dir, installDirPerm); err != nil {
		return fmt.Errorf("cannot create install directory %s: %w", dir, err)
	}

	if err := r.fetch(ctx, info, bin); err != nil {
		_ = r.writer.Remove(bin)
		return fmt.Errorf("download ffmpeg: %w", err)
	}

	if err := r.writer.WriteFile(filepath.Join(dir, versionFileName), []byte(ffmpegVersion), 0644); err != nil {
		return fmt.Errorf("write version file: %w", err)
	}
	return nil
}

// fetch downloads info.URL to a temp file beside dest, checks its hash and
// unpacks it to dest.
func (r *Resolver) fetch(ctx context.Context, info binaryInfo, dest string) error {
	tmp, err := r.writer.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = r.writer.Remove(tmpPath)
	}()

	err = retryWithBackoff(ctx, r.retry, func() error {
		// A failed attempt may have written part of the body.
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind temp file: %w", err)
		}
		if err := tmp.Truncate(0); err != nil {
			return fmt.Errorf("truncate temp file: %w", err)
		}
		return r.get(ctx, info.URL, tmp)
	}, isTransient)
	if err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := verifyChecksum(tmpPath, info.SHA256); err != nil {
		return err
	}
	if err := decompressGzip(tmpPath, dest); err != nil {
		return err
	}

	if r.goos != "windows" {
		if err := r.writer.Chmod(dest, 0755); err != nil {
			return fmt.Errorf("make binary executable: %w", err)
		}
	}
	return nil
}

// get streams url into dst.
func (r *Resolver) get(ctx context.Context, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: invalid URL: %v", ErrDownloadFailed, err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrDownloadFailed, ctx.Err())
		}
		return transient(fmt.Errorf("%w: %v", ErrDownloadFailed, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: HTTP %d from %s", ErrDownloadFailed, resp.StatusCode, url)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return transient(err)
		}
		return err
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrDownloadFailed, ctx.Err())
		}
		return transient(fmt.Errorf("%w: %v", ErrDownloadFailed, err))
	}
	return nil
}

// verifyChecksum compares the SHA-256 of the file at path with want (hex).
func verifyChecksum(path, want string) error {
	f, err := os.Open(path) // #nosec G304 -- internal temp file
	if err != nil {
		return fmt.Errorf("cannot open file for checksum: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("compute checksum: %w", err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, want, got)
	}
	return nil
}

// decompressGzip unpacks gzPath into destPath through a temp file and rename,
// so destPath is either complete or untouched.
func decompressGzip(gzPath, destPath string) error {
	in, err := os.Open(gzPath) // #nosec G304 -- internal temp file
	if err != nil {
		return fmt.Errorf("cannot open gzip file: %w", err)
	}
	defer func() { _ = in.Close() }()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("invalid gzip file: %w", err)
	}
	defer func() { _ = zr.Close() }()

	out, err := os.CreateTemp(filepath.Dir(destPath), ".extract-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	outPath := out.Name()
	ok := false
	defer func() {
		_ = out.Close()
		if !ok {
			_ = os.Remove(outPath)
		}
	}()

	n, err := io.Copy(out, io.LimitReader(zr, maxDecompressedSize))
	if err != nil {
		return fmt.Errorf("decompression failed: %w", err)
	}
	if n >= maxDecompressedSize {
		return fmt.Errorf("decompression failed: file exceeds %d bytes limit", maxDecompressedSize)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(outPath, destPath); err != nil {
		return fmt.Errorf("install binary: %w", err)
	}
	ok = true
	return nil
}
