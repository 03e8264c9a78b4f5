package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Static builds from github.com/eugeneware/ffmpeg-static release b6.1.1.
// They ship libx264 and libvpx, which covers every supported container.
const (
	ffmpegVersion = "6.1.1"

	binaryName = "ffmpeg"

	// downloadTimeout bounds the whole download (~25MB compressed).
	downloadTimeout = 10 * time.Minute

	// versionFileName records which release sits in the install directory.
	versionFileName = ".version"

	// minFFmpegMajorVersion is the oldest release known to handle rawvideo
	// piping and palettegen stats_mode the way the encoder arguments expect.
	minFFmpegMajorVersion = 4

	// installDirName is the per-user directory holding downloaded tools.
	installDirName = ".go-codevideo"

	installDirPerm = 0750
)

// EnvFFmpegPath points at a specific ffmpeg binary and disables auto-download.
const EnvFFmpegPath = "FFMPEG_PATH"

var defaultHTTPClient = &http.Client{
	Timeout: downloadTimeout,
	Transport: &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	},
}

// Resolver finds an ffmpeg binary, downloading one when none is available.
type Resolver struct {
	reader       fileReader
	writer       fileWriter
	http         httpDoer
	env          envProvider
	stderr       io.Writer
	goos         string
	goarch       string
	platformInfo *binaryInfo // test override; nil means use the built-in table
	retry        retryConfig
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileReader sets the file reader implementation.
func WithFileReader(r fileReader) ResolverOption {
	return func(res *Resolver) { res.reader = r }
}

// WithFileWriter sets the file writer implementation.
func WithFileWriter(w fileWriter) ResolverOption {
	return func(res *Resolver) { res.writer = w }
}

// WithHTTPClient sets the HTTP client implementation.
func WithHTTPClient(c httpDoer) ResolverOption {
	return func(res *Resolver) { res.http = c }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(res *Resolver) { res.env = e }
}

// WithStderr sets the writer for status messages.
func WithStderr(w io.Writer) ResolverOption {
	return func(res *Resolver) { res.stderr = w }
}

// WithPlatform sets the target platform.
func WithPlatform(goos, goarch string) ResolverOption {
	return func(res *Resolver) {
		res.goos = goos
		res.goarch = goarch
	}
}

// WithPlatformInfo overrides the download URL and checksum.
func WithPlatformInfo(info binaryInfo) ResolverOption {
	return func(res *Resolver) { res.platformInfo = &info }
}

// WithDownloadRetry sets how often a failed download is retried and the
// first backoff delay. The delay doubles per attempt, capped at 8x base.
func WithDownloadRetry(maxRetries int, baseDelay time.Duration) ResolverOption {
	return func(res *Resolver) {
		res.retry = retryConfig{maxRetries: maxRetries, baseDelay: baseDelay, maxDelay: 8 * baseDelay}
	}
}

// NewResolver creates a Resolver backed by the real filesystem and network
// unless options say otherwise.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		reader: osFileReader{},
		writer: osFileWriter{},
		http:   defaultHTTPClient,
		env:    osEnvProvider{},
		stderr: os.Stderr,
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
		retry:  defaultRetry,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the ffmpeg to use, in order of preference:
//  1. FFMPEG_PATH (an error if set but missing; no fallback)
//  2. ~/.go-codevideo/bin/ffmpeg (installed by a previous run)
//  3. ffmpeg on PATH
//  4. a fresh download into ~/.go-codevideo/bin
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if p := r.env.Getenv(EnvFFmpegPath); p != "" {
		if _, err := r.reader.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but binary not found (unset to enable auto-download)",
				ErrNotFound, EnvFFmpegPath, p)
		}
		return p, nil
	}

	bin, err := r.binaryPath()
	if err != nil {
		return "", err
	}
	if r.isInstalled(bin) {
		return bin, nil
	}

	if p, err := r.env.LookPath(binaryName); err == nil {
		return p, nil
	}

	fmt.Fprintln(r.stderr, "ffmpeg not found, downloading...")
	if err := r.install(ctx, bin); err != nil {
		return "", fmt.Errorf("%w: auto-download failed: %v\n\n%s",
			ErrNotFound, err, r.manualInstallInstructions())
	}
	return bin, nil
}

// binaryPath is where a downloaded ffmpeg lives for this platform.
func (r *Resolver) binaryPath() (string, error) {
	home, err := r.env.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	name := binaryName
	if r.goos == "windows" {
		name += ".exe"
	}
	return filepath.Join(home, installDirName, "bin", name), nil
}

// isInstalled reports whether bin exists and was written by the current release.
// A stale or missing version file counts as not installed, which triggers a
// re-download; that is harmless, so the Stat/ReadFile race is ignored.
func (r *Resolver) isInstalled(bin string) bool {
	if _, err := r.reader.Stat(bin); err != nil {
		return false
	}
	data, err := r.reader.ReadFile(filepath.Join(filepath.Dir(bin), versionFileName))
	return err == nil && string(data) == ffmpegVersion
}

// manualInstallInstructions returns platform-specific advice for when
// auto-download is not possible.
func (r *Resolver) manualInstallInstructions() string {
	const tail = "Or set FFMPEG_PATH environment variable to your ffmpeg binary."
	switch r.goos {
	case "darwin":
		return "To install FFmpeg manually:\n  brew install ffmpeg\n\n" + tail
	case "linux":
		return "To install FFmpeg manually:\n" +
			"  Ubuntu/Debian: sudo apt install ffmpeg\n" +
			"  Fedora:        sudo dnf install ffmpeg\n" +
			"  Arch:          sudo pacman -S ffmpeg\n\n" + tail
	case "windows":
		return "To install FFmpeg manually:\n  winget install ffmpeg\n\n" + tail
	default:
		return "To install FFmpeg manually, download from https://ffmpeg.org/download.html\n" + tail
	}
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// Resolve finds ffmpeg using the default resolver.
func Resolve(ctx context.Context) (string, error) {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver.Resolve(ctx)
}

// ---------------------------------------------------------------------------
// Version check
// ---------------------------------------------------------------------------

// VersionChecker warns about ffmpeg releases older than the minimum.
type VersionChecker struct {
	executor *Executor
	stderr   io.Writer
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running FFmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionStderr sets the writer for warning messages.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.stderr = w }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: getDefaultExecutor(),
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check runs "ffmpeg -version" and warns on stderr when the major version is
// below the minimum. It never fails: an unparseable banner returns false and
// rendering goes ahead anyway.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) bool {
	output, err := vc.executor.RunOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return false
	}

	major, ok := parseMajorVersion(output)
	if !ok {
		return false
	}
	if major < minFFmpegMajorVersion {
		fmt.Fprintf(vc.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minFFmpegMajorVersion)
	}
	return true
}

// parseMajorVersion reads the major version from a banner such as
// "ffmpeg version 6.1.1 Copyright..." or "ffmpeg version n6.1.1-...".
// Git builds ("ffmpeg version N-112345-g...") carry no release number.
func parseMajorVersion(banner string) (int, bool) {
	first, _, _ := strings.Cut(strings.TrimSpace(banner), "\n")
	var major int
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err == nil {
		return major, true
	}
	if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err == nil {
		return major, true
	}
	return 0, false
}

// CheckVersion runs the default VersionChecker.
func CheckVersion(ctx context.Context, ffmpegPath string) {
	NewVersionChecker().Check(ctx, ffmpegPath)
}
