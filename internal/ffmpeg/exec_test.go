package ffmpeg

// Notes:
// - RunPiped tests use real processes (sh, cat, sleep) standing in for ffmpeg;
//   they are skipped on Windows.
// - Executor and VersionChecker tests inject runOutput.

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// ---------------------------------------------------------------------------
// RunPiped - streaming input into a child process
// ---------------------------------------------------------------------------

func TestRunPiped_WritesAllInput(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	out := filepath.Join(t.TempDir(), "out.raw")
	feed := func(ctx context.Context, w io.Writer) error {
		for range 3 {
			if _, err := io.WriteString(w, "frame;"); err != nil {
				return err
			}
		}
		return nil
	}

	err := RunPiped(context.Background(), "sh", []string{"-c", "cat > " + out}, feed, time.Second)
	if err != nil {
		t.Fatalf("RunPiped() unexpected error: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "frame;frame;frame;" {
		t.Errorf("output = %q, want %q", got, "frame;frame;frame;")
	}
}

func TestRunPiped_NonZeroExit(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	feed := func(ctx context.Context, w io.Writer) error { return nil }

	err := RunPiped(context.Background(), "sh", []string{"-c", "echo bad codec >&2; exit 3"}, feed, time.Second)
	if !errors.Is(err, ErrEncodeFailed) {
		t.Fatalf("RunPiped() error = %v, want ErrEncodeFailed", err)
	}
	if !strings.Contains(err.Error(), "bad codec") {
		t.Errorf("RunPiped() error = %q, want stderr included", err.Error())
	}
}

func TestRunPiped_FeedError(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	sentinel := errors.New("rasterize failed")
	feed := func(ctx context.Context, w io.Writer) error { return sentinel }

	err := RunPiped(context.Background(), "sh", []string{"-c", "cat > /dev/null"}, feed, time.Second)
	if !errors.Is(err, ErrEncodeFailed) {
		t.Errorf("RunPiped() error = %v, want ErrEncodeFailed", err)
	}
	if !strings.Contains(err.Error(), "rasterize failed") {
		t.Errorf("RunPiped() error = %q, want feed error included", err.Error())
	}
}

func TestRunPiped_CanceledFinalizes(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	out := filepath.Join(t.TempDir(), "partial.raw")
	ctx, cancel := context.WithCancel(context.Background())

	feed := func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "first"); err != nil {
			return err
		}
		cancel()
		return ctx.Err()
	}

	err := RunPiped(ctx, "sh", []string{"-c", "cat > " + out}, feed, 5*time.Second)
	if err != nil {
		t.Fatalf("RunPiped() error = %v, want nil after graceful finalize", err)
	}

	got, _ := os.ReadFile(out)
	if string(got) != "first" {
		t.Errorf("partial output = %q, want %q", got, "first")
	}
}

func TestRunPiped_KilledAfterTimeout(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := func(ctx context.Context, w io.Writer) error { return ctx.Err() }

	start := time.Now()
	err := RunPiped(ctx, "sh", []string{"-c", "exec sleep 30"}, feed, 100*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("RunPiped() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("RunPiped() took %v, want prompt kill", elapsed)
	}
}

func TestRunPiped_StartFailure(t *testing.T) {
	t.Parallel()

	feed := func(ctx context.Context, w io.Writer) error {
		t.Error("feed called for a process that never started")
		return nil
	}

	err := RunPiped(context.Background(), "/nonexistent/ffmpeg", nil, feed, time.Second)
	if err == nil || !strings.Contains(err.Error(), "start ffmpeg") {
		t.Errorf("RunPiped() error = %v, want start failure", err)
	}
	// A binary that cannot run is an encoder failure, not a setup one.
	if !errors.Is(err, ErrEncodeFailed) {
		t.Errorf("RunPiped() error = %v, want ErrEncodeFailed", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("RunPiped() error = %v, want the os error kept", err)
	}
}

// ---------------------------------------------------------------------------
// Executor.RunOutput
// ---------------------------------------------------------------------------

func TestExecutor_RunOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mockOutput string
		mockErr    error
		wantErr    bool
	}{
		{name: "returns output", mockOutput: "ffmpeg version 6.1.1"},
		{name: "returns empty output", mockOutput: ""},
		{name: "returns error", mockErr: errors.New("command failed"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewExecutor(WithRunOutput(func(ctx context.Context, path string, args []string) (string, error) {
				return tt.mockOutput, tt.mockErr
			}))

			got, err := e.RunOutput(context.Background(), "/usr/bin/ffmpeg", []string{"-version"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunOutput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.mockOutput {
				t.Errorf("RunOutput() = %q, want %q", got, tt.mockOutput)
			}
		})
	}
}

func TestDefaultRunOutput_CapturesBothStreams(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	out, err := defaultRunOutput(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"})
	if err != nil {
		t.Fatalf("defaultRunOutput() unexpected error: %v", err)
	}
	if !strings.Contains(out, "out") || !strings.Contains(out, "err") {
		t.Errorf("defaultRunOutput() = %q, want both stdout and stderr", out)
	}
}

func TestDefaultRunOutput_NonexistentCommand(t *testing.T) {
	t.Parallel()

	out, err := defaultRunOutput(context.Background(), "/nonexistent/command", nil)
	if err == nil {
		t.Error("defaultRunOutput() error = nil, want error")
	}
	if out != "" {
		t.Errorf("defaultRunOutput() = %q, want empty", out)
	}
}

// ---------------------------------------------------------------------------
// VersionChecker
// ---------------------------------------------------------------------------

func TestParseMajorVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		banner    string
		wantMajor int
		wantOK    bool
	}{
		{name: "release", banner: "ffmpeg version 6.1.1 Copyright (c) 2000-2023", wantMajor: 6, wantOK: true},
		{name: "n-prefixed", banner: "ffmpeg version n7.0 Copyright", wantMajor: 7, wantOK: true},
		{name: "multi-line", banner: "ffmpeg version 5.1\nbuilt with gcc", wantMajor: 5, wantOK: true},
		{name: "git build", banner: "ffmpeg version N-112345-gabcdef", wantOK: false},
		{name: "garbage", banner: "something unexpected", wantOK: false},
		{name: "empty", banner: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			major, ok := parseMajorVersion(tt.banner)
			if ok != tt.wantOK || major != tt.wantMajor {
				t.Errorf("parseMajorVersion(%q) = (%d, %v), want (%d, %v)",
					tt.banner, major, ok, tt.wantMajor, tt.wantOK)
			}
		})
	}
}

func TestVersionChecker_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		output      string
		runErr      error
		wantOK      bool
		wantWarning bool
	}{
		{name: "current version", output: "ffmpeg version 6.1.1", wantOK: true},
		{name: "minimum version", output: "ffmpeg version 4.4.1", wantOK: true},
		{name: "old version warns", output: "ffmpeg version 3.4.8", wantOK: true, wantWarning: true},
		{name: "unparseable", output: "nope", wantOK: false},
		{name: "run error without output", runErr: errors.New("boom"), wantOK: false},
		{name: "run error with output still parsed", output: "ffmpeg version 6.0", runErr: errors.New("exit 1"), wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stderr strings.Builder
			vc := NewVersionChecker(
				WithVersionExecutor(NewExecutor(WithRunOutput(
					func(ctx context.Context, path string, args []string) (string, error) {
						return tt.output, tt.runErr
					}))),
				WithVersionStderr(&stderr),
			)

			if got := vc.Check(context.Background(), "/usr/bin/ffmpeg"); got != tt.wantOK {
				t.Errorf("Check() = %v, want %v", got, tt.wantOK)
			}
			if gotWarning := strings.Contains(stderr.String(), "Warning"); gotWarning != tt.wantWarning {
				t.Errorf("Check() stderr = %q, wantWarning %v", stderr.String(), tt.wantWarning)
			}
		})
	}
}
