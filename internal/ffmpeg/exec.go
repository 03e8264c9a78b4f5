package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// GracefulTimeout is how long ffmpeg gets to finalize a file after its input
// is cut short by cancellation.
const GracefulTimeout = 10 * time.Second

// FeedFunc writes encoder input to w. It should return promptly once ctx is done.
type FeedFunc func(ctx context.Context, w io.Writer) error

// RunPiped starts ffmpeg with args, streams input into its stdin through feed
// and waits for it to exit.
//
// Closing stdin is how ffmpeg learns the input has ended, so the same path
// serves normal completion and cancellation: when ctx is canceled feed stops,
// stdin is closed and ffmpeg finalizes whatever it has (container index,
// trailer). If it does not exit within timeout it is killed. A canceled run
// that finalized cleanly returns nil; callers inspect ctx to tell it apart.
func RunPiped(ctx context.Context, ffmpegPath string, args []string, feed FeedFunc, timeout time.Duration) error {
	cmd := exec.Command(ffmpegPath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("%w: start ffmpeg: %w", ErrEncodeFailed, err)
	}

	feedErr := feed(ctx, stdin)
	_ = stdin.Close()

	// Wait only after all writes are done; it closes the pipe on exit.
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	if ctx.Err() == nil {
		waitErr := <-done
		switch {
		case feedErr != nil:
			// Usually a broken pipe because ffmpeg exited early; its stderr says why.
			return fmt.Errorf("%w: %v\nOutput: %s", ErrEncodeFailed, feedErr, stderr.String())
		case waitErr != nil:
			return fmt.Errorf("%w: %v\nOutput: %s", ErrEncodeFailed, waitErr, stderr.String())
		}
		return nil
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		<-done
		return fmt.Errorf("%w: killed after %v", ErrTimeout, timeout)
	}
}

// ---------------------------------------------------------------------------
// Executor - captured-output runs with dependency injection
// ---------------------------------------------------------------------------

// runOutputFn is the function type for running a command and capturing output.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs short FFmpeg commands (probes, version checks) and captures their output.
type Executor struct {
	runOutput runOutputFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{runOutput: defaultRunOutput}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes FFmpeg and returns what it wrote to stdout and stderr.
func (e *Executor) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.runOutput(ctx, ffmpegPath, args)
}

// defaultRunOutput returns combined output even when the command fails:
// a non-zero exit still leaves useful text behind.
func defaultRunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}

var (
	defaultExecutor     *Executor
	defaultExecutorOnce sync.Once
)

func getDefaultExecutor() *Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = NewExecutor()
	})
	return defaultExecutor
}
