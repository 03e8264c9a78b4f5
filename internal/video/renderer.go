package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-codevideo/internal/ffmpeg"
	"github.com/alnah/go-codevideo/internal/lang"
)

// DefaultHold is how long the finished code stays on screen.
const DefaultHold = time.Second

// maxWorkers caps rasterization parallelism; beyond this the encoder is the bottleneck.
const maxWorkers = 8

// Renderer turns a Config into a video file.
type Renderer interface {
	Render(ctx context.Context, cfg Config) error
}

// PipeFunc runs an encoder with args, feeding it through feed.
// ffmpeg.RunPiped is the production implementation.
type PipeFunc func(ctx context.Context, args []string, feed ffmpeg.FeedFunc) error

// ProgressFunc reports rasterized frames out of the total.
type ProgressFunc func(done, total int)

// Video renders typing animations of source code through ffmpeg.
type Video struct {
	pipe     PipeFunc
	logger   *zap.Logger
	workers  int
	hold     time.Duration
	progress ProgressFunc
}

// Option configures a Video.
type Option func(*Video)

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Video) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithWorkers sets how many frames are rasterized concurrently.
func WithWorkers(n int) Option {
	return func(v *Video) { v.workers = min(max(n, 1), maxWorkers) }
}

// WithHold sets how long the finished code stays on screen.
func WithHold(d time.Duration) Option {
	return func(v *Video) { v.hold = max(d, 0) }
}

// WithProgress sets a callback invoked after each batch of frames.
func WithProgress(fn ProgressFunc) Option {
	return func(v *Video) { v.progress = fn }
}

// WithPipe replaces the encoder (for testing).
func WithPipe(fn PipeFunc) Option {
	return func(v *Video) { v.pipe = fn }
}

// New returns a Video that encodes with the ffmpeg binary at ffmpegPath.
func New(ffmpegPath string, opts ...Option) *Video {
	v := &Video{
		pipe: func(ctx context.Context, args []string, feed ffmpeg.FeedFunc) error {
			return ffmpeg.RunPiped(ctx, ffmpegPath, args, feed, ffmpeg.GracefulTimeout)
		},
		logger:  zap.NewNop(),
		workers: min(runtime.NumCPU(), maxWorkers),
		hold:    DefaultHold,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Render validates cfg, then rasterizes and encodes every frame to cfg.Output.
//
// When ctx is canceled mid-render the encoder is asked to finalize what it has
// and Render returns ctx.Err(); the partial file is left for the caller to keep
// or remove.
func (v *Video) Render(ctx context.Context, cfg Config) error {
	if cfg.FPS <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFPS, cfg.FPS)
	}
	if !(cfg.LineDuration > 0) || math.IsInf(cfg.LineDuration, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidLineDuration, cfg.LineDuration)
	}
	if cfg.Output == "" {
		return ErrNoOutput
	}

	lexer, err := lang.Lexer(cfg.Language)
	if err != nil {
		return err
	}
	style, err := Style(cfg.Theme)
	if err != nil {
		return err
	}
	// Probe the container before any rasterizing work.
	if _, err := encodeArgs(cfg.Output, minWidth, minHeight, cfg.FPS); err != nil {
		return err
	}

	pal := newPalette(style)
	lines, err := highlight(cfg.Code, lexer, style, pal)
	if err != nil {
		return err
	}

	fps := float64(cfg.FPS)
	if n := float64(len(lines))*cfg.LineDuration*fps + v.hold.Seconds()*fps; n > maxFrames {
		return fmt.Errorf("%w: %g frames needed, at most %d", ErrTooManyFrames, math.Ceil(n), maxFrames)
	}

	probe, err := newFaces()
	if err != nil {
		return err
	}
	lay := newLayout(probe.regular, lines)
	probe.Close()

	visible := lay.visibleCols()
	widths := make([]int, len(lines))
	clipped, widest := 0, 0
	for i, l := range lines {
		widths[i] = l.width()
		if widths[i] > visible {
			clipped++
			widest = max(widest, widths[i])
		}
	}
	if clipped > 0 {
		v.logger.Warn("lines wider than the frame are clipped",
			zap.Int("lines", clipped),
			zap.Int("widest", widest),
			zap.Int("visible_columns", visible),
		)
	}
	tl := timeline{
		widths:       widths,
		fps:          cfg.FPS,
		lineDuration: cfg.LineDuration,
		hold:         v.hold.Seconds(),
		showCursor:   cfg.ShowCursor,
	}

	args, err := encodeArgs(cfg.Output, lay.width, lay.height, cfg.FPS)
	if err != nil {
		return err
	}

	total := tl.frames()
	v.logger.Debug("render plan",
		zap.String("output", cfg.Output),
		zap.String("language", lexer.Config().Name),
		zap.String("theme", style.Name),
		zap.Int("lines", len(lines)),
		zap.Int("frames", total),
		zap.Int("width", lay.width),
		zap.Int("height", lay.height),
		zap.Int("workers", v.workers),
	)

	start := time.Now()
	err = v.pipe(ctx, args, func(ctx context.Context, w io.Writer) error {
		return v.feed(ctx, w, lay, pal, lines, tl)
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		v.logger.Debug("render canceled", zap.String("output", cfg.Output))
		return err
	}

	v.logger.Debug("render complete",
		zap.String("output", cfg.Output),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// feed rasterizes frames in ordered batches of v.workers and writes their raw
// RGBA bytes to w. Each worker slot owns its font faces and frame buffer.
func (v *Video) feed(ctx context.Context, w io.Writer, lay layout, pal palette, lines []line, tl timeline) error {
	n := max(v.workers, 1)
	slots := make([]*rasterizer, n)
	bufs := make([]*image.RGBA, n)
	for i := range slots {
		f, err := newFaces()
		if err != nil {
			return err
		}
		defer f.Close()
		slots[i] = &rasterizer{lay: lay, pal: pal, lines: lines, faces: f}
		bufs[i] = image.NewRGBA(image.Rect(0, 0, lay.width, lay.height))
	}

	total := tl.frames()
	for base := 0; base < total; base += n {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch := min(n, total-base)
		g, gctx := errgroup.WithContext(ctx)
		for i := range batch {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[i].draw(bufs[i], tl.at(base+i))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i := range batch {
			if _, err := w.Write(bufs[i].Pix); err != nil {
				return fmt.Errorf("write frame %d: %w", base+i, err)
			}
		}

		if v.progress != nil {
			v.progress(base+batch, total)
		}
	}
	return nil
}

// Compile-time interface verification.
var _ Renderer = (*Video)(nil)
