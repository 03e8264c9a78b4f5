package cli

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/alnah/go-codevideo/internal/config"
	"github.com/alnah/go-codevideo/internal/ffmpeg"
	"github.com/alnah/go-codevideo/internal/interrupt"
	"github.com/alnah/go-codevideo/internal/video"
	"github.com/alnah/go-codevideo/internal/watch"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have defaults via DefaultEnv(). Tests override specific fields
// using the With* options or by building an Env directly.
//
// Env must not be nil when passed to command functions.
type Env struct {
	// I/O and environment
	Stderr   io.Writer
	Getenv   func(string) string
	ReadFile func(string) ([]byte, error)

	// Logger receives diagnostics. main replaces it once flags are parsed.
	Logger *zap.Logger

	// Collaborators
	FFmpegResolver   FFmpegResolver
	ConfigLoader     ConfigLoader
	RendererFactory  RendererFactory
	Watcher          Watcher
	InterruptFactory InterruptFactory
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve(ctx context.Context) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads user configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// RendererFactory creates renderers bound to an encoder binary.
type RendererFactory interface {
	NewRenderer(ffmpegPath string, logger *zap.Logger, progress video.ProgressFunc) video.Renderer
}

// Watcher calls fn after each settled change to path until ctx is done.
type Watcher interface {
	Run(ctx context.Context, path string, fn watch.Func) error
}

// InterruptHandler reports what the user wants done with a stopped render.
type InterruptHandler interface {
	Interrupted() bool
	WaitForDecision() interrupt.Decision
	Stop()
}

// InterruptFactory installs an interrupt handler. The returned context is
// canceled on the first interrupt.
type InterruptFactory func(ctx context.Context) (InterruptHandler, context.Context)

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithReadFile sets the function used to read the input file.
func WithReadFile(fn func(string) ([]byte, error)) EnvOption {
	return func(e *Env) {
		e.ReadFile = fn
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) EnvOption {
	return func(e *Env) {
		e.Logger = l
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithRendererFactory sets the renderer factory.
func WithRendererFactory(f RendererFactory) EnvOption {
	return func(e *Env) {
		e.RendererFactory = f
	}
}

// WithWatcher sets the file watcher used by --watch.
func WithWatcher(w Watcher) EnvOption {
	return func(e *Env) {
		e.Watcher = w
	}
}

// WithInterruptFactory sets the interrupt handler factory.
func WithInterruptFactory(f InterruptFactory) EnvOption {
	return func(e *Env) {
		e.InterruptFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	env := &Env{
		Stderr:           os.Stderr,
		Getenv:           os.Getenv,
		ReadFile:         os.ReadFile,
		Logger:           zap.NewNop(),
		FFmpegResolver:   &defaultFFmpegResolver{},
		ConfigLoader:     &defaultConfigLoader{},
		RendererFactory:  &defaultRendererFactory{},
		InterruptFactory: defaultInterruptFactory,
	}
	env.Watcher = &defaultWatcher{env: env}
	return env
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// logger never returns nil, so commands can log on a hand-built Env.
func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	return ffmpeg.Resolve(ctx)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.CheckVersion(ctx, ffmpegPath)
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultRendererFactory struct{}

func (defaultRendererFactory) NewRenderer(ffmpegPath string, logger *zap.Logger, progress video.ProgressFunc) video.Renderer {
	return video.New(ffmpegPath, video.WithLogger(logger), video.WithProgress(progress))
}

// defaultWatcher logs through its Env so it picks up the logger main
// installs after flag parsing.
type defaultWatcher struct {
	env *Env
}

func (w defaultWatcher) Run(ctx context.Context, path string, fn watch.Func) error {
	return watch.New(watch.WithLogger(w.env.logger())).Run(ctx, path, fn)
}

func defaultInterruptFactory(ctx context.Context) (InterruptHandler, context.Context) {
	return interrupt.NewHandler(ctx)
}

// Compile-time interface verification.
var (
	_ FFmpegResolver   = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader     = (*defaultConfigLoader)(nil)
	_ RendererFactory  = (*defaultRendererFactory)(nil)
	_ Watcher          = (*defaultWatcher)(nil)
	_ InterruptHandler = (*interrupt.Handler)(nil)
	_ InterruptFactory = defaultInterruptFactory
)
