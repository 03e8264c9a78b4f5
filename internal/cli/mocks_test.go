package cli

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alnah/go-codevideo/internal/config"
	"github.com/alnah/go-codevideo/internal/interrupt"
	"github.com/alnah/go-codevideo/internal/video"
	"github.com/alnah/go-codevideo/internal/watch"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc func(ctx context.Context) (string, error)

	mu                sync.Mutex
	resolveCalls      int
	checkVersionCalls []string
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkVersionCalls = append(m.checkVersionCalls, ffmpegPath)
}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

// ---------------------------------------------------------------------------
// Mock RendererFactory + Renderer
// ---------------------------------------------------------------------------

// mockRenderer records every config it is asked to render. RenderFunc
// defaults to reporting progress for 54 frames and succeeding.
type mockRenderer struct {
	RenderFunc func(ctx context.Context, cfg video.Config, progress video.ProgressFunc) error

	mu      sync.Mutex
	configs []video.Config
}

func (m *mockRenderer) Configs() []video.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]video.Config(nil), m.configs...)
}

func (m *mockRenderer) RenderCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.configs)
}

type mockRendererFactory struct {
	renderer *mockRenderer

	mu          sync.Mutex
	ffmpegPaths []string
}

func (f *mockRendererFactory) NewRenderer(ffmpegPath string, logger *zap.Logger, progress video.ProgressFunc) video.Renderer {
	f.mu.Lock()
	f.ffmpegPaths = append(f.ffmpegPaths, ffmpegPath)
	f.mu.Unlock()
	return &boundRenderer{m: f.renderer, progress: progress}
}

// boundRenderer ties the shared mockRenderer to one factory call's progress
// callback.
type boundRenderer struct {
	m        *mockRenderer
	progress video.ProgressFunc
}

func (b *boundRenderer) Render(ctx context.Context, cfg video.Config) error {
	b.m.mu.Lock()
	b.m.configs = append(b.m.configs, cfg)
	b.m.mu.Unlock()

	if b.m.RenderFunc != nil {
		return b.m.RenderFunc(ctx, cfg, b.progress)
	}
	if b.progress != nil {
		b.progress(54, 54)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mock Watcher
// ---------------------------------------------------------------------------

// mockWatcher simulates Changes file changes, calling BeforeFn before each.
// Cancel, if set, runs after the last change to end the watch like Ctrl+C.
type mockWatcher struct {
	Changes  int
	BeforeFn func(i int)
	Cancel   func()

	mu    sync.Mutex
	paths []string
}

func (m *mockWatcher) Run(ctx context.Context, path string, fn watch.Func) error {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()

	for i := range m.Changes {
		if m.BeforeFn != nil {
			m.BeforeFn(i)
		}
		if err := fn(ctx); err != nil {
			return err
		}
	}
	if m.Cancel != nil {
		m.Cancel()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mock InterruptHandler
// ---------------------------------------------------------------------------

// mockInterrupt hands out a cancelable context; tests call Interrupt to
// simulate Ctrl+C and preset Decision for the second-press outcome.
type mockInterrupt struct {
	Decision interrupt.Decision

	mu          sync.Mutex
	cancel      context.CancelFunc
	interrupted bool
	stopped     bool
	decisions   int
}

func (m *mockInterrupt) factory(ctx context.Context) (InterruptHandler, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	return m, ctx
}

func (m *mockInterrupt) Interrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interrupted = true
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *mockInterrupt) Interrupted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interrupted
}

func (m *mockInterrupt) WaitForDecision() interrupt.Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions++
	return m.Decision
}

func (m *mockInterrupt) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.cancel != nil {
		m.cancel()
	}
}

// Compile-time interface verification.
var (
	_ FFmpegResolver   = (*mockFFmpegResolver)(nil)
	_ ConfigLoader     = (*mockConfigLoader)(nil)
	_ RendererFactory  = (*mockRendererFactory)(nil)
	_ Watcher          = (*mockWatcher)(nil)
	_ InterruptHandler = (*mockInterrupt)(nil)
)
