package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alnah/go-codevideo/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	renderer       *mockRenderer
	factory        *mockRendererFactory
	watcher        *mockWatcher
	interrupt      *mockInterrupt
	stderr         *syncBuffer
}

// testEnv creates an Env with every collaborator mocked. ReadFile is the
// real os.ReadFile so tests work on temp files.
func testEnv() (*Env, *testMocks) {
	r := &mockRenderer{}
	m := &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		renderer:       r,
		factory:        &mockRendererFactory{renderer: r},
		watcher:        &mockWatcher{},
		interrupt:      &mockInterrupt{},
		stderr:         &syncBuffer{},
	}

	env := NewEnv(
		WithStderr(m.stderr),
		WithGetenv(staticEnv(nil)),
		WithReadFile(os.ReadFile),
		WithFFmpegResolver(m.ffmpegResolver),
		WithConfigLoader(m.configLoader),
		WithRendererFactory(m.factory),
		WithWatcher(m.watcher),
		WithInterruptFactory(m.interrupt.factory),
	)
	return env, m
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// writeSource writes content to name inside a fresh temp dir and returns
// its path.
func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// configWith returns a ConfigLoader that yields cfg.
func configWith(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) { return cfg, nil },
	}
}

// flagsSet returns a changed-flag predicate reporting the given names.
func flagsSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}
