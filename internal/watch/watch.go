// Package watch re-runs a callback when a file changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before a change fires.
const DefaultDebounce = 300 * time.Millisecond

// ErrWatch indicates the watcher could not be set up.
var ErrWatch = errors.New("cannot watch file")

// Func is called once per settled burst of changes.
type Func func(ctx context.Context) error

// Watcher watches a single file through its parent directory, so editors
// that save by writing a temp file and renaming it over the original are
// still seen.
type Watcher struct {
	debounce time.Duration
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New returns a Watcher.
func New(opts ...Option) *Watcher {
	w := &Watcher{debounce: DefaultDebounce, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done, calling fn after each change to path.
// It returns nil on cancellation and fn's error if fn fails.
func (w *Watcher) Run(ctx context.Context, path string, fn Func) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatch, err)
	}
	dir := filepath.Dir(abs)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatch, err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWatch, dir, err)
	}
	w.logger.Debug("watching", zap.String("path", abs))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !relevant(ev.Op) {
				continue
			}
			w.logger.Debug("change", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
