// Package interrupt turns Ctrl+C into a two-step decision for long renders:
// the first press stops rendering and keeps the partial video, a second press
// within a short window discards it.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Decision is what the user chose to do with a stopped render.
type Decision int

const (
	// Keep leaves the finalized partial video on disk.
	Keep Decision = iota
	// Discard removes the partial video.
	Discard
)

// String returns the string representation of the Decision.
func (d Decision) String() string {
	switch d {
	case Keep:
		return "Keep"
	case Discard:
		return "Discard"
	default:
		return fmt.Sprintf("Decision(%d)", d)
	}
}

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// Window is how long after the first Ctrl+C a second one still discards.
const Window = 2 * time.Second

const stopMessage = "\nStopping (Ctrl+C again to discard the partial video)..."

// Handler cancels a context on the first interrupt and records a discard on
// a second interrupt within Window.
type Handler struct {
	mu          sync.Mutex
	first       time.Time
	interrupted bool
	discarded   bool
	stopped     bool
	cancel      context.CancelFunc
	discard     chan struct{} // closed on second interrupt
	done        chan struct{} // closed by Stop

	nowFunc func() time.Time
	stderr  io.Writer
	reset   func()
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh   <-chan os.Signal
	NowFunc func() time.Time
	// Stderr receives user-facing messages. It is written from the listener
	// goroutine, so it must tolerate concurrent writes.
	Stderr io.Writer
}

// NewHandler listens for SIGINT and SIGTERM. The returned context is
// canceled on the first signal.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	h, ctx := newHandler(parent, Options{SigCh: sigCh})
	h.reset = func() { signal.Stop(sigCh) }
	return h, ctx
}

// NewHandlerWithOptions creates a handler fed by opts.SigCh instead of the
// process signals.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	return newHandler(parent, opts)
}

func newHandler(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel:  cancel,
		discard: make(chan struct{}),
		done:    make(chan struct{}),
		nowFunc: opts.NowFunc,
		stderr:  opts.Stderr,
		reset:   func() {},
	}
	if h.nowFunc == nil {
		h.nowFunc = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if h.handle() {
				return
			}
		}
	}
}

// handle processes one signal and reports whether listening is over.
func (h *Handler) handle() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped || h.discarded {
		return true
	}
	now := h.nowFunc()

	if !h.interrupted {
		h.interrupted = true
		h.first = now
		h.cancel()
		fmt.Fprintln(h.stderr, stopMessage)
		return false
	}

	if now.Sub(h.first) <= Window {
		h.discarded = true
		close(h.discard)
		return true
	}
	return false
}

// Interrupted reports whether at least one interrupt was received.
func (h *Handler) Interrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// WaitForDecision blocks until the discard window after the first interrupt
// has passed or a second interrupt arrives. Without any interrupt it returns
// Keep immediately.
func (h *Handler) WaitForDecision() Decision {
	h.mu.Lock()
	if !h.interrupted {
		h.mu.Unlock()
		return Keep
	}
	if h.discarded {
		h.mu.Unlock()
		return Discard
	}
	remaining := Window - h.nowFunc().Sub(h.first)
	h.mu.Unlock()

	if remaining <= 0 {
		return Keep
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-h.discard:
		return Discard
	case <-timer.C:
		return Keep
	case <-h.done:
		return Keep
	}
}

// Stop releases the signal subscription and ends the listener. It is safe
// to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	h.reset()
	h.cancel()
	close(h.done)
}
