package interrupt_test

// Notes:
// - Signals are injected through Options.SigCh; the real NewHandler is only
//   checked for construction and Stop.
// - The clock is a settable fakeClock so the discard window is deterministic.
//   WaitForDecision still sleeps on a real timer for the remaining window, so
//   tests place "now" just before the window ends to keep them fast.
// - ctx.Done() confirms the first signal was processed before sending the next.

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-codevideo/internal/interrupt"
)

// syncBuffer is a bytes.Buffer safe for writes from the listener goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should be canceled after first signal")
	}
}

// ---------------------------------------------------------------------------
// TestNewHandler - Default constructor
// ---------------------------------------------------------------------------

func TestNewHandler(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandler(context.Background())

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled before any signal")
	default:
	}
	if h.Interrupted() {
		t.Error("Interrupted() = true before any signal")
	}
	if got := h.WaitForDecision(); got != interrupt.Keep {
		t.Errorf("WaitForDecision() without signal = %v, want Keep", got)
	}

	h.Stop()
	h.Stop()
}

// ---------------------------------------------------------------------------
// TestHandler_FirstInterrupt - Single signal cancels and keeps
// ---------------------------------------------------------------------------

func TestHandler_FirstInterrupt(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	clock := newFakeClock()
	var stderr syncBuffer

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:   sigCh,
		NowFunc: clock.Now,
		Stderr:  &stderr,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitDone(t, ctx)

	if !h.Interrupted() {
		t.Error("Interrupted() = false after first signal")
	}
	if !strings.Contains(stderr.String(), "Ctrl+C again to discard") {
		t.Errorf("stderr = %q, want discard hint", stderr.String())
	}

	// Place the clock at the edge of the window so the wait is short.
	clock.Advance(interrupt.Window - 20*time.Millisecond)
	if got := h.WaitForDecision(); got != interrupt.Keep {
		t.Errorf("WaitForDecision() = %v, want Keep", got)
	}
}

// ---------------------------------------------------------------------------
// TestHandler_SecondInterrupt - Within window discards, after window does not
// ---------------------------------------------------------------------------

func TestHandler_SecondInterrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		after time.Duration
		want  interrupt.Decision
	}{
		{name: "within window", after: time.Second, want: interrupt.Discard},
		{name: "after window", after: interrupt.Window + time.Millisecond, want: interrupt.Keep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sigCh := make(chan os.Signal, 2)
			clock := newFakeClock()

			h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
				SigCh:   sigCh,
				NowFunc: clock.Now,
				Stderr:  &syncBuffer{},
			})
			defer h.Stop()

			sigCh <- os.Interrupt
			waitDone(t, ctx)

			clock.Advance(tt.after)
			sigCh <- os.Interrupt

			if got := h.WaitForDecision(); got != tt.want {
				t.Errorf("WaitForDecision() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandler_DiscardWhileWaiting(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	clock := newFakeClock()

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:   sigCh,
		NowFunc: clock.Now,
		Stderr:  &syncBuffer{},
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitDone(t, ctx)

	got := make(chan interrupt.Decision, 1)
	go func() { got <- h.WaitForDecision() }()

	sigCh <- os.Interrupt

	select {
	case d := <-got:
		if d != interrupt.Discard {
			t.Errorf("WaitForDecision() = %v, want Discard", d)
		}
	case <-time.After(interrupt.Window + time.Second):
		t.Fatal("WaitForDecision() did not return")
	}
}

// ---------------------------------------------------------------------------
// TestHandler_Stop - Ends listener and pending waits
// ---------------------------------------------------------------------------

func TestHandler_StopReleasesWait(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:   sigCh,
		NowFunc: newFakeClock().Now,
		Stderr:  &syncBuffer{},
	})

	sigCh <- os.Interrupt
	waitDone(t, ctx)

	got := make(chan interrupt.Decision, 1)
	go func() { got <- h.WaitForDecision() }()

	h.Stop()

	select {
	case d := <-got:
		if d != interrupt.Keep {
			t.Errorf("WaitForDecision() after Stop = %v, want Keep", d)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForDecision() did not return after Stop")
	}
}

func TestHandler_StopCancelsContext(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{})
	h.Stop()

	select {
	case <-ctx.Done():
	default:
		t.Error("context should be canceled after Stop")
	}
	if h.Interrupted() {
		t.Error("Stop should not count as an interrupt")
	}
}

func TestHandler_ClosedSignalChannel(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal)
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{SigCh: sigCh})
	defer h.Stop()

	close(sigCh)

	select {
	case <-ctx.Done():
		t.Error("closing the signal channel should not cancel the context")
	case <-time.After(20 * time.Millisecond):
	}
}

// ---------------------------------------------------------------------------
// TestDecision_String
// ---------------------------------------------------------------------------

func TestDecision_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   interrupt.Decision
		want string
	}{
		{in: interrupt.Keep, want: "Keep"},
		{in: interrupt.Discard, want: "Discard"},
		{in: interrupt.Decision(7), want: "Decision(7)"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", int(tt.in), got, tt.want)
		}
	}
}
