package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/alnah/go-codevideo/internal/format"
)

// progressBarWidth is the number of cells in the terminal progress bar.
const progressBarWidth = 30

// progressReporter prints rendering progress to w. On a terminal it redraws
// a single bar in place; otherwise it prints a line every quarter.
type progressReporter struct {
	w     io.Writer
	tty   bool
	total int
	done  int
	step  int // last quarter printed in non-tty mode
}

func newProgressReporter(w io.Writer) *progressReporter {
	return &progressReporter{w: w, tty: isTerminal(w)}
}

// report matches video.ProgressFunc. Calls come from one goroutine.
func (p *progressReporter) report(done, total int) {
	p.done, p.total = done, total
	if total <= 0 {
		return
	}

	if p.tty {
		fmt.Fprintf(p.w, "\r  %s %d/%d frames", format.Progress(done, total, progressBarWidth), done, total)
		if done >= total {
			fmt.Fprintln(p.w)
		}
		return
	}

	if q := done * 4 / total; q > p.step {
		p.step = q
		fmt.Fprintf(p.w, "  %d%% (%d/%d frames)\n", q*25, done, total)
	}
}

// duration is the length of the rendered video, once the total is known.
func (p *progressReporter) duration(fps int) time.Duration {
	if fps <= 0 || p.total <= 0 {
		return 0
	}
	return time.Duration(p.total) * time.Second / time.Duration(fps)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// fileSize returns the size of a file in bytes.
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
