package video

import "math"

// epsilon absorbs float error when converting seconds to frame counts.
const epsilon = 1e-9

// maxFrames caps a single render. Frame indices stay well inside int.
const maxFrames = math.MaxInt32

// cursorBlinkHz is the number of on/off cursor cycles per second while the
// finished code is held on screen.
const cursorBlinkHz = 2

// frameState is what a single frame shows: every line before row in full,
// the first col runes of row, and optionally the cursor after them.
type frameState struct {
	row      int
	col      int
	cursorOn bool
}

// timeline maps frame indices to frame states.
// Line i is typed during [i*lineDuration, (i+1)*lineDuration), revealing its
// runes evenly; the complete text is then held for hold seconds.
type timeline struct {
	widths       []int
	fps          int
	lineDuration float64
	hold         float64
	showCursor   bool
}

// framesFor converts a duration in seconds to a whole number of frames,
// rounding up and saturating at maxFrames.
func framesFor(seconds float64, fps int) int {
	if !(seconds > 0) {
		return 0
	}
	f := math.Ceil(seconds*float64(fps) - epsilon)
	if f >= maxFrames {
		return maxFrames
	}
	return int(f)
}

// typingFrames is the number of frames spent revealing text.
func (t timeline) typingFrames() int {
	return framesFor(float64(len(t.widths))*t.lineDuration, t.fps)
}

// holdFrames is the number of frames the finished text stays on screen.
func (t timeline) holdFrames() int {
	return framesFor(t.hold, t.fps)
}

// frames is the total number of frames in the video, between one and maxFrames.
func (t timeline) frames() int {
	return min(maxFrames, max(1, t.typingFrames()+t.holdFrames()))
}

// at returns the state of frame i.
func (t timeline) at(i int) frameState {
	n := len(t.widths)
	typing := t.typingFrames()

	if n == 0 || i >= typing {
		st := frameState{}
		if n > 0 {
			st.row = n - 1
			st.col = t.widths[n-1]
		}
		st.cursorOn = t.showCursor && t.blinkOn(i-typing)
		return st
	}

	pos := float64(i) / (t.lineDuration * float64(t.fps))
	row := min(int(pos+epsilon), n-1)
	progress := max(0, pos-float64(row))

	w := t.widths[row]
	col := min(w, max(0, int(math.Ceil(progress*float64(w)-epsilon))))

	return frameState{row: row, col: col, cursorOn: t.showCursor}
}

// blinkOn reports whether the cursor is visible at frame offset i into the hold.
func (t timeline) blinkOn(i int) bool {
	phase := max(1, int(math.Round(float64(t.fps)/float64(2*cursorBlinkHz))))
	return (i/phase)%2 == 0
}
