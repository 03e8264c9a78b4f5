package video

// Default values used when the invocation supplies nothing else.
const (
	DefaultInput        = "eg.py"
	DefaultLanguage     = "python"
	DefaultOutput       = "hello.mp4"
	DefaultFPS          = 30
	DefaultTheme        = "dracula"
	DefaultShowCursor   = true
	DefaultLineDuration = 0.8
)

// Config describes a single render: the code to animate and how to present it.
// A Config is built once and passed by value; the renderer never modifies it.
type Config struct {
	// Code is the source text, exactly as read from the input file.
	Code string
	// Language selects the lexer (e.g. "python", "go").
	Language string
	// Output is the video file to write. Its extension picks the container.
	Output string
	// FPS is the frame rate of the output video.
	FPS int
	// Theme is a highlighting style name (see Themes).
	Theme string
	// ShowCursor draws a block cursor at the typing position.
	ShowCursor bool
	// LineDuration is the time spent typing each line, in seconds.
	LineDuration float64
}

// Defaults returns a Config for code with every other field at its default.
func Defaults(code string) Config {
	return Config{
		Code:         code,
		Language:     DefaultLanguage,
		Output:       DefaultOutput,
		FPS:          DefaultFPS,
		Theme:        DefaultTheme,
		ShowCursor:   DefaultShowCursor,
		LineDuration: DefaultLineDuration,
	}
}
