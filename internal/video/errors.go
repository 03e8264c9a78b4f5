package video

import "errors"

// ErrInvalidFPS indicates a frame rate that is zero or negative.
var ErrInvalidFPS = errors.New("frame rate must be positive")

// ErrInvalidLineDuration indicates a per-line duration that is not a positive, finite number.
var ErrInvalidLineDuration = errors.New("line duration must be a positive number of seconds")

// ErrUnknownTheme indicates the theme name is not a registered style.
var ErrUnknownTheme = errors.New("unknown theme")

// ErrUnsupportedContainer indicates the output extension has no encoder mapping.
var ErrUnsupportedContainer = errors.New("unsupported output container")

// ErrNoOutput indicates an empty output path.
var ErrNoOutput = errors.New("output path is empty")

// ErrTooManyFrames indicates settings that would need more frames than a video can hold.
var ErrTooManyFrames = errors.New("video exceeds the frame limit")
