package cli

import "errors"

// CLI-specific sentinel errors.
// These are input/usage errors that don't belong to domain packages.

var (
	// ErrFileNotFound indicates the input source file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInputUnreadable indicates the input exists but could not be read.
	ErrInputUnreadable = errors.New("cannot read input file")

	// ErrOutputExists indicates the output file already exists and
	// --no-clobber was given.
	ErrOutputExists = errors.New("output file already exists")

	// ErrUnknownConfigKey indicates a config key that is not supported.
	ErrUnknownConfigKey = errors.New("unknown config key")
)
