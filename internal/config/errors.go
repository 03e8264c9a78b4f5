package config

import "errors"

// ErrInvalidPreset indicates a preset file that cannot be read or parsed.
var ErrInvalidPreset = errors.New("invalid preset")
