package lang

import "errors"

// ErrInvalid indicates the source language has no registered lexer.
var ErrInvalid = errors.New("unknown source language")
