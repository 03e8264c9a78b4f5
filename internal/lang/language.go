package lang

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Normalize lowercases a language identifier and strips surrounding space
// and a leading dot, so ".PY" and " py " both become "py".
func Normalize(name string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// Lexer returns the lexer for a language name, alias or file extension.
// Accepts: "python", "Python", "py", ".py", "golang", "go".
func Lexer(name string) (chroma.Lexer, error) {
	normalized := Normalize(name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: no language given", ErrInvalid)
	}

	l := lexers.Get(normalized)
	if l == nil {
		return nil, fmt.Errorf("%w: %q (run 'codevideo languages' for the list)", ErrInvalid, name)
	}
	return l, nil
}

// Canonical returns the lowercase registry name for a language.
// Examples: "py" -> "python", "golang" -> "go".
func Canonical(name string) (string, error) {
	l, err := Lexer(name)
	if err != nil {
		return "", err
	}
	return strings.ToLower(l.Config().Name), nil
}

// Names returns the lowercase names of every registered lexer, sorted.
func Names() []string {
	names := lexers.Names(false)
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.ToLower(n))
	}
	slices.Sort(out)
	return slices.Compact(out)
}
