package video

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
)

// tabWidth is the number of columns a tab advances to.
const tabWidth = 4

// span is a run of text drawn with a single colour and weight.
type span struct {
	text  string
	color color.RGBA
	bold  bool
}

// line is one row of highlighted source.
type line []span

// width returns the number of runes in the line.
func (l line) width() int {
	n := 0
	for _, s := range l {
		n += utf8.RuneCountInString(s.text)
	}
	return n
}

// highlight tokenises code and splits it into coloured lines.
// Tabs are expanded and CRLF is folded to LF; a trailing newline does not
// produce an extra empty line.
func highlight(code string, lexer chroma.Lexer, style *chroma.Style, pal palette) ([]line, error) {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	if code == "" {
		return nil, nil
	}
	code = expandTabs(code)

	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return nil, fmt.Errorf("tokenise source: %w", err)
	}

	var (
		out []line
		cur line
	)
	for _, tok := range it.Tokens() {
		c, bold := pal.tokenColour(style, tok.Type)
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				out = append(out, cur)
				cur = nil
			}
			if part != "" {
				cur = append(cur, span{text: part, color: c, bold: bold})
			}
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out, nil
}

// expandTabs replaces each tab with spaces up to the next tab stop.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
