package video

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// Themes returns the names of all registered highlighting styles, sorted.
func Themes() []string {
	return styles.Names()
}

// Style returns the highlighting style registered under name.
// Unlike styles.Get, it never falls back silently.
func Style(name string) (*chroma.Style, error) {
	s, ok := styles.Registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: %q (run 'codevideo themes' for the list)", ErrUnknownTheme, name)
	}
	return s, nil
}

// ThemeColors returns the background and foreground of a theme as #rrggbb strings.
func ThemeColors(name string) (bg, fg string, err error) {
	s, err := Style(name)
	if err != nil {
		return "", "", err
	}
	p := newPalette(s)
	return hex(p.bg), hex(p.fg), nil
}

// palette holds the fixed colours of a frame; token colours come from the style.
type palette struct {
	bg     color.RGBA
	fg     color.RGBA
	gutter color.RGBA
	cursor color.RGBA
}

func newPalette(s *chroma.Style) palette {
	bgEntry := s.Get(chroma.Background)

	p := palette{
		bg: color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff},
		fg: color.RGBA{R: 0xe6, G: 0xe6, B: 0xe6, A: 0xff},
	}
	if bgEntry.Background.IsSet() {
		p.bg = rgba(bgEntry.Background)
	}
	if bgEntry.Colour.IsSet() {
		p.fg = rgba(bgEntry.Colour)
	} else if luminance(p.bg) > 0.5 {
		p.fg = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	}

	p.gutter = mix(p.fg, p.bg, 0.45)
	if ln := s.Get(chroma.LineNumbers); ln.Colour.IsSet() && ln.Colour != bgEntry.Colour {
		p.gutter = rgba(ln.Colour)
	}

	p.cursor = p.fg
	return p
}

// tokenColour resolves the foreground for a token type, falling back to the palette.
func (p palette) tokenColour(s *chroma.Style, t chroma.TokenType) (color.RGBA, bool) {
	e := s.Get(t)
	c := p.fg
	if e.Colour.IsSet() {
		c = rgba(e.Colour)
	}
	return c, e.Bold == chroma.Yes
}

func rgba(c chroma.Colour) color.RGBA {
	return color.RGBA{R: c.Red(), G: c.Green(), B: c.Blue(), A: 0xff}
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// luminance approximates perceived brightness in [0, 1].
func luminance(c color.RGBA) float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

// mix blends a toward b by t in [0, 1].
func mix(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 0xff}
}
