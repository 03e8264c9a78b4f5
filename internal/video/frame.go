package video

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Frame geometry.
const (
	fontSize    = 20
	lineSpacing = 8 // extra pixels between rows
	padding     = 32
	maxRows     = 24
	maxWidth    = 1920
	minWidth    = 640
	minHeight   = 360
	gutterGap   = 2 // columns between line numbers and code
)

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontsErr    error
)

// loadFonts parses the embedded Go Mono faces once per process.
func loadFonts() (*opentype.Font, *opentype.Font, error) {
	fontsOnce.Do(func() {
		regularFont, fontsErr = opentype.Parse(gomono.TTF)
		if fontsErr != nil {
			return
		}
		boldFont, fontsErr = opentype.Parse(gomonobold.TTF)
	})
	return regularFont, boldFont, fontsErr
}

// faces is a pair of font faces. A face caches glyphs and is not safe for
// concurrent use, so each rasterizer owns its own.
type faces struct {
	regular font.Face
	bold    font.Face
}

func newFaces() (faces, error) {
	reg, bold, err := loadFonts()
	if err != nil {
		return faces{}, fmt.Errorf("parse font: %w", err)
	}
	opts := &opentype.FaceOptions{Size: fontSize, DPI: 72, Hinting: font.HintingFull}

	r, err := opentype.NewFace(reg, opts)
	if err != nil {
		return faces{}, fmt.Errorf("create font face: %w", err)
	}
	b, err := opentype.NewFace(bold, opts)
	if err != nil {
		_ = r.Close()
		return faces{}, fmt.Errorf("create font face: %w", err)
	}
	return faces{regular: r, bold: b}, nil
}

func (f faces) Close() {
	_ = f.regular.Close()
	_ = f.bold.Close()
}

// layout is the pixel geometry shared by every frame of a render.
type layout struct {
	width      int
	height     int
	cellW      int
	lineH      int
	ascent     int
	gutterCols int
	rows       int
}

// newLayout sizes the canvas to fit the widest line and up to maxRows rows.
// Dimensions are even so the output can use 4:2:0 chroma subsampling.
func newLayout(face font.Face, lines []line) layout {
	adv, _ := face.GlyphAdvance('M')
	m := face.Metrics()

	lay := layout{
		cellW:  adv.Ceil(),
		lineH:  m.Height.Ceil() + lineSpacing,
		ascent: m.Ascent.Ceil(),
		rows:   min(max(len(lines), 1), maxRows),
	}
	lay.gutterCols = len(strconv.Itoa(max(len(lines), 1))) + gutterGap

	cols := 1
	for _, l := range lines {
		cols = max(cols, l.width())
	}
	// One extra cell leaves room for the cursor after the last rune.
	w := 2*padding + (lay.gutterCols+cols+1)*lay.cellW
	h := 2*padding + lay.rows*lay.lineH

	lay.width = even(min(max(w, minWidth), maxWidth))
	lay.height = even(max(h, minHeight))
	return lay
}

// visibleCols is how many code columns fit beside the gutter, leaving the
// cell the cursor needs after the last rune.
func (l layout) visibleCols() int {
	if l.cellW <= 0 {
		return 0
	}
	return max(0, (l.width-2*padding)/l.cellW-l.gutterCols-1)
}

func even(n int) int {
	return n + n%2
}

// rasterizer draws frame states onto RGBA images.
type rasterizer struct {
	lay   layout
	pal   palette
	lines []line
	faces faces
}

// draw renders st into dst, which must be lay.width x lay.height.
func (r *rasterizer) draw(dst *image.RGBA, st frameState) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.pal.bg), image.Point{}, draw.Src)

	// Scroll so the row being typed is the last visible one.
	first := 0
	if st.row >= r.lay.rows {
		first = st.row - r.lay.rows + 1
	}

	d := &font.Drawer{Dst: dst}
	for row := first; row <= st.row && row < len(r.lines); row++ {
		y := padding + (row-first)*r.lay.lineH + r.lay.ascent

		num := strconv.Itoa(row + 1)
		gx := padding + (r.lay.gutterCols-gutterGap-len(num))*r.lay.cellW
		r.text(d, num, r.pal.gutter, false, gx, y)

		limit := -1
		if row == st.row {
			limit = st.col
		}
		r.line(d, r.lines[row], limit, y)
	}

	if st.cursorOn {
		x := padding + (r.lay.gutterCols+st.col)*r.lay.cellW
		top := padding + (st.row-first)*r.lay.lineH + lineSpacing/2
		rect := image.Rect(x, top, x+r.lay.cellW, top+r.lay.lineH-lineSpacing)
		draw.Draw(dst, rect.Intersect(dst.Bounds()), image.NewUniform(r.pal.cursor), image.Point{}, draw.Src)
	}
}

// line draws the spans of l at baseline y, stopping after limit runes
// (limit < 0 draws everything).
func (r *rasterizer) line(d *font.Drawer, l line, limit, y int) {
	x := padding + r.lay.gutterCols*r.lay.cellW
	drawn := 0
	for _, s := range l {
		if limit >= 0 && drawn >= limit {
			return
		}
		runes := []rune(s.text)
		if limit >= 0 && drawn+len(runes) > limit {
			runes = runes[:limit-drawn]
		}
		r.text(d, string(runes), s.color, s.bold, x, y)
		x += len(runes) * r.lay.cellW
		drawn += len(runes)
	}
}

func (r *rasterizer) text(d *font.Drawer, s string, c color.RGBA, bold bool, x, y int) {
	if x >= r.lay.width {
		return
	}
	d.Face = r.faces.regular
	if bold {
		d.Face = r.faces.bold
	}
	d.Src = image.NewUniform(c)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}
