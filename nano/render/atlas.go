package render

import (
	"image/color"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// AlphaThreshold is the opacity below which glyph fragments are discarded.
const AlphaThreshold = 0.01

// AlphaTest reports whether a sampled glyph fragment is kept.
func AlphaTest(alpha float32) bool { return alpha >= AlphaThreshold }

// BaseLetters are the runes every atlas carries.
const BaseLetters = "ACGTUN?"

// Glyph locates one rune in the atlas.
type Glyph struct {
	X, Y, W, H int
	U0, V0     float32
	U1, V1     float32
}

// Atlas is a single-channel coverage texture of bitmap font glyphs laid out
// in one row of equal cells.
type Atlas struct {
	W, H  int
	Alpha []uint8

	glyphs map[rune]Glyph
}

// DefaultAtlas rasterizes BaseLetters from the proggy bitmap font.
func DefaultAtlas() *Atlas {
	return NewAtlas(&proggy.TinySZ8pt7b, BaseLetters)
}

// NewAtlas rasterizes runes with font. Runes the font lacks get an empty
// cell, which the alpha test then discards entirely.
func NewAtlas(font tinyfont.Fonter, runes string) *Atlas {
	rs := []rune(runes)
	top, bottom, cellW := 0, 1, 1
	for _, r := range rs {
		info := font.GetGlyph(r).Info()
		top = min(top, int(info.YOffset))
		bottom = max(bottom, int(info.YOffset)+int(info.Height))
		cellW = max(cellW, int(info.XAdvance), int(info.XOffset)+int(info.Width))
	}
	// One texel of padding keeps nearest sampling from bleeding between cells.
	cellW += 2
	cellH := bottom - top + 2
	a := &Atlas{
		W:      cellW * max(len(rs), 1),
		H:      cellH,
		glyphs: make(map[rune]Glyph, len(rs)),
	}
	a.Alpha = make([]uint8, a.W*a.H)

	c := &atlasCanvas{a: a}
	for i, r := range rs {
		x := i * cellW
		c.clipX0, c.clipX1 = x, x+cellW
		tinyfont.DrawChar(c, font, int16(x+1), int16(1-top), r, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
		a.glyphs[r] = Glyph{
			X: x, Y: 0, W: cellW, H: cellH,
			U0: float32(x) / float32(a.W),
			V0: 0,
			U1: float32(x+cellW) / float32(a.W),
			V1: 1,
		}
	}
	return a
}

// Glyph returns the cell of r.
func (a *Atlas) Glyph(r rune) (Glyph, bool) {
	g, ok := a.glyphs[r]
	return g, ok
}

// Sample returns the coverage at texture coordinate (u, v) with nearest
// filtering. Coordinates outside [0,1] sample as transparent.
func (a *Atlas) Sample(u, v float32) float32 {
	if a == nil || u < 0 || v < 0 || u > 1 || v > 1 {
		return 0
	}
	x := int(u * float32(a.W))
	y := int(v * float32(a.H))
	if x >= a.W {
		x = a.W - 1
	}
	if y >= a.H {
		y = a.H - 1
	}
	return float32(a.Alpha[y*a.W+x]) / 255
}

// atlasCanvas adapts the atlas to drivers.Displayer for tinyfont.
type atlasCanvas struct {
	a              *Atlas
	clipX0, clipX1 int
}

func (c *atlasCanvas) Size() (x, y int16) { return int16(c.a.W), int16(c.a.H) }

func (c *atlasCanvas) SetPixel(x, y int16, col color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < c.clipX0 || ix >= c.clipX1 || iy < 0 || iy >= c.a.H {
		return
	}
	c.a.Alpha[iy*c.a.W+ix] = col.A
}

func (c *atlasCanvas) Display() error { return nil }
