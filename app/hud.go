package app

import (
	"image/color"
	"unicode/utf8"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"icednano/nano/nanogl"
)

var (
	hudFont       tinyfont.Fonter = &proggy.TinySZ8pt7b
	hudBackground                 = color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}
	hudForeground                 = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
)

// hudDisplay lets tinyfont draw into a nanogl target.
type hudDisplay struct {
	t nanogl.Target
}

var _ drivers.Displayer = hudDisplay{}

func (d hudDisplay) Size() (x, y int16) {
	w, h := d.t.Size()
	return int16(w), int16(h)
}

func (d hudDisplay) SetPixel(x, y int16, c color.RGBA) { d.t.SetPixel(int(x), int(y), c) }

func (d hudDisplay) Display() error { return nil }

// drawHUD clears t and writes line on it, cut to what fits.
func drawHUD(t nanogl.Target, line string) {
	t.Clear(hudBackground)
	w, h := t.Size()
	_, adv := tinyfont.LineWidth(hudFont, "0")
	if adv == 0 || h <= 0 {
		return
	}
	cols := (w - 4) / int(adv)
	text, _ := takeRunes(line, cols)
	tinyfont.WriteLine(hudDisplay{t: t}, hudFont, 2, int16(h-3), text, hudForeground)
}

// takeRunes splits s after n runes.
func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	i, count := 0, 0
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
