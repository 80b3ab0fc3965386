package render

import (
	"errors"
	"fmt"
	"image/color"

	"icednano/nano/design"
	"icednano/nano/geom"
	"icednano/nano/mode"
)

// ErrInvalidAspect is returned for a non-positive or non-finite aspect ratio.
var ErrInvalidAspect = errors.New("render: invalid aspect ratio")

// glyph billboards are this many pixels on a side.
const spaceGlyphPixels = 8

// Build3D derives the spatial draw list from helix poses. It reads d and
// never mutates it.
func Build3D(d *design.Design, cam geom.Camera, width, height int, atlas *Atlas) (DrawList, error) {
	if width <= 0 || height <= 0 {
		return DrawList{}, fmt.Errorf("build 3d %dx%d: %w", width, height, geom.ErrInvalidView)
	}
	aspect := float64(width) / float64(height)
	if !geom.Finite(aspect) {
		return DrawList{}, fmt.Errorf("build 3d: %w", ErrInvalidAspect)
	}
	vp := cam.ViewProj(aspect)
	var vp32 [16]float32
	for i, v := range vp {
		vp32[i] = float32(v)
	}
	dl := DrawList{
		View: mode.View3D,
		Uniforms: Uniforms{
			Space:       SpaceSpatial,
			Resolution:  [2]float32{float32(width), float32(height)},
			Zoom:        1,
			OffsetScale: 1,
			ViewProj:    vp32,
		},
	}

	for _, gid := range d.Grids() {
		g, _ := d.Grid(gid)
		coords := g.Coords()
		if len(coords) == 0 {
			continue
		}
		lo, hi := geom.Bounds(coords, 1)
		depth := geom.DepthIndex(geom.LayerGrid, 0)
		for y := lo.Y; y <= hi.Y; y++ {
			dl.Primitives = append(dl.Primitives, line3D(geom.LayerGrid,
				g.CellPosition(geom.Coord{X: lo.X, Y: y}), g.CellPosition(geom.Coord{X: hi.X, Y: y}), colorGrid, depth))
		}
		for x := lo.X; x <= hi.X; x++ {
			dl.Primitives = append(dl.Primitives, line3D(geom.LayerGrid,
				g.CellPosition(geom.Coord{X: x, Y: lo.Y}), g.CellPosition(geom.Coord{X: x, Y: hi.Y}), colorGrid, depth))
		}
	}

	for _, hid := range d.Helices() {
		h, _ := d.Helix(hid)
		lo, hi := d.HelixExtent(hid)
		dl.Primitives = append(dl.Primitives, line3D(geom.LayerHelix,
			h.AxisPoint(lo), h.AxisPoint(hi), colorHelix, geom.DepthIndex(geom.LayerHelix, 0)))
	}

	colors := chainColors(d)
	for _, sid := range d.Strands() {
		s, _ := d.Strand(sid)
		h, ok := d.Helix(s.Helix)
		if !ok {
			continue
		}
		c := colors[sid]
		p := Primitive{Kind: KindLines, Layer: geom.LayerStrand}
		depth := geom.DepthIndex(geom.LayerStrand, 0)
		for pos := s.Range.Start; pos <= s.Range.End; pos++ {
			p.Vertices = append(p.Vertices, Vertex{
				Position:   f32x3(h.SlotPosition(pos, s.Range.Forward)),
				Color:      c,
				DepthIndex: depth,
				Width:      1,
			})
			if pos > s.Range.Start {
				n := uint32(len(p.Vertices))
				p.Indices = append(p.Indices, n-2, n-1)
			}
		}
		dl.Primitives = append(dl.Primitives, p)

		if s.Sequence == "" || atlas == nil {
			continue
		}
		for pos := s.Range.Start; pos <= s.Range.End; pos++ {
			letter := s.BaseAt(pos)
			g, ok := atlas.Glyph(rune(letter))
			if letter == 0 || !ok {
				continue
			}
			dl.Primitives = append(dl.Primitives, billboard(h.SlotPosition(pos, s.Range.Forward), rune(letter), g))
		}
	}

	for _, xid := range d.CrossOvers() {
		c, _ := d.CrossOver(xid)
		a, errA := slotOf(d, c.From)
		b, errB := slotOf(d, c.To)
		if errA != nil || errB != nil {
			continue
		}
		dl.Primitives = append(dl.Primitives, line3D(geom.LayerCrossOver, a, b, colorCrossOver, geom.DepthIndex(geom.LayerCrossOver, 0)))
	}
	return dl, nil
}

func slotOf(d *design.Design, e design.StrandEnd) (geom.Vec3, error) {
	info, err := d.End(e)
	if err != nil {
		return geom.Vec3{}, err
	}
	return d.SlotPosition(info.Helix, info.Pos, info.Forward)
}

func line3D(layer geom.Layer, a, b geom.Vec3, c color.RGBA, depth uint32) Primitive {
	return Primitive{
		Kind:  KindLines,
		Layer: layer,
		Vertices: []Vertex{
			{Position: f32x3(a), Color: c, DepthIndex: depth, Width: 1},
			{Position: f32x3(b), Color: c, DepthIndex: depth, Width: 1},
		},
		Indices: []uint32{0, 1},
	}
}

// billboard is a screen-aligned glyph quad anchored at a 3D point. Normals
// hold the pixel offsets of the corners.
func billboard(at geom.Vec3, r rune, g Glyph) Primitive {
	h := float32(spaceGlyphPixels) / 2
	depth := geom.DepthIndex(geom.LayerGlyph, 0)
	pos := f32x3(at)
	corners := [4]struct {
		dx, dy float32
		u, v   float32
	}{
		{-h, -h, g.U0, g.V0},
		{h, -h, g.U1, g.V0},
		{-h, h, g.U0, g.V1},
		{h, h, g.U1, g.V1},
	}
	p := Primitive{Kind: KindGlyph, Layer: geom.LayerGlyph, Glyph: r}
	for _, c := range corners {
		p.Vertices = append(p.Vertices, Vertex{
			Position:   pos,
			Normal:     [3]float32{c.dx, c.dy, 0},
			Color:      colorGlyph,
			DepthIndex: depth,
			Width:      1,
			TexCoord:   [2]float32{c.u, c.v},
		})
	}
	p.Indices = []uint32{0, 1, 2, 1, 3, 2}
	return p
}
