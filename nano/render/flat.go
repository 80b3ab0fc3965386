package render

import (
	"fmt"
	"image/color"

	"icednano/nano/design"
	"icednano/nano/flat"
	"icednano/nano/geom"
	"icednano/nano/mode"
)

// Widths of the schematic, in world units.
const (
	flatGridWidth      = 0.05
	flatHelixWidth     = 0.08
	flatStrandWidth    = 0.25
	flatCrossOverWidth = 0.15
	flatGlyphSize      = 0.8
	flatEndMarker      = 0.45
)

// Overlay carries transient gesture state drawn on the candidate layer.
type Overlay struct {
	// Highlight lists strand ends to mark, such as the drag origin and the
	// candidate under the pointer.
	Highlight []design.EndInfo
	// Dragging draws a rubber band from DragFrom to DragTo (screen pixels).
	Dragging bool
	DragFrom design.EndInfo
	DragTo   geom.Vec2
}

// Build2D derives the schematic draw list. It reads d and never mutates it.
func Build2D(d *design.Design, v geom.ViewState, atlas *Atlas, ov Overlay) (DrawList, error) {
	if err := v.Validate(); err != nil {
		return DrawList{}, fmt.Errorf("build 2d: %w", err)
	}
	dl := DrawList{
		View: mode.View2D,
		Uniforms: Uniforms{
			Space:       SpaceFlat,
			Resolution:  [2]float32{float32(v.Resolution.X), float32(v.Resolution.Y)},
			Scroll:      [2]float32{float32(v.Scroll.X), float32(v.Scroll.Y)},
			Zoom:        float32(v.Zoom),
			OffsetScale: 0.5,
			ViewProj:    identity32(),
		},
	}
	layout := flat.New(d)
	colors := chainColors(d)

	for _, h := range layout.Helices() {
		lo, hi := d.HelixExtent(h)
		row, _ := layout.Row(h)
		y := flat.RowY(row)

		var grid Primitive
		grid.Kind, grid.Layer = KindTriangles, geom.LayerGrid
		appendSegment(&grid, geom.V2(float64(lo)*flat.BaseWidth, y), geom.V2(float64(hi+1)*flat.BaseWidth, y), flatGridWidth, colorGrid, geom.DepthIndex(geom.LayerGrid, 0))
		dl.Primitives = append(dl.Primitives, grid)

		a, b, _ := layout.HelixBox(h, lo, hi)
		var box Primitive
		box.Kind, box.Layer = KindTriangles, geom.LayerHelix
		depth := geom.DepthIndex(geom.LayerHelix, 0)
		corners := [4]geom.Vec2{a, geom.V2(b.X, a.Y), b, geom.V2(a.X, b.Y)}
		for i := range corners {
			appendSegment(&box, corners[i], corners[(i+1)%4], flatHelixWidth, colorHelix, depth)
		}
		dl.Primitives = append(dl.Primitives, box)
	}

	for _, sid := range d.Strands() {
		s, _ := d.Strand(sid)
		row, ok := layout.Row(s.Helix)
		if !ok {
			continue
		}
		c := colors[sid]
		five := flat.SlotAt(row, s.Range.FivePrime(), s.Range.Forward)
		three := flat.SlotAt(row, s.Range.ThreePrime(), s.Range.Forward)

		var p Primitive
		p.Kind, p.Layer = KindTriangles, geom.LayerStrand
		depth := geom.DepthIndex(geom.LayerStrand, 0)
		appendSegment(&p, five, three, flatStrandWidth, c, depth)
		appendSquare(&p, five, flatEndMarker, c, depth)
		appendArrow(&p, three, s.Range.Forward, flatEndMarker, c, depth)
		dl.Primitives = append(dl.Primitives, p)

		if s.Sequence == "" || atlas == nil {
			continue
		}
		for pos := s.Range.Start; pos <= s.Range.End; pos++ {
			letter := s.BaseAt(pos)
			if letter == 0 {
				continue
			}
			g, ok := atlas.Glyph(rune(letter))
			if !ok {
				continue
			}
			dl.Primitives = append(dl.Primitives, glyphQuad2D(flat.SlotAt(row, pos, s.Range.Forward), rune(letter), g))
		}
	}

	for _, xid := range d.CrossOvers() {
		c, _ := d.CrossOver(xid)
		from, err1 := d.End(c.From)
		to, err2 := d.End(c.To)
		if err1 != nil || err2 != nil {
			continue
		}
		a, okA := layout.End(from)
		b, okB := layout.End(to)
		if !okA || !okB {
			continue
		}
		var p Primitive
		p.Kind, p.Layer = KindTriangles, geom.LayerCrossOver
		appendSegment(&p, a, b, flatCrossOverWidth, colorCrossOver, geom.DepthIndex(geom.LayerCrossOver, 0))
		dl.Primitives = append(dl.Primitives, p)
	}

	depth := geom.DepthIndex(geom.LayerCandidate, 0)
	for _, e := range ov.Highlight {
		p, ok := layout.End(e)
		if !ok {
			continue
		}
		var prim Primitive
		prim.Kind, prim.Layer = KindTriangles, geom.LayerCandidate
		appendSquare(&prim, p, flatEndMarker*1.6, colorCandidate, depth)
		dl.Primitives = append(dl.Primitives, prim)
	}
	if ov.Dragging {
		if a, ok := layout.End(ov.DragFrom); ok {
			var prim Primitive
			prim.Kind, prim.Layer = KindTriangles, geom.LayerCandidate
			appendSegment(&prim, a, v.ToWorld(ov.DragTo), flatCrossOverWidth, colorCandidate, depth)
			dl.Primitives = append(dl.Primitives, prim)
		}
	}
	return dl, nil
}

// chainColors gives every strand of a logical strand the same color, keyed
// by the chain head.
func chainColors(d *design.Design) map[design.StrandID]color.RGBA {
	out := make(map[design.StrandID]color.RGBA)
	for _, sid := range d.Strands() {
		if _, done := out[sid]; done {
			continue
		}
		chain, _, err := d.Chain(sid)
		if err != nil || len(chain) == 0 {
			continue
		}
		c := strandColor(chain[0].Index)
		for _, s := range chain {
			out[s] = c
		}
	}
	return out
}

// appendSegment adds a thick line as a quad. Each endpoint is emitted twice
// with opposite normals; the backend offsets them by OffsetScale*Width.
func appendSegment(p *Primitive, a, b geom.Vec2, width float64, c color.RGBA, depth uint32) {
	dir := b.Sub(a)
	l := dir.Len()
	if l == 0 {
		return
	}
	n := geom.V2(-dir.Y/l, dir.X/l)
	base := uint32(len(p.Vertices))
	for _, pt := range [2]geom.Vec2{a, b} {
		for _, s := range [2]float64{1, -1} {
			p.Vertices = append(p.Vertices, Vertex{
				Position:   f32x2(pt),
				Normal:     f32x2(n.Mul(s)),
				Color:      c,
				DepthIndex: depth,
				Width:      float32(width),
			})
		}
	}
	p.Indices = append(p.Indices, base, base+1, base+2, base+1, base+3, base+2)
}

// appendSquare adds an axis-aligned square of side size centered on at.
func appendSquare(p *Primitive, at geom.Vec2, size float64, c color.RGBA, depth uint32) {
	h := size / 2
	appendSegment(p, geom.V2(at.X-h, at.Y), geom.V2(at.X+h, at.Y), size, c, depth)
}

// appendArrow adds a triangle pointing in the 5'->3' direction at the 3' end.
func appendArrow(p *Primitive, at geom.Vec2, forward bool, size float64, c color.RGBA, depth uint32) {
	dx := size
	if !forward {
		dx = -size
	}
	base := uint32(len(p.Vertices))
	for _, pt := range [3]geom.Vec2{
		geom.V2(at.X+dx, at.Y),
		geom.V2(at.X-dx/2, at.Y-size),
		geom.V2(at.X-dx/2, at.Y+size),
	} {
		p.Vertices = append(p.Vertices, Vertex{Position: f32x2(pt), Color: c, DepthIndex: depth})
	}
	p.Indices = append(p.Indices, base, base+1, base+2)
}

func glyphQuad2D(at geom.Vec2, r rune, g Glyph) Primitive {
	h := flatGlyphSize / 2
	depth := geom.DepthIndex(geom.LayerGlyph, 0)
	corners := [4]struct {
		p    geom.Vec2
		u, v float32
	}{
		{geom.V2(at.X-h, at.Y-h), g.U0, g.V0},
		{geom.V2(at.X+h, at.Y-h), g.U1, g.V0},
		{geom.V2(at.X-h, at.Y+h), g.U0, g.V1},
		{geom.V2(at.X+h, at.Y+h), g.U1, g.V1},
	}
	p := Primitive{Kind: KindGlyph, Layer: geom.LayerGlyph, Glyph: r}
	for _, c := range corners {
		p.Vertices = append(p.Vertices, Vertex{
			Position:   f32x2(c.p),
			Color:      colorGlyph,
			DepthIndex: depth,
			TexCoord:   [2]float32{c.u, c.v},
		})
	}
	p.Indices = []uint32{0, 1, 2, 1, 3, 2}
	return p
}

func identity32() [16]float32 {
	return [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}
