package nanogl

import (
	"image/color"
	"slices"
	"testing"

	"icednano/nano/design"
	"icednano/nano/geom"
	"icednano/nano/render"
)

var (
	red  = color.RGBA{R: 0xff, A: 0xff}
	blue = color.RGBA{B: 0xff, A: 0xff}
)

// quad is a flat square of half-size h around the world origin.
func quad(layer geom.Layer, h float32, c color.RGBA) render.Primitive {
	p := render.Primitive{Kind: render.KindTriangles, Layer: layer}
	for _, xy := range [4][2]float32{{-h, -h}, {h, -h}, {-h, h}, {h, h}} {
		p.Vertices = append(p.Vertices, render.Vertex{
			Position:   [3]float32{xy[0], xy[1], 0},
			Color:      c,
			DepthIndex: geom.DepthIndex(layer, 0),
			TexCoord:   [2]float32{(xy[0]/h + 1) / 2, (xy[1]/h + 1) / 2},
		})
	}
	p.Indices = []uint32{0, 1, 2, 1, 3, 2}
	return p
}

func flatList(w, h int, zoom float32, prims ...render.Primitive) render.DrawList {
	return render.DrawList{
		Uniforms: render.Uniforms{
			Space:       render.SpaceFlat,
			Resolution:  [2]float32{float32(w), float32(h)},
			Zoom:        zoom,
			OffsetScale: 0.5,
		},
		Primitives: prims,
	}
}

func TestLayerOrderIndependent(t *testing.T) {
	front := quad(geom.LayerStrand, 10, red)
	back := quad(geom.LayerHelix, 20, blue)

	for _, order := range [][]render.Primitive{{front, back}, {back, front}} {
		tgt := NewImageTarget(100, 100)
		r := NewRenderer(100, 100)
		st := r.Render(tgt, flatList(100, 100, 1, order...), nil)
		if st.Written == 0 {
			t.Fatalf("Render() wrote nothing")
		}
		if got := tgt.Img.RGBAAt(50, 50); got != red {
			t.Fatalf("center = %v, want %v", got, red)
		}
		if got := tgt.Img.RGBAAt(50, 35); got != blue {
			t.Fatalf("(50,35) = %v, want %v", got, blue)
		}
		if got := tgt.Img.RGBAAt(5, 5); got != r.ClearColor {
			t.Fatalf("corner = %v, want clear color", got)
		}
	}
}

func TestGlyphAlphaDiscard(t *testing.T) {
	atlas := render.DefaultAtlas()
	g, ok := atlas.Glyph('A')
	if !ok {
		t.Fatalf("Glyph('A') missing")
	}

	p := quad(geom.LayerGlyph, 20, red)
	p.Kind = render.KindGlyph
	// Every corner samples the padding texel.
	pad := [2]float32{(float32(g.X) + 0.5) / float32(atlas.W), 0.5 / float32(atlas.H)}
	for i := range p.Vertices {
		p.Vertices[i].TexCoord = pad
	}
	tgt := NewImageTarget(100, 100)
	st := NewRenderer(100, 100).Render(tgt, flatList(100, 100, 1, p), atlas)
	if st.Written != 0 || st.Discarded == 0 {
		t.Fatalf("Render() = %+v, want all fragments discarded", st)
	}

	p = quad(geom.LayerGlyph, 20, red)
	p.Kind = render.KindGlyph
	uv := [4][2]float32{{g.U0, g.V0}, {g.U1, g.V0}, {g.U0, g.V1}, {g.U1, g.V1}}
	for i := range p.Vertices {
		p.Vertices[i].TexCoord = uv[i]
	}
	st = NewRenderer(100, 100).Render(tgt, flatList(100, 100, 1, p), atlas)
	if st.Written == 0 || st.Discarded == 0 {
		t.Fatalf("Render() = %+v, want both kept and discarded fragments", st)
	}

	st = NewRenderer(100, 100).Render(tgt, flatList(100, 100, 1, p), nil)
	if st.Written != 0 {
		t.Fatalf("Render() without atlas wrote %d fragments", st.Written)
	}
}

func TestLines(t *testing.T) {
	p := render.Primitive{Kind: render.KindLines, Layer: geom.LayerGrid}
	for _, x := range []float32{-20, 20} {
		p.Vertices = append(p.Vertices, render.Vertex{
			Position:   [3]float32{x, 0, 0},
			Color:      blue,
			DepthIndex: geom.DepthIndex(geom.LayerGrid, 0),
		})
	}
	p.Indices = []uint32{0, 1}
	tgt := NewImageTarget(100, 100)
	st := NewRenderer(100, 100).Render(tgt, flatList(100, 100, 1, p), nil)
	if st.Written != 41 {
		t.Fatalf("Written = %d, want 41", st.Written)
	}
	for _, x := range []int{30, 50, 70} {
		if got := tgt.Img.RGBAAt(x, 50); got != blue {
			t.Fatalf("(%d,50) = %v, want %v", x, got, blue)
		}
	}
}

func TestRenderDesignOrderIndependent(t *testing.T) {
	d := design.New("t")
	g := d.AddGrid(design.GridSpec{})
	h0, _ := d.AddHelixAt(g, geom.Coord{X: 0, Y: 0})
	h1, _ := d.AddHelixAt(g, geom.Coord{X: 1, Y: 0})
	s0, _ := d.AddStrandSegment(h0, design.Range{Start: 0, End: 10, Forward: true})
	s1, _ := d.AddStrandSegment(h1, design.Range{Start: 0, End: 10, Forward: false})
	if err := d.SetSequence(s0, "ACGTACGTACG"); err != nil {
		t.Fatalf("SetSequence() = %v", err)
	}
	if _, err := d.Join(design.StrandEnd{Strand: s0, Prime: design.ThreePrime}, design.StrandEnd{Strand: s1, Prime: design.FivePrime}); err != nil {
		t.Fatalf("Join() = %v", err)
	}

	v := geom.NewViewState(400, 300, 20)
	v.Scroll = geom.V2(5, 2)
	atlas := render.DefaultAtlas()
	dl, err := render.Build2D(d, v, atlas, render.Overlay{})
	if err != nil {
		t.Fatalf("Build2D() = %v", err)
	}

	a := NewImageTarget(400, 300)
	NewRenderer(400, 300).Render(a, dl, atlas)

	rev := dl
	rev.Primitives = slices.Clone(dl.Primitives)
	slices.Reverse(rev.Primitives)
	b := NewImageTarget(400, 300)
	NewRenderer(400, 300).Render(b, rev, atlas)

	if !slices.Equal(a.Img.Pix, b.Img.Pix) {
		t.Fatalf("image depends on primitive order")
	}
}

func TestRenderSpatial(t *testing.T) {
	d := design.New("t")
	g := d.AddGrid(design.GridSpec{})
	h, _ := d.AddHelixAt(g, geom.Coord{X: 0, Y: 0})
	if _, err := d.AddStrandSegment(h, design.Range{Start: 0, End: 20, Forward: true}); err != nil {
		t.Fatalf("AddStrandSegment() = %v", err)
	}
	dl, err := render.Build3D(d, geom.DefaultCamera(), 160, 120, nil)
	if err != nil {
		t.Fatalf("Build3D() = %v", err)
	}
	tgt := NewImageTarget(160, 120)
	st := NewRenderer(160, 120).Render(tgt, dl, nil)
	if st.Written == 0 {
		t.Fatalf("Render() wrote nothing")
	}
}

func line(layer geom.Layer, c color.RGBA, a, b [3]float32) render.Primitive {
	p := render.Primitive{Kind: render.KindLines, Layer: layer, Indices: []uint32{0, 1}}
	for _, pos := range [2][3]float32{a, b} {
		p.Vertices = append(p.Vertices, render.Vertex{
			Position:   pos,
			Color:      c,
			DepthIndex: geom.DepthIndex(layer, 0),
		})
	}
	return p
}

func TestLongLineIsClipped(t *testing.T) {
	p := line(geom.LayerGrid, blue, [3]float32{-5000, 0, 0}, [3]float32{10, 0, 0})
	tgt := NewImageTarget(100, 100)
	st := NewRenderer(100, 100).Render(tgt, flatList(100, 100, 1, p), nil)
	if st.Written != 61 {
		t.Fatalf("Written = %d, want 61", st.Written)
	}
	for _, x := range []int{0, 30, 60} {
		if got := tgt.Img.RGBAAt(x, 50); got != blue {
			t.Fatalf("(%d,50) = %v, want %v", x, got, blue)
		}
	}
	if got := tgt.Img.RGBAAt(61, 50); got == blue {
		t.Fatalf("(61,50) drawn past the line end")
	}

	p = line(geom.LayerGrid, blue, [3]float32{-5000, -5000, 0}, [3]float32{-4000, 5000, 0})
	if st := NewRenderer(100, 100).Render(tgt, flatList(100, 100, 1, p), nil); st.Written != 0 {
		t.Fatalf("off-screen line wrote %d fragments", st.Written)
	}
}

func TestLineBehindCameraIsClipped(t *testing.T) {
	const w, h = 160, 120
	cam := geom.DefaultCamera()
	var vp [16]float32
	for i, v := range cam.ViewProj(float64(w) / h) {
		vp[i] = float32(v)
	}
	dl := render.DrawList{
		Uniforms: render.Uniforms{
			Space:      render.SpaceSpatial,
			Resolution: [2]float32{w, h},
			ViewProj:   vp,
		},
		// From the look-at point to a point behind the eye.
		Primitives: []render.Primitive{line(geom.LayerHelix, red, [3]float32{0, 0, 0}, [3]float32{10, 0, 60})},
	}
	tgt := NewImageTarget(w, h)
	st := NewRenderer(w, h).Render(tgt, dl, nil)
	if st.Written < w/2-2 {
		t.Fatalf("Written = %d, want the visible half of the line", st.Written)
	}
	for _, x := range []int{w / 2, w - 10} {
		if got := tgt.Img.RGBAAt(x, h/2); got != red {
			t.Fatalf("(%d,%d) = %v, want %v", x, h/2, got, red)
		}
	}
}

func spatialList(w, h int, prims ...render.Primitive) render.DrawList {
	var vp [16]float32
	for i, v := range geom.DefaultCamera().ViewProj(float64(w) / float64(h)) {
		vp[i] = float32(v)
	}
	return render.DrawList{
		Uniforms:   render.Uniforms{Space: render.SpaceSpatial, Resolution: [2]float32{float32(w), float32(h)}, ViewProj: vp},
		Primitives: prims,
	}
}

func TestSpatialDepthIsDistance(t *testing.T) {
	const w, h = 160, 120
	raise := func(p render.Primitive, z float32) render.Primitive {
		for i := range p.Vertices {
			p.Vertices[i].Position[2] = z
		}
		return p
	}
	far := quad(geom.LayerCrossOver, 3, red)
	near := raise(quad(geom.LayerGrid, 1, blue), 5)
	for _, prims := range [][]render.Primitive{{far, near}, {near, far}} {
		tgt := NewImageTarget(w, h)
		NewRenderer(w, h).Render(tgt, spatialList(w, h, prims...), nil)
		if got := tgt.Img.RGBAAt(w/2, h/2); got != blue {
			t.Fatalf("center = %v, want the nearer quad %v", got, blue)
		}
		if got := tgt.Img.RGBAAt(w/2+10, h/2); got != red {
			t.Fatalf("(%d,%d) = %v, want the far quad %v", w/2+10, h/2, got, red)
		}
	}
}

func TestRGB565Target(t *testing.T) {
	for _, c := range []color.RGBA{red, blue, {G: 0xff, A: 0xff}, {A: 0xff}, {R: 0xff, G: 0xff, B: 0xff, A: 0xff}} {
		if got := RGBA565(RGB565(c)); got != c {
			t.Fatalf("RGBA565(RGB565(%v)) = %v", c, got)
		}
	}

	tgt := &RGB565Target{Buf: make([]byte, 8*4*2), Stride: 8 * 2, W: 8, H: 4}
	tgt.Clear(blue)
	tgt.SetPixel(3, 2, red)
	tgt.SetPixel(-1, 0, red)
	tgt.SetPixel(8, 0, red)
	if got := tgt.At(3, 2); got != red {
		t.Fatalf("At(3,2) = %v, want %v", got, red)
	}
	if got := tgt.At(0, 0); got != blue {
		t.Fatalf("At(0,0) = %v, want %v", got, blue)
	}
	if got := tgt.Buf[(2*8+3)*2+1]; got != 0xf8 {
		t.Fatalf("high byte = %#x, want 0xf8", got)
	}
}
