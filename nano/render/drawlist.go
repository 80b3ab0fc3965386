package render

import (
	"image/color"
	"slices"

	"icednano/nano/geom"
	"icednano/nano/mode"
)

// Kind selects how a primitive's indices are assembled.
type Kind uint8

const (
	// KindLines reads indices in pairs.
	KindLines Kind = iota
	// KindTriangles reads indices in triples.
	KindTriangles
	// KindGlyph is KindTriangles sampling the glyph atlas.
	KindGlyph
)

func (k Kind) String() string {
	switch k {
	case KindLines:
		return "lines"
	case KindTriangles:
		return "triangles"
	case KindGlyph:
		return "glyph"
	default:
		return "unknown"
	}
}

// Space tells the backend how to transform vertices.
type Space uint8

const (
	// SpaceFlat: Position is a 2D world point, Normal is offset in world
	// units (times OffsetScale*Width) before projection. Depth comes from
	// DepthIndex.
	SpaceFlat Space = iota
	// SpaceSpatial: Position is a 3D world point projected by ViewProj;
	// Normal is offset in pixels (times Width) after projection. Depth comes
	// from the projected z.
	SpaceSpatial
)

// Uniforms is the per-view uniform block.
type Uniforms struct {
	Space       Space
	Resolution  [2]float32
	Scroll      [2]float32
	Zoom        float32
	OffsetScale float32
	// ViewProj is column-major; identity for SpaceFlat.
	ViewProj [16]float32
}

// ViewState rebuilds the 2D view transform.
func (u Uniforms) ViewState() geom.ViewState {
	return geom.ViewState{
		Scroll:     geom.V2(float64(u.Scroll[0]), float64(u.Scroll[1])),
		Zoom:       float64(u.Zoom),
		Resolution: geom.V2(float64(u.Resolution[0]), float64(u.Resolution[1])),
	}
}

// Mat4 widens ViewProj.
func (u Uniforms) Mat4() geom.Mat4 {
	var m geom.Mat4
	for i, v := range u.ViewProj {
		m[i] = float64(v)
	}
	return m
}

// Vertex is the per-vertex attribute layout.
type Vertex struct {
	Position   [3]float32
	Normal     [3]float32
	Color      color.RGBA
	DepthIndex uint32
	Width      float32
	TexCoord   [2]float32
}

// Primitive is one drawable: a strand segment, a helix outline, a grid line,
// a cross-over connector or a base glyph.
type Primitive struct {
	Kind     Kind
	Layer    geom.Layer
	Vertices []Vertex
	Indices  []uint32
	// Glyph is the base letter for KindGlyph.
	Glyph rune
}

// Depth is the encoded layer depth of the primitive.
func (p Primitive) Depth() float64 {
	if len(p.Vertices) == 0 {
		return 0
	}
	return geom.DecodeDepthIndex(p.Vertices[0].DepthIndex)
}

// DrawList is everything a backend needs to draw one view.
type DrawList struct {
	View       mode.View
	Uniforms   Uniforms
	Primitives []Primitive
}

// Count returns the number of primitives on layer.
func (dl DrawList) Count(layer geom.Layer) int {
	n := 0
	for _, p := range dl.Primitives {
		if p.Layer == layer {
			n++
		}
	}
	return n
}

// Vertices returns the total vertex count.
func (dl DrawList) Vertices() int {
	n := 0
	for _, p := range dl.Primitives {
		n += len(p.Vertices)
	}
	return n
}

// Sort orders primitives back to front for backends without a depth buffer.
// Primitives of equal depth keep their relative order.
func (dl *DrawList) Sort() {
	slices.SortStableFunc(dl.Primitives, func(a, b Primitive) int {
		da, db := a.Depth(), b.Depth()
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})
}

func f32x3(v geom.Vec3) [3]float32 { return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)} }
func f32x2(v geom.Vec2) [3]float32 { return [3]float32{float32(v.X), float32(v.Y), 0} }

// Palette.
var (
	colorGrid      = color.RGBA{R: 0x3a, G: 0x3a, B: 0x44, A: 0xff}
	colorHelix     = color.RGBA{R: 0x88, G: 0x88, B: 0x99, A: 0xff}
	colorCrossOver = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	colorCandidate = color.RGBA{R: 0xff, G: 0xdd, B: 0x66, A: 0xff}
	colorGlyph     = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	strandColors = [...]color.RGBA{
		{R: 0x4a, G: 0xdf, B: 0x6a, A: 0xff},
		{R: 0xe0, G: 0x5a, B: 0x4f, A: 0xff},
		{R: 0x4f, G: 0x9d, B: 0xe0, A: 0xff},
		{R: 0xd8, G: 0x8a, B: 0xe0, A: 0xff},
		{R: 0xe0, G: 0xa8, B: 0x3c, A: 0xff},
		{R: 0x5c, G: 0xd6, B: 0xd0, A: 0xff},
	}
)

func strandColor(i uint32) color.RGBA { return strandColors[int(i)%len(strandColors)] }
