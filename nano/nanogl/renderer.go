package nanogl

import (
	"image/color"

	"icednano/nano/geom"
	"icednano/nano/render"
)

// spatialLayerBias separates layers at equal projected depth in 3D.
const spatialLayerBias = 1e-6

// Renderer executes draw lists.
//
// Create it once and reuse it to avoid allocations.
type Renderer struct {
	ClearColor color.RGBA

	depthBuf []float32
	w, h     int
	stats    Stats
}

// Stats counts fragments of the last Draw.
type Stats struct {
	Written   int
	Occluded  int
	Discarded int
}

func NewRenderer(w, h int) *Renderer {
	r := &Renderer{ClearColor: color.RGBA{A: 0xff}}
	r.resize(w, h)
	return r
}

func (r *Renderer) resize(w, h int) {
	r.w, r.h = w, h
	if w <= 0 || h <= 0 {
		r.depthBuf = nil
		return
	}
	if cap(r.depthBuf) < w*h {
		r.depthBuf = make([]float32, w*h)
	} else {
		r.depthBuf = r.depthBuf[:w*h]
	}
}

// Clear fills the target with ClearColor and resets the depth buffer.
func (r *Renderer) Clear(t Target) {
	w, h := t.Size()
	r.resize(w, h)
	t.Clear(r.ClearColor)
	for i := range r.depthBuf {
		r.depthBuf[i] = -1
	}
}

// Render clears t and draws dl into it.
func (r *Renderer) Render(t Target, dl render.DrawList, atlas *render.Atlas) Stats {
	if r == nil || t == nil {
		return Stats{}
	}
	r.Clear(t)
	return r.Draw(t, dl, atlas)
}

// Draw rasterizes dl on top of what t holds. A fragment is kept only when its
// depth is greater than the stored one, so the result does not depend on
// primitive order across layers.
func (r *Renderer) Draw(t Target, dl render.DrawList, atlas *render.Atlas) Stats {
	r.stats = Stats{}
	w, h := t.Size()
	if w <= 0 || h <= 0 {
		return r.stats
	}
	if w != r.w || h != r.h {
		r.Clear(t)
	}
	u := dl.Uniforms
	for _, p := range dl.Primitives {
		pts := make([]point, len(p.Vertices))
		for i, v := range p.Vertices {
			pts[i] = r.transform(u, v, p.Layer)
		}
		switch p.Kind {
		case render.KindLines:
			for i := 0; i+1 < len(p.Indices); i += 2 {
				a, b, ok := pair(pts, p.Indices[i], p.Indices[i+1])
				if !ok {
					continue
				}
				if a, b, ok = r.clipNear(a, b); ok {
					r.drawLine(t, a, b)
				}
			}
		default:
			var tex *render.Atlas
			if p.Kind == render.KindGlyph {
				if atlas == nil {
					continue
				}
				tex = atlas
			}
			for i := 0; i+2 < len(p.Indices); i += 3 {
				a, b, c, ok := triple(pts, p.Indices[i], p.Indices[i+1], p.Indices[i+2])
				if ok {
					r.fillTriangle(t, a, b, c, tex)
				}
			}
		}
	}
	return r.stats
}

// point is a vertex after the vertex stage, in pixels. Spatial points keep
// their clip-space position so lines can be cut at the near plane.
type point struct {
	x, y   int
	fx, fy float64
	depth  float32
	c      color.RGBA
	u, v   float32
	ok     bool

	spatial bool
	clip    geom.Vec4
	off     geom.Vec2
	layer   geom.Layer
}

func (r *Renderer) transform(u render.Uniforms, v render.Vertex, layer geom.Layer) point {
	out := point{c: v.Color, u: v.TexCoord[0], v: v.TexCoord[1]}
	switch u.Space {
	case render.SpaceSpatial:
		out.spatial = true
		out.clip = geom.Mat4MulV4(u.Mat4(), geom.Vec4{X: float64(v.Position[0]), Y: float64(v.Position[1]), Z: float64(v.Position[2]), W: 1})
		out.off = geom.V2(float64(v.Normal[0]*v.Width*u.OffsetScale), float64(v.Normal[1]*v.Width*u.OffsetScale))
		out.layer = layer
		r.project(&out)
	default:
		vs := u.ViewState()
		pos := geom.V2(float64(v.Position[0]), float64(v.Position[1]))
		n := geom.V2(float64(v.Normal[0]), float64(v.Normal[1]))
		s := vs.ClipToScreen(geom.Project2D(pos, n, float64(u.OffsetScale), float64(v.Width), vs))
		out.setScreen(s.X, s.Y)
		out.depth = float32(geom.DecodeDepthIndex(v.DepthIndex))
		out.ok = true
	}
	return out
}

// nearDist is the signed distance of a clip-space point to the near plane;
// negative is behind it.
func nearDist(c geom.Vec4) float64 { return c.Z + c.W }

// project runs the perspective divide and viewport mapping. Points behind
// the near plane are left unusable. In 3D the fragment depth is the
// projected z, with the layer as a small bias for coincident geometry.
func (r *Renderer) project(p *point) {
	p.ok = false
	c := p.clip
	if c.W <= 0 || nearDist(c) < 0 {
		return
	}
	nx, ny, nz := c.X/c.W, c.Y/c.W, c.Z/c.W
	p.setScreen((nx+1)*0.5*float64(r.w)+p.off.X, (1-ny)*0.5*float64(r.h)+p.off.Y)
	p.depth = float32(1-geom.Clamp01(nz*0.5+0.5)) + float32(p.layer)*spatialLayerBias
	p.ok = true
}

func (p *point) setScreen(x, y float64) {
	p.fx, p.fy = x, y
	p.x, p.y = roundPx(x), roundPx(y)
}

// clipNear cuts a spatial segment at the near plane.
func (r *Renderer) clipNear(a, b point) (point, point, bool) {
	if a.ok && b.ok {
		return a, b, true
	}
	if !a.spatial || !b.spatial {
		return a, b, false
	}
	da, db := nearDist(a.clip), nearDist(b.clip)
	if da < 0 && db < 0 {
		return a, b, false
	}
	cut := func(in, out point, din, dout float64) point {
		f := din / (din - dout)
		n := in
		n.clip = geom.Vec4{
			X: in.clip.X + (out.clip.X-in.clip.X)*f,
			Y: in.clip.Y + (out.clip.Y-in.clip.Y)*f,
			Z: in.clip.Z + (out.clip.Z-in.clip.Z)*f,
			W: in.clip.W + (out.clip.W-in.clip.W)*f,
		}
		n.off = in.off.Add(out.off.Sub(in.off).Mul(f))
		r.project(&n)
		return n
	}
	if da < 0 {
		a = cut(b, a, db, da)
	}
	if db < 0 {
		b = cut(a, b, da, db)
	}
	return a, b, a.ok && b.ok
}

// clipViewport trims the segment to the target with Liang-Barsky so that
// only visible pixels are walked.
func (r *Renderer) clipViewport(a, b point) (point, point, bool) {
	if !geom.Finite(a.fx) || !geom.Finite(a.fy) || !geom.Finite(b.fx) || !geom.Finite(b.fy) {
		return a, b, false
	}
	dx, dy := b.fx-a.fx, b.fy-a.fy
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, a.fx},
		{dx, float64(r.w-1) - a.fx},
		{-dy, a.fy},
		{dy, float64(r.h-1) - a.fy},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return a, b, false
			}
			t1 = min(t1, t)
		}
	}
	na, nb := a, b
	na.setScreen(a.fx+t0*dx, a.fy+t0*dy)
	nb.setScreen(a.fx+t1*dx, a.fy+t1*dy)
	na.depth = a.depth + (b.depth-a.depth)*float32(t0)
	nb.depth = a.depth + (b.depth-a.depth)*float32(t1)
	return na, nb, true
}

func roundPx(v float64) int {
	if !geom.Finite(v) {
		return -1 << 20
	}
	if v < -1<<20 {
		return -1 << 20
	}
	if v > 1<<20 {
		return 1 << 20
	}
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func pair(pts []point, i, j uint32) (point, point, bool) {
	if int(i) >= len(pts) || int(j) >= len(pts) {
		return point{}, point{}, false
	}
	return pts[i], pts[j], true
}

func triple(pts []point, i, j, k uint32) (point, point, point, bool) {
	if int(i) >= len(pts) || int(j) >= len(pts) || int(k) >= len(pts) {
		return point{}, point{}, point{}, false
	}
	a, b, c := pts[i], pts[j], pts[k]
	return a, b, c, a.ok && b.ok && c.ok
}

// depthTest keeps the fragment when it is strictly in front.
func (r *Renderer) depthTest(x, y int, z float32) bool {
	if x < 0 || y < 0 || x >= r.w || y >= r.h {
		return false
	}
	idx := y*r.w + x
	if z <= r.depthBuf[idx] {
		r.stats.Occluded++
		return false
	}
	r.depthBuf[idx] = z
	return true
}

func (r *Renderer) drawLine(t Target, a, b point) {
	a, b, ok := r.clipViewport(a, b)
	if !ok {
		return
	}
	x0, y0, x1, y1 := a.x, a.y, b.x, b.y
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	steps := max(dx, -dy)
	err := dx + dy
	for i := 0; ; i++ {
		f := float32(0)
		if steps > 0 {
			f = float32(i) / float32(steps)
		}
		z := a.depth + (b.depth-a.depth)*f
		if r.depthTest(x0, y0, z) {
			t.SetPixel(x0, y0, a.c)
			r.stats.Written++
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *Renderer) fillTriangle(t Target, p0, p1, p2 point, tex *render.Atlas) {
	area := edgeFn(p0.x, p0.y, p1.x, p1.y, p2.x, p2.y)
	if area == 0 {
		return
	}
	if area < 0 {
		p1, p2 = p2, p1
		area = -area
	}
	minX := max(min(p0.x, p1.x, p2.x), 0)
	minY := max(min(p0.y, p1.y, p2.y), 0)
	maxX := min(max(p0.x, p1.x, p2.x), r.w-1)
	maxY := min(max(p0.y, p1.y, p2.y), r.h-1)
	if minX > maxX || minY > maxY {
		return
	}
	invArea := 1 / float32(area)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edgeFn(p1.x, p1.y, p2.x, p2.y, x, y)
			w1 := edgeFn(p2.x, p2.y, p0.x, p0.y, x, y)
			w2 := edgeFn(p0.x, p0.y, p1.x, p1.y, x, y)
			if (w0 | w1 | w2) < 0 {
				continue
			}
			a0 := float32(w0) * invArea
			a1 := float32(w1) * invArea
			a2 := float32(w2) * invArea
			c := lerpColor(p0.c, p1.c, p2.c, a0, a1, a2)
			if tex != nil {
				u := a0*p0.u + a1*p1.u + a2*p2.u
				v := a0*p0.v + a1*p1.v + a2*p2.v
				if !render.AlphaTest(tex.Sample(u, v)) {
					r.stats.Discarded++
					continue
				}
			}
			z := a0*p0.depth + a1*p1.depth + a2*p2.depth
			if !r.depthTest(x, y, z) {
				continue
			}
			t.SetPixel(x, y, c)
			r.stats.Written++
		}
	}
}

func lerpColor(c0, c1, c2 color.RGBA, a0, a1, a2 float32) color.RGBA {
	if c0 == c1 && c1 == c2 {
		return c0
	}
	ch := func(v0, v1, v2 uint8) uint8 {
		return uint8(clampF32(a0*float32(v0)+a1*float32(v1)+a2*float32(v2), 0, 255))
	}
	return color.RGBA{R: ch(c0.R, c1.R, c2.R), G: ch(c0.G, c1.G, c2.G), B: ch(c0.B, c1.B, c2.B), A: 0xff}
}

func edgeFn(x0, y0, x1, y1, x, y int) int {
	return (x-x0)*(y1-y0) - (y-y0)*(x1-x0)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
