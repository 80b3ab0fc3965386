package geom

import (
	"errors"
	"fmt"
)

// ErrInvalidView reports a zoom or resolution that cannot be projected.
var ErrInvalidView = errors.New("geom: invalid view state")

const (
	MinZoom = 0.05
	MaxZoom = 400
)

// ViewState is the camera of the 2D view.
//
// Scroll is the world point shown at the center of the viewport; Zoom is in
// pixels per world unit; Resolution is the viewport size in pixels.
type ViewState struct {
	Scroll     Vec2
	Zoom       float64
	Resolution Vec2
}

// NewViewState returns a view centered on the origin.
func NewViewState(width, height int, zoom float64) ViewState {
	return ViewState{Zoom: zoom, Resolution: V2(float64(width), float64(height))}
}

// Validate rejects non-positive or non-finite zoom and resolution.
func (v ViewState) Validate() error {
	if !Finite(v.Zoom) || v.Zoom <= 0 {
		return fmt.Errorf("zoom %v: %w", v.Zoom, ErrInvalidView)
	}
	if !Finite(v.Resolution.X) || !Finite(v.Resolution.Y) || v.Resolution.X <= 0 || v.Resolution.Y <= 0 {
		return fmt.Errorf("resolution %vx%v: %w", v.Resolution.X, v.Resolution.Y, ErrInvalidView)
	}
	if !Finite(v.Scroll.X) || !Finite(v.Scroll.Y) {
		return fmt.Errorf("scroll %v: %w", v.Scroll, ErrInvalidView)
	}
	return nil
}

// Project2D maps a world position to clip space.
//
// The vertex is first pushed along normal by offsetScale*width, which is how
// lines get their thickness without changing the model.
func Project2D(pos, normal Vec2, offsetScale, width float64, v ViewState) Vec2 {
	local := pos.Add(normal.Mul(offsetScale * width))
	world := local.Sub(v.Scroll)
	clip := world.Mul(v.Zoom).Div(v.Resolution.Mul(0.5))
	clip.Y = -clip.Y
	return clip
}

// ClipToScreen maps clip coordinates to pixels, origin top-left.
func (v ViewState) ClipToScreen(c Vec2) Vec2 {
	return V2((c.X+1)*0.5*v.Resolution.X, (1-c.Y)*0.5*v.Resolution.Y)
}

// ToScreen maps a world position to pixels. It is Project2D followed by
// ClipToScreen, folded.
func (v ViewState) ToScreen(world Vec2) Vec2 {
	return world.Sub(v.Scroll).Mul(v.Zoom).Add(v.Resolution.Mul(0.5))
}

// ToWorld is the inverse of ToScreen.
func (v ViewState) ToWorld(screen Vec2) Vec2 {
	return screen.Sub(v.Resolution.Mul(0.5)).Mul(1 / v.Zoom).Add(v.Scroll)
}

// Pan scrolls the view by a pointer delta in pixels.
func (v *ViewState) Pan(dxPixels, dyPixels float64) {
	v.Scroll = v.Scroll.Sub(V2(dxPixels, dyPixels).Mul(1 / v.Zoom))
}

// ZoomAt multiplies the zoom by factor, keeping the world point under screen fixed.
func (v *ViewState) ZoomAt(factor float64, screen Vec2) {
	if !Finite(factor) || factor <= 0 {
		return
	}
	anchor := v.ToWorld(screen)
	z := v.Zoom * factor
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	v.Zoom = z
	v.Scroll = v.Scroll.Add(anchor.Sub(v.ToWorld(screen)))
}

// Resize updates the viewport resolution.
func (v *ViewState) Resize(width, height int) {
	v.Resolution = V2(float64(width), float64(height))
}
