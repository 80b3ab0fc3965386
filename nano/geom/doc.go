// Package geom is the geometry kernel of the editor.
//
// It holds the float64 vector/matrix/quaternion math shared by the model and
// both views, the 2D view transform (scroll, zoom, resolution to clip space),
// the per-layer depth encoding, the grid lattices and the 3D camera.
//
// Pipeline for the 2D view (fixed):
//
//	position + normal*offset*width → minus scroll → times zoom / (0.5*resolution) → flip Y.
//
// Everything here is pure; callers validate view parameters with
// ViewState.Validate before projecting.
package geom
