package geom

import "math"

// Layer is a semantic z-order. Larger layers are drawn in front.
type Layer int

const (
	LayerBackground Layer = iota
	LayerGrid
	LayerHelix
	LayerStrand
	LayerCrossOver
	LayerCandidate
	LayerGlyph
)

const (
	// DepthLayerScale separates layers by three orders of magnitude.
	DepthLayerScale = 1000
	// DepthRange normalizes encoded depth into [0,1].
	DepthRange = 1e6
	// MaxLayer is the last layer that still encodes below 1.
	MaxLayer Layer = DepthRange/DepthLayerScale - 1

	// fracSpan keeps the in-layer offset strictly below one layer step.
	fracSpan = DepthLayerScale - 1
)

// EncodeDepth maps a layer and an in-layer fraction in [0,1] to [0,1].
//
// Every value of layer L+1 is larger than every value of layer L, whatever
// frac is, so cross-layer order does not depend on float accumulation.
func EncodeDepth(layer Layer, frac float64) float64 {
	if layer < 0 {
		layer = 0
	}
	if layer > MaxLayer {
		layer = MaxLayer
	}
	if !Finite(frac) {
		frac = 0
	}
	return (float64(layer)*DepthLayerScale + Clamp01(frac)*fracSpan) / DepthRange
}

// DepthIndex is the integer key carried per vertex: layer*1000 + sub.
func DepthIndex(layer Layer, sub int) uint32 {
	if sub < 0 {
		sub = 0
	}
	if sub > fracSpan {
		sub = fracSpan
	}
	if layer < 0 {
		layer = 0
	}
	if layer > MaxLayer {
		layer = MaxLayer
	}
	return uint32(int(layer)*DepthLayerScale + sub)
}

// DecodeDepthIndex returns the normalized depth of an integer depth index.
func DecodeDepthIndex(idx uint32) float64 {
	return float64(idx) / DepthRange
}

// LayerOf returns the layer an encoded depth belongs to.
func LayerOf(depth float64) Layer {
	return Layer(math.Floor(depth*DepthRange/DepthLayerScale + 1e-9))
}
