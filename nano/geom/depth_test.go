package geom

import (
	"math/rand"
	"testing"
)

func TestEncodeDepthMonotonicAcrossLayers(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10_000; i++ {
		l1 := Layer(rng.Intn(int(MaxLayer)))
		l2 := l1 + 1 + Layer(rng.Intn(int(MaxLayer-l1)))
		// frac stands in for raw world depth: the worst case puts the lower
		// layer at its front and the higher one at its back.
		d1 := EncodeDepth(l1, 1)
		d2 := EncodeDepth(l2, 0)
		if !(d1 < d2) {
			t.Fatalf("EncodeDepth(%d,1)=%v not < EncodeDepth(%d,0)=%v", l1, d1, l2, d2)
		}
		if f := rng.Float64(); EncodeDepth(l1, f) >= EncodeDepth(l2, rng.Float64()) {
			t.Fatalf("random fractions broke layer order")
		}
	}
}

func TestEncodeDepthRange(t *testing.T) {
	if d := EncodeDepth(0, 0); d != 0 {
		t.Fatalf("EncodeDepth(0,0) = %v, want 0", d)
	}
	if d := EncodeDepth(MaxLayer, 1); d >= 1 {
		t.Fatalf("EncodeDepth(max,1) = %v, want < 1", d)
	}
	if d := EncodeDepth(LayerStrand, 2); d != EncodeDepth(LayerStrand, 1) {
		t.Fatalf("frac not clamped")
	}
}

func TestDepthIndexMatchesEncode(t *testing.T) {
	for _, l := range []Layer{LayerGrid, LayerHelix, LayerStrand, LayerGlyph} {
		if got := LayerOf(DecodeDepthIndex(DepthIndex(l, 500))); got != l {
			t.Fatalf("LayerOf(DepthIndex(%d)) = %d", l, got)
		}
		if got := LayerOf(EncodeDepth(l, 0.99)); got != l {
			t.Fatalf("LayerOf(EncodeDepth(%d)) = %d", l, got)
		}
	}
	if DepthIndex(LayerHelix, 999) >= DepthIndex(LayerStrand, 0) {
		t.Fatalf("depth index overlaps next layer")
	}
}
