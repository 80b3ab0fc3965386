// Package render turns a design into per-view draw lists.
//
// Draw lists are re-derived from the model on every frame and hold no state
// of their own. Every vertex carries the integer depth index of its layer
// (grid < helix < strand < cross-over < candidate < glyph); backends
// depth-test on it, so the order primitives are emitted in does not matter.
//
// Base letters are drawn as textured quads sampling a coverage atlas
// rasterized from a tinyfont bitmap font. Fragments whose coverage is below
// AlphaThreshold are discarded.
package render
