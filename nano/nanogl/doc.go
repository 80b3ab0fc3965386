// Package nanogl is a small software rasterizer for render draw lists.
//
// It runs the vertex stage on the CPU (flat or spatial, per the draw list's
// uniforms), fills triangles and Bresenham lines into a Target, and keeps a
// float depth buffer so a fragment lands only if it is in front of what is
// already there. Glyph triangles sample the coverage atlas and drop fragments
// that fail render.AlphaTest.
//
// The same draw list feeds the desktop window and headless PNG export.
package nanogl
