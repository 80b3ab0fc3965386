package render

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"icednano/nano/design"
	"icednano/nano/geom"
)

// Recorder receives per-view build statistics.
type Recorder interface {
	ObserveBuild(view string, elapsed time.Duration, primitives, vertices int)
}

// Views describes the two views of one frame.
type Views struct {
	Flat    geom.ViewState
	Overlay Overlay

	Camera      geom.Camera
	SpaceWidth  int
	SpaceHeight int
}

// Frame holds both draw lists of one frame.
type Frame struct {
	Flat  DrawList
	Space DrawList
}

// BuildFrame builds the 2D and 3D draw lists concurrently. d must be a
// snapshot no one mutates while the frame is built; both builders only read
// it. rec may be nil.
func BuildFrame(ctx context.Context, d *design.Design, v Views, atlas *Atlas, rec Recorder) (Frame, error) {
	var f Frame
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		dl, err := Build2D(d, v.Flat, atlas, v.Overlay)
		if err != nil {
			return err
		}
		if rec != nil {
			rec.ObserveBuild("2d", time.Since(start), len(dl.Primitives), dl.Vertices())
		}
		f.Flat = dl
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		dl, err := Build3D(d, v.Camera, v.SpaceWidth, v.SpaceHeight, atlas)
		if err != nil {
			return err
		}
		if rec != nil {
			rec.ObserveBuild("3d", time.Since(start), len(dl.Primitives), dl.Vertices())
		}
		f.Space = dl
		return nil
	})
	if err := g.Wait(); err != nil {
		return Frame{}, err
	}
	return f, nil
}
