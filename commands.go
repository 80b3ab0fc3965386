package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"icednano/app"
	"icednano/nano/design"
	"icednano/nano/nanogl"
	"icednano/nano/render"
	"icednano/nano/session"
	"icednano/nano/store"
)

func newNewCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "new <file or directory>",
		Short: "Write the two-helix sample design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ResolveTarget(args[0], time.Now())
			if err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			d, err := app.SampleDesign(name)
			if err != nil {
				return err
			}
			if err := store.SaveFile(path, d); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Design name (default: file name).")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <design.json>",
		Short: "Print what a design contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := store.LoadFile(args[0])
			if err != nil {
				return err
			}
			st := d.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:        %s\n", d.Name)
			fmt.Fprintf(out, "id:          %s\n", d.ID)
			fmt.Fprintf(out, "grids:       %d\n", st.Grids)
			fmt.Fprintf(out, "helices:     %d\n", st.Helices)
			fmt.Fprintf(out, "strands:     %d\n", st.Strands)
			fmt.Fprintf(out, "cross-overs: %d\n", st.CrossOvers)
			fmt.Fprintf(out, "bases:       %d\n", st.Bases)
			fmt.Fprintf(out, "free ends:   %d\n", len(d.FreeEnds()))
			return nil
		},
	}
}

func newRenderCmd() *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "render <design.json> <out.png>",
		Short: "Render the 2D and 3D views side by side to a PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := store.LoadFile(args[0])
			if err != nil {
				return err
			}
			img, err := renderPNG(cmd.Context(), d, width, height)
			if err != nil {
				return err
			}
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := png.Encode(f, img); err != nil {
				f.Close()
				return fmt.Errorf("encode %s: %w", args[1], err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 1280, "Image width in pixels.")
	cmd.Flags().IntVar(&height, "height", 480, "Image height in pixels.")
	return cmd
}

// renderPNG fits both views on d and rasterizes them into one image, the
// schematic on the left.
func renderPNG(ctx context.Context, d *design.Design, width, height int) (*image.RGBA, error) {
	if width < 2 || height < 1 {
		return nil, fmt.Errorf("render: invalid size %dx%d", width, height)
	}
	split := width / 2
	sess := session.New(d, session.Options{
		FlatSize:  [2]int{split, height},
		SpaceSize: [2]int{width - split, height},
	})
	sess.Post(session.Event{Kind: session.EventFit})
	if _, err := sess.Step(ctx); err != nil {
		return nil, err
	}
	atlas := render.DefaultAtlas()
	frame, err := sess.Frame(ctx, atlas, nil)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	views := []struct {
		rect image.Rectangle
		dl   render.DrawList
		bg   color.RGBA
	}{
		{image.Rect(0, 0, split, height), frame.Flat, app.FlatBackground},
		{image.Rect(split, 0, width, height), frame.Space, app.SpaceBackground},
	}
	for _, v := range views {
		r := nanogl.NewRenderer(v.rect.Dx(), v.rect.Dy())
		r.ClearColor = v.bg
		r.Render(&nanogl.ImageTarget{Img: img.SubImage(v.rect).(*image.RGBA)}, v.dl, atlas)
	}
	return img, nil
}
