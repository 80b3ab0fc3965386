package app

import (
	"strings"

	"icednano/nano/design"
	"icednano/nano/geom"
)

// SampleLength is the number of bases per strand in the sample design.
const SampleLength = 16

// SampleDesign returns two neighbouring helices on a square grid, each with
// one strand running in opposite directions, ready to be joined.
func SampleDesign(name string) (*design.Design, error) {
	d := design.New(name)
	g := d.AddGrid(design.GridSpec{Kind: geom.LatticeSquare})
	h0, err := d.AddHelixAt(g, geom.Coord{X: 0, Y: 0})
	if err != nil {
		return nil, err
	}
	h1, err := d.AddHelixAt(g, geom.Coord{X: 1, Y: 0})
	if err != nil {
		return nil, err
	}
	s0, err := d.AddStrandSegment(h0, design.Range{Start: 0, End: SampleLength - 1, Forward: true})
	if err != nil {
		return nil, err
	}
	s1, err := d.AddStrandSegment(h1, design.Range{Start: 0, End: SampleLength - 1, Forward: false})
	if err != nil {
		return nil, err
	}
	if err := d.SetSequence(s0, strings.Repeat("ACGT", SampleLength/4)); err != nil {
		return nil, err
	}
	if err := d.SetSequence(s1, strings.Repeat("TGCA", SampleLength/4)); err != nil {
		return nil, err
	}
	return d, nil
}
