package design

import (
	"fmt"
	"math"

	"icednano/nano/geom"
)

// DefaultHelixLength is the number of base slots drawn for a helix with no
// strands.
const DefaultHelixLength = 32

// AxisPoint returns the point on the helix axis at base position pos.
func (h Helix) AxisPoint(pos int) geom.Vec3 {
	return h.Position.Add(h.Axis().Mul(float64(pos) * geom.BaseRise))
}

// SlotPosition returns the world position of the nucleotide at (pos, forward).
//
// The backbone turns 2π every BasesPerTurn bases; the backward side sits
// opposite the forward side.
func (h Helix) SlotPosition(pos int, forward bool) geom.Vec3 {
	theta := float64(pos) * 2 * math.Pi / geom.BasesPerTurn
	if !forward {
		theta += math.Pi
	}
	radial := geom.V3(0, math.Cos(theta), math.Sin(theta))
	return h.AxisPoint(pos).Add(h.Orientation.Rotate(radial).Mul(geom.HelixRadius))
}

// SlotPosition is Helix.SlotPosition for a helix handle.
func (d *Design) SlotPosition(helix HelixID, pos int, forward bool) (geom.Vec3, error) {
	h, ok := d.helices.get(Handle(helix))
	if !ok {
		return geom.Vec3{}, fmt.Errorf("slot position on %s: %w", helix, ErrInvalidReference)
	}
	return h.SlotPosition(pos, forward), nil
}

// HelixExtent returns the base positions covered by strands on helix, or
// [0, DefaultHelixLength) when it carries none.
func (d *Design) HelixExtent(helix HelixID) (lo, hi int) {
	first := true
	for _, id := range d.strands.handles() {
		s, _ := d.strands.get(id)
		if s.Helix != helix {
			continue
		}
		if first {
			lo, hi = s.Range.Start, s.Range.End
			first = false
			continue
		}
		lo = min(lo, s.Range.Start)
		hi = max(hi, s.Range.End)
	}
	if first {
		return 0, DefaultHelixLength - 1
	}
	return lo, hi
}
