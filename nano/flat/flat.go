// Package flat lays out the 2D schematic view.
//
// Each helix is drawn as a horizontal row: base positions run along +X and
// the two strand sides sit just above (forward) and below (backward) the row
// center. Rows follow the helix creation order.
package flat

import (
	"math"

	"icednano/nano/design"
	"icednano/nano/geom"
)

// World units of the schematic.
const (
	BaseWidth  = 1.0
	SideOffset = 0.5
	RowPitch   = 3.0
)

// Layout assigns rows to helices. It is derived from a design and must be
// rebuilt after helices are added.
type Layout struct {
	rows  map[design.HelixID]int
	order []design.HelixID
}

// New computes the layout of d.
func New(d *design.Design) Layout {
	hs := d.Helices()
	l := Layout{rows: make(map[design.HelixID]int, len(hs)), order: hs}
	for i, h := range hs {
		l.rows[h] = i
	}
	return l
}

// Row returns the row of h.
func (l Layout) Row(h design.HelixID) (int, bool) {
	r, ok := l.rows[h]
	return r, ok
}

// Helices returns the helices in row order.
func (l Layout) Helices() []design.HelixID { return l.order }

// RowY is the Y coordinate of a row center.
func RowY(row int) float64 { return float64(row) * RowPitch }

// SlotAt returns the center of a base slot in a given row.
func SlotAt(row, pos int, forward bool) geom.Vec2 {
	y := RowY(row) + SideOffset
	if forward {
		y = RowY(row) - SideOffset
	}
	return geom.V2((float64(pos)+0.5)*BaseWidth, y)
}

// Slot returns the center of a base slot on helix h.
func (l Layout) Slot(h design.HelixID, pos int, forward bool) (geom.Vec2, bool) {
	r, ok := l.rows[h]
	if !ok {
		return geom.Vec2{}, false
	}
	return SlotAt(r, pos, forward), true
}

// End returns the schematic position of a strand end.
func (l Layout) End(e design.EndInfo) (geom.Vec2, bool) {
	return l.Slot(e.Helix, e.Pos, e.Forward)
}

// HelixBox returns the corners of the rectangle drawn for helix h over base
// positions lo..hi.
func (l Layout) HelixBox(h design.HelixID, lo, hi int) (topLeft, bottomRight geom.Vec2, ok bool) {
	r, ok := l.rows[h]
	if !ok {
		return geom.Vec2{}, geom.Vec2{}, false
	}
	y := RowY(r)
	return geom.V2(float64(lo)*BaseWidth, y-2*SideOffset), geom.V2(float64(hi+1)*BaseWidth, y+2*SideOffset), true
}

// Hit locates the helix row and base slot under a world point. ok is false
// when p is outside every row band.
func (l Layout) Hit(p geom.Vec2) (h design.HelixID, pos int, forward bool, ok bool) {
	if len(l.order) == 0 {
		return design.HelixID{}, 0, false, false
	}
	row := int(math.Floor(p.Y/RowPitch + 0.5))
	if row < 0 || row >= len(l.order) {
		return design.HelixID{}, 0, false, false
	}
	dy := p.Y - RowY(row)
	if dy > 2*SideOffset || dy < -2*SideOffset {
		return design.HelixID{}, 0, false, false
	}
	pos = int(math.Floor(p.X / BaseWidth))
	return l.order[row], pos, dy < 0, true
}
