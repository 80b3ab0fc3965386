package design

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of the model:
//   - every reference resolves;
//   - every base slot is held by exactly the strand covering it;
//   - each strand end takes part in at most one cross-over;
//   - each cross-over runs from a 3' end to a 5' end on another helix;
//   - each attached helix is registered in its grid cell.
func (d *Design) Validate() error {
	var errs []error

	for _, gid := range d.Grids() {
		g, _ := d.grids.get(Handle(gid))
		for c, hid := range g.cells {
			h, ok := d.helices.get(Handle(hid))
			if !ok {
				errs = append(errs, fmt.Errorf("%s cell %s: %s: %w", gid, c, hid, ErrInvalidReference))
				continue
			}
			if !h.Attached || h.Grid != gid || h.Coord != c {
				errs = append(errs, fmt.Errorf("%s cell %s: %s not anchored there: %w", gid, c, hid, ErrInvalidReference))
			}
		}
	}
	for _, hid := range d.Helices() {
		h, _ := d.helices.get(Handle(hid))
		g, ok := d.grids.get(Handle(h.Grid))
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %s: %w", hid, h.Grid, ErrInvalidReference))
			continue
		}
		if h.Attached {
			if owner, ok := g.cells[h.Coord]; !ok || owner != hid {
				errs = append(errs, fmt.Errorf("%s: orphaned from %s %s: %w", hid, h.Grid, h.Coord, ErrInvalidReference))
			}
		}
	}

	claimed := 0
	for _, sid := range d.Strands() {
		s, _ := d.strands.get(Handle(sid))
		if _, ok := d.helices.get(Handle(s.Helix)); !ok {
			errs = append(errs, fmt.Errorf("%s: %s: %w", sid, s.Helix, ErrInvalidReference))
			continue
		}
		for p := s.Range.Start; p <= s.Range.End; p++ {
			if owner := d.slots[slotKey{s.Helix, p, s.Range.Forward}]; owner != sid {
				errs = append(errs, fmt.Errorf("%s: base %d held by %s: %w", sid, p, owner, ErrOccupiedSlot))
			}
			claimed++
		}
	}
	if claimed != len(d.slots) {
		errs = append(errs, fmt.Errorf("%d slots claimed, %d recorded: %w", claimed, len(d.slots), ErrOccupiedSlot))
	}

	for _, xid := range d.CrossOvers() {
		c, _ := d.xovers.get(Handle(xid))
		from, errFrom := d.End(c.From)
		to, errTo := d.End(c.To)
		if errFrom != nil || errTo != nil {
			errs = append(errs, fmt.Errorf("%s: %w", xid, ErrInvalidReference))
			continue
		}
		if c.From.Prime != ThreePrime || c.To.Prime != FivePrime || from.Helix == to.Helix {
			errs = append(errs, fmt.Errorf("%s %s->%s: %w", xid, c.From, c.To, ErrIncompatibleEnds))
		}
		if d.joins[c.From] != xid || d.joins[c.To] != xid {
			errs = append(errs, fmt.Errorf("%s: end index out of sync: %w", xid, ErrIncompatibleEnds))
		}
	}
	if len(d.joins) != 2*d.xovers.len() {
		errs = append(errs, fmt.Errorf("%d joined ends for %d cross-overs: %w", len(d.joins), d.xovers.len(), ErrIncompatibleEnds))
	}

	return errors.Join(errs...)
}
