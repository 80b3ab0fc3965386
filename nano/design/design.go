package design

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"icednano/nano/geom"
)

// Grid is an oriented lattice embedded in 3D space.
type Grid struct {
	Lattice     geom.Lattice
	Origin      geom.Vec3
	Orientation geom.Quat

	cells map[geom.Coord]HelixID
}

// Axis is the direction of helices anchored on the grid.
func (g Grid) Axis() geom.Vec3 { return g.Orientation.Rotate(geom.V3(1, 0, 0)) }

// U is the world direction of the lattice X axis.
func (g Grid) U() geom.Vec3 { return g.Orientation.Rotate(geom.V3(0, 0, 1)) }

// V is the world direction of the lattice Y axis.
func (g Grid) V() geom.Vec3 { return g.Orientation.Rotate(geom.V3(0, 1, 0)) }

// CellPosition is the world position of the lattice cell c.
func (g Grid) CellPosition(c geom.Coord) geom.Vec3 {
	l := g.Lattice.Local(c)
	return g.Origin.Add(g.U().Mul(l.X)).Add(g.V().Mul(l.Y))
}

// HelixAt returns the helix anchored at c.
func (g Grid) HelixAt(c geom.Coord) (HelixID, bool) {
	h, ok := g.cells[c]
	return h, ok
}

// Coords returns the occupied lattice coordinates, sorted by (Y, X).
func (g Grid) Coords() []geom.Coord {
	out := slices.Collect(maps.Keys(g.cells))
	slices.SortFunc(out, func(a, b geom.Coord) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	return out
}

// GridSpec describes a grid to add.
type GridSpec struct {
	Kind        geom.LatticeKind
	Spacing     float64
	Origin      geom.Vec3
	Orientation geom.Quat
}

// Helix is a rigid double-helix axis.
//
// While Free is false the pose is the one derived from the grid cell. Once a
// rotation moves it, Free is set and the stored pose is authoritative.
type Helix struct {
	Grid     GridID
	Coord    geom.Coord
	Attached bool
	Free     bool

	Position    geom.Vec3
	Orientation geom.Quat

	// Row orders helices in the 2D schematic view.
	Row int

	links []HelixID
}

// Axis is the world direction of increasing base positions.
func (h Helix) Axis() geom.Vec3 { return h.Orientation.Rotate(geom.V3(1, 0, 0)) }

// Links returns the helices rigidly linked to h.
func (h Helix) Links() []HelixID { return slices.Clone(h.links) }

type slotKey struct {
	helix   HelixID
	pos     int
	forward bool
}

// Design is the topology model. The zero value is not usable; call New.
type Design struct {
	ID   uuid.UUID
	Name string

	grids   arena[Grid]
	helices arena[Helix]
	strands arena[Strand]
	xovers  arena[CrossOver]

	slots   map[slotKey]StrandID
	joins   map[StrandEnd]CrossOverID
	nextRow int
}

// New returns an empty design with a fresh id.
func New(name string) *Design {
	return &Design{
		ID:    uuid.New(),
		Name:  name,
		slots: make(map[slotKey]StrandID),
		joins: make(map[StrandEnd]CrossOverID),
	}
}

// AddGrid adds an empty grid.
func (d *Design) AddGrid(spec GridSpec) GridID {
	q := spec.Orientation
	if q == (geom.Quat{}) {
		q = geom.QuatIdentity()
	}
	l := geom.Lattice{Kind: spec.Kind, Spacing: spec.Spacing}
	if l.Spacing <= 0 {
		l.Spacing = geom.LatticeSpacing
	}
	return GridID(d.grids.insert(Grid{
		Lattice:     l,
		Origin:      spec.Origin,
		Orientation: q.Normalized(),
		cells:       make(map[geom.Coord]HelixID),
	}))
}

// Grid returns a copy of the grid.
func (d *Design) Grid(id GridID) (Grid, bool) {
	g, ok := d.grids.get(Handle(id))
	if !ok {
		return Grid{}, false
	}
	return *g, true
}

// Grids returns all grid handles in creation-slot order.
func (d *Design) Grids() []GridID {
	hs := d.grids.handles()
	out := make([]GridID, len(hs))
	for i, h := range hs {
		out[i] = GridID(h)
	}
	return out
}

// AddHelixAt anchors a new helix on grid at coord.
func (d *Design) AddHelixAt(grid GridID, coord geom.Coord) (HelixID, error) {
	g, ok := d.grids.get(Handle(grid))
	if !ok {
		return HelixID{}, fmt.Errorf("add helix on %s: %w", grid, ErrInvalidReference)
	}
	if h, taken := g.cells[coord]; taken {
		return HelixID{}, fmt.Errorf("add helix at %s: held by %s: %w", coord, h, ErrOccupiedSlot)
	}
	id := d.insertHelix(Helix{
		Grid:        grid,
		Coord:       coord,
		Attached:    true,
		Position:    g.CellPosition(coord),
		Orientation: g.Orientation,
	})
	g.cells[coord] = id
	return id, nil
}

func (d *Design) insertHelix(h Helix) HelixID {
	h.Row = d.nextRow
	d.nextRow++
	return HelixID(d.helices.insert(h))
}

// Helix returns a copy of the helix.
func (d *Design) Helix(id HelixID) (Helix, bool) {
	h, ok := d.helices.get(Handle(id))
	if !ok {
		return Helix{}, false
	}
	return *h, true
}

// Helices returns all helix handles sorted by schematic row.
func (d *Design) Helices() []HelixID {
	hs := d.helices.handles()
	out := make([]HelixID, len(hs))
	for i, h := range hs {
		out[i] = HelixID(h)
	}
	slices.SortStableFunc(out, func(a, b HelixID) int {
		ha, _ := d.helices.get(Handle(a))
		hb, _ := d.helices.get(Handle(b))
		return ha.Row - hb.Row
	})
	return out
}

// DetachHelix removes the helix from its grid cell. The helix keeps its pose
// and its strands; the cell becomes free.
func (d *Design) DetachHelix(id HelixID) error {
	h, ok := d.helices.get(Handle(id))
	if !ok {
		return fmt.Errorf("detach %s: %w", id, ErrInvalidReference)
	}
	if !h.Attached {
		return nil
	}
	if g, ok := d.grids.get(Handle(h.Grid)); ok {
		delete(g.cells, h.Coord)
	}
	h.Attached = false
	h.Free = true
	return nil
}

// LinkRigid binds two helices so that rotating one moves the other.
func (d *Design) LinkRigid(a, b HelixID) error {
	ha, okA := d.helices.get(Handle(a))
	hb, okB := d.helices.get(Handle(b))
	if !okA || !okB {
		return fmt.Errorf("link %s-%s: %w", a, b, ErrInvalidReference)
	}
	if a == b || slices.Contains(ha.links, b) {
		return nil
	}
	ha.links = append(ha.links, b)
	hb.links = append(hb.links, a)
	return nil
}

// UnlinkRigid removes a rigid link. Missing links are ignored.
func (d *Design) UnlinkRigid(a, b HelixID) error {
	ha, okA := d.helices.get(Handle(a))
	hb, okB := d.helices.get(Handle(b))
	if !okA || !okB {
		return fmt.Errorf("unlink %s-%s: %w", a, b, ErrInvalidReference)
	}
	ha.links = slices.DeleteFunc(ha.links, func(x HelixID) bool { return x == b })
	hb.links = slices.DeleteFunc(hb.links, func(x HelixID) bool { return x == a })
	return nil
}

// RigidGroup returns id and every helix transitively linked to it, id first.
func (d *Design) RigidGroup(id HelixID) ([]HelixID, error) {
	if _, ok := d.helices.get(Handle(id)); !ok {
		return nil, fmt.Errorf("rigid group of %s: %w", id, ErrInvalidReference)
	}
	out := []HelixID{id}
	seen := map[HelixID]bool{id: true}
	for i := 0; i < len(out); i++ {
		h, _ := d.helices.get(Handle(out[i]))
		for _, n := range h.links {
			if seen[n] {
				continue
			}
			if _, ok := d.helices.get(Handle(n)); !ok {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

// SetHelixPose overrides the pose of a helix and marks it free-floating.
func (d *Design) SetHelixPose(id HelixID, pos geom.Vec3, q geom.Quat) error {
	h, ok := d.helices.get(Handle(id))
	if !ok {
		return fmt.Errorf("set pose of %s: %w", id, ErrInvalidReference)
	}
	h.Position = pos
	h.Orientation = q.Normalized()
	h.Free = true
	return nil
}

// Clone returns a deep copy that shares no mutable state with d.
func (d *Design) Clone() *Design {
	out := &Design{
		ID:      d.ID,
		Name:    d.Name,
		nextRow: d.nextRow,
		grids: d.grids.clone(func(g Grid) Grid {
			g.cells = maps.Clone(g.cells)
			return g
		}),
		helices: d.helices.clone(func(h Helix) Helix {
			h.links = slices.Clone(h.links)
			return h
		}),
		strands: d.strands.clone(func(s Strand) Strand { return s }),
		xovers:  d.xovers.clone(func(x CrossOver) CrossOver { return x }),
		slots:   maps.Clone(d.slots),
		joins:   maps.Clone(d.joins),
	}
	return out
}

// Stats counts entities.
type Stats struct {
	Grids      int
	Helices    int
	Strands    int
	CrossOvers int
	Bases      int
}

func (d *Design) Stats() Stats {
	return Stats{
		Grids:      d.grids.len(),
		Helices:    d.helices.len(),
		Strands:    d.strands.len(),
		CrossOvers: d.xovers.len(),
		Bases:      len(d.slots),
	}
}
