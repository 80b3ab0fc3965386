package design

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"icednano/nano/geom"
)

// SnapshotVersion is the document format written by Snapshot.
const SnapshotVersion = 1

// Snapshot is the serializable form of a design. Cross references are
// positions in the record slices, not arena handles.
type Snapshot struct {
	Version    int               `json:"version"`
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Grids      []GridRecord      `json:"grids"`
	Helices    []HelixRecord     `json:"helices"`
	Strands    []StrandRecord    `json:"strands"`
	CrossOvers []CrossOverRecord `json:"cross_overs"`
	RigidLinks [][2]int          `json:"rigid_links,omitempty"`
}

type GridRecord struct {
	Lattice     string     `json:"lattice"`
	Spacing     float64    `json:"spacing"`
	Origin      [3]float64 `json:"origin"`
	Orientation [4]float64 `json:"orientation"`
}

type HelixRecord struct {
	Grid        int        `json:"grid"`
	X           int        `json:"x"`
	Y           int        `json:"y"`
	Attached    bool       `json:"attached"`
	Free        bool       `json:"free,omitempty"`
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
}

type StrandRecord struct {
	Helix    int    `json:"helix"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Forward  bool   `json:"forward"`
	Sequence string `json:"sequence,omitempty"`
}

// EndRecord names a strand end by strand position and prime ("5" or "3").
type EndRecord struct {
	Strand int    `json:"strand"`
	Prime  string `json:"prime"`
}

type CrossOverRecord struct {
	From EndRecord `json:"from"`
	To   EndRecord `json:"to"`
}

func vec3Rec(v geom.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
func recVec3(r [3]float64) geom.Vec3 { return geom.V3(r[0], r[1], r[2]) }
func quatRec(q geom.Quat) [4]float64 { return [4]float64{q.W, q.X, q.Y, q.Z} }
func recQuat(r [4]float64) geom.Quat { return geom.Quat{W: r[0], X: r[1], Y: r[2], Z: r[3]} }

// unitTolerance is how far from unit length a stored quaternion may be
// before it is rejected rather than normalized.
const unitTolerance = 1e-3

func recOrientation(r [4]float64) (geom.Quat, bool) {
	n := math.Sqrt(r[0]*r[0] + r[1]*r[1] + r[2]*r[2] + r[3]*r[3])
	if !geom.Finite(n) || math.Abs(n-1) > unitTolerance {
		return geom.Quat{}, false
	}
	return recQuat(r).Normalized(), true
}

func finite3(r [3]float64) bool {
	return geom.Finite(r[0]) && geom.Finite(r[1]) && geom.Finite(r[2])
}

func primeRec(p Prime) string {
	if p == FivePrime {
		return "5"
	}
	return "3"
}

func recPrime(s string) (Prime, bool) {
	switch s {
	case "5":
		return FivePrime, true
	case "3":
		return ThreePrime, true
	}
	return 0, false
}

// Snapshot captures the design. Helices are written in schematic row order.
func (d *Design) Snapshot() Snapshot {
	snap := Snapshot{
		Version:    SnapshotVersion,
		ID:         d.ID.String(),
		Name:       d.Name,
		Grids:      []GridRecord{},
		Helices:    []HelixRecord{},
		Strands:    []StrandRecord{},
		CrossOvers: []CrossOverRecord{},
	}

	gridIdx := make(map[GridID]int)
	for i, id := range d.Grids() {
		g, _ := d.grids.get(Handle(id))
		gridIdx[id] = i
		snap.Grids = append(snap.Grids, GridRecord{
			Lattice:     g.Lattice.Kind.String(),
			Spacing:     g.Lattice.Spacing,
			Origin:      vec3Rec(g.Origin),
			Orientation: quatRec(g.Orientation),
		})
	}

	helixIdx := make(map[HelixID]int)
	helices := d.Helices()
	for i, id := range helices {
		h, _ := d.helices.get(Handle(id))
		helixIdx[id] = i
		snap.Helices = append(snap.Helices, HelixRecord{
			Grid:        gridIdx[h.Grid],
			X:           h.Coord.X,
			Y:           h.Coord.Y,
			Attached:    h.Attached,
			Free:        h.Free,
			Position:    vec3Rec(h.Position),
			Orientation: quatRec(h.Orientation),
		})
	}
	for _, id := range helices {
		h, _ := d.helices.get(Handle(id))
		for _, n := range h.links {
			a, b := helixIdx[id], helixIdx[n]
			if a < b {
				snap.RigidLinks = append(snap.RigidLinks, [2]int{a, b})
			}
		}
	}

	strandIdx := make(map[StrandID]int)
	for i, id := range d.Strands() {
		s, _ := d.strands.get(Handle(id))
		strandIdx[id] = i
		snap.Strands = append(snap.Strands, StrandRecord{
			Helix:    helixIdx[s.Helix],
			Start:    s.Range.Start,
			End:      s.Range.End,
			Forward:  s.Range.Forward,
			Sequence: s.Sequence,
		})
	}

	for _, id := range d.CrossOvers() {
		c, _ := d.xovers.get(Handle(id))
		snap.CrossOvers = append(snap.CrossOvers, CrossOverRecord{
			From: EndRecord{Strand: strandIdx[c.From.Strand], Prime: primeRec(c.From.Prime)},
			To:   EndRecord{Strand: strandIdx[c.To.Strand], Prime: primeRec(c.To.Prime)},
		})
	}
	return snap
}

// FromSnapshot rebuilds a design. It either returns a valid design or an
// error wrapping ErrSerialization; no partial design escapes.
func FromSnapshot(snap Snapshot) (*Design, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d: %w", snap.Version, ErrSerialization)
	}
	d := New(snap.Name)
	if snap.ID != "" {
		id, err := uuid.Parse(snap.ID)
		if err != nil {
			return nil, fmt.Errorf("snapshot id %q: %v: %w", snap.ID, err, ErrSerialization)
		}
		d.ID = id
	}

	grids := make([]GridID, len(snap.Grids))
	for i, g := range snap.Grids {
		kind, ok := geom.ParseLatticeKind(g.Lattice)
		if !ok {
			return nil, fmt.Errorf("grid %d: lattice %q: %w", i, g.Lattice, ErrSerialization)
		}
		spec := GridSpec{Kind: kind, Spacing: g.Spacing, Origin: recVec3(g.Origin)}
		if !finite3(g.Origin) || !geom.Finite(g.Spacing) {
			return nil, fmt.Errorf("grid %d: non-finite placement: %w", i, ErrSerialization)
		}
		// A zero orientation is the identity.
		if g.Orientation != ([4]float64{}) {
			q, ok := recOrientation(g.Orientation)
			if !ok {
				return nil, fmt.Errorf("grid %d: orientation %v: %w", i, g.Orientation, ErrSerialization)
			}
			spec.Orientation = q
		}
		grids[i] = d.AddGrid(spec)
	}

	helices := make([]HelixID, len(snap.Helices))
	for i, h := range snap.Helices {
		if h.Grid < 0 || h.Grid >= len(grids) {
			return nil, fmt.Errorf("helix %d: grid %d: %w", i, h.Grid, ErrSerialization)
		}
		coord := geom.Coord{X: h.X, Y: h.Y}
		var (
			pos geom.Vec3
			q   geom.Quat
		)
		if !h.Attached || h.Free {
			var ok bool
			if q, ok = recOrientation(h.Orientation); !ok || !finite3(h.Position) {
				return nil, fmt.Errorf("helix %d: pose %v %v: %w", i, h.Position, h.Orientation, ErrSerialization)
			}
			pos = recVec3(h.Position)
		}
		if !h.Attached {
			helices[i] = d.insertHelix(Helix{
				Grid:        grids[h.Grid],
				Coord:       coord,
				Free:        true,
				Position:    pos,
				Orientation: q,
			})
			continue
		}
		id, err := d.AddHelixAt(grids[h.Grid], coord)
		if err != nil {
			return nil, fmt.Errorf("helix %d: %v: %w", i, err, ErrSerialization)
		}
		if h.Free {
			helix, _ := d.helices.get(Handle(id))
			helix.Free = true
			helix.Position = pos
			helix.Orientation = q
		}
		helices[i] = id
	}
	for _, l := range snap.RigidLinks {
		if l[0] < 0 || l[0] >= len(helices) || l[1] < 0 || l[1] >= len(helices) {
			return nil, fmt.Errorf("rigid link %v: %w", l, ErrSerialization)
		}
		_ = d.LinkRigid(helices[l[0]], helices[l[1]])
	}

	strands := make([]StrandID, len(snap.Strands))
	for i, s := range snap.Strands {
		if s.Helix < 0 || s.Helix >= len(helices) {
			return nil, fmt.Errorf("strand %d: helix %d: %w", i, s.Helix, ErrSerialization)
		}
		r := Range{Start: s.Start, End: s.End, Forward: s.Forward}
		if !r.Valid() {
			return nil, fmt.Errorf("strand %d: range %s exceeds %d bases or ±%d: %w", i, r, MaxStrandLength, MaxPosition, ErrSerialization)
		}
		id, err := d.AddStrandSegment(helices[s.Helix], r)
		if err != nil {
			return nil, fmt.Errorf("strand %d: %v: %w", i, err, ErrSerialization)
		}
		if err := d.SetSequence(id, s.Sequence); err != nil {
			return nil, fmt.Errorf("strand %d: %v: %w", i, err, ErrSerialization)
		}
		strands[i] = id
	}

	end := func(r EndRecord) (StrandEnd, error) {
		p, ok := recPrime(r.Prime)
		if !ok || r.Strand < 0 || r.Strand >= len(strands) {
			return StrandEnd{}, fmt.Errorf("end %+v: %w", r, ErrSerialization)
		}
		return StrandEnd{Strand: strands[r.Strand], Prime: p}, nil
	}
	for i, c := range snap.CrossOvers {
		from, err := end(c.From)
		if err != nil {
			return nil, fmt.Errorf("cross-over %d: %w", i, err)
		}
		to, err := end(c.To)
		if err != nil {
			return nil, fmt.Errorf("cross-over %d: %w", i, err)
		}
		if _, err := d.Join(from, to); err != nil {
			return nil, fmt.Errorf("cross-over %d: %v: %w", i, err, ErrSerialization)
		}
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSerialization)
	}
	return d, nil
}
