package geom

import (
	"fmt"
	"math"
)

// Helix and lattice constants, in nanometers.
const (
	HelixRadius    = 1.0
	InterHelixGap  = 0.65
	LatticeSpacing = 2*HelixRadius + InterHelixGap
	BaseRise       = 0.332
	BasesPerTurn   = 10.44
)

// Coord is an integer lattice coordinate.
type Coord struct {
	X, Y int
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// LatticeKind selects the cell arrangement of a grid.
type LatticeKind uint8

const (
	LatticeSquare LatticeKind = iota
	LatticeHoneycomb
)

func (k LatticeKind) String() string {
	switch k {
	case LatticeSquare:
		return "square"
	case LatticeHoneycomb:
		return "honeycomb"
	default:
		return "unknown"
	}
}

// ParseLatticeKind is the inverse of LatticeKind.String.
func ParseLatticeKind(s string) (LatticeKind, bool) {
	switch s {
	case "square":
		return LatticeSquare, true
	case "honeycomb":
		return LatticeHoneycomb, true
	default:
		return 0, false
	}
}

// Lattice maps lattice coordinates to the grid plane.
type Lattice struct {
	Kind    LatticeKind
	Spacing float64
}

// DefaultLattice returns a lattice with the standard helix spacing.
func DefaultLattice(kind LatticeKind) Lattice {
	return Lattice{Kind: kind, Spacing: LatticeSpacing}
}

func (l Lattice) spacing() float64 {
	if l.Spacing <= 0 {
		return LatticeSpacing
	}
	return l.Spacing
}

// Local returns the position of c in grid-plane units.
//
// Honeycomb cells have three neighbours at exactly Spacing: (x±1, y) and
// (x, y-1) when x+y is even, (x, y+1) when odd.
func (l Lattice) Local(c Coord) Vec2 {
	s := l.spacing()
	switch l.Kind {
	case LatticeHoneycomb:
		r := s / 2
		y := float64(c.Y) * 3 * r
		if (c.X+c.Y)&1 != 0 {
			y += r
		}
		return V2(float64(c.X)*r*math.Sqrt(3), y)
	default:
		return V2(float64(c.X)*s, float64(c.Y)*s)
	}
}

// Nearest returns the coordinate whose cell center is closest to p, and
// whether p lies within one helix radius of it.
func (l Lattice) Nearest(p Vec2) (Coord, bool) {
	s := l.spacing()
	switch l.Kind {
	case LatticeHoneycomb:
		r := s / 2
		cx := int(math.Round(p.X / (r * math.Sqrt(3))))
		cy := int(math.Round(p.Y / (3 * r)))
		best := Coord{cx, cy}
		bestD := math.Inf(1)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				c := Coord{cx + dx, cy + dy}
				if d := l.Local(c).Dist(p); d < bestD {
					best, bestD = c, d
				}
			}
		}
		return best, bestD <= s/2
	default:
		c := Coord{int(math.Round(p.X / s)), int(math.Round(p.Y / s))}
		return c, l.Local(c).Dist(p) <= s/2
	}
}

// Bounds returns the min/max coordinates covering cs, padded by pad cells.
func Bounds(cs []Coord, pad int) (lo, hi Coord) {
	if len(cs) == 0 {
		return Coord{-pad, -pad}, Coord{pad, pad}
	}
	lo, hi = cs[0], cs[0]
	for _, c := range cs[1:] {
		lo.X = min(lo.X, c.X)
		lo.Y = min(lo.Y, c.Y)
		hi.X = max(hi.X, c.X)
		hi.Y = max(hi.Y, c.Y)
	}
	return Coord{lo.X - pad, lo.Y - pad}, Coord{hi.X + pad, hi.Y + pad}
}
