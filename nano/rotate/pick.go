package rotate

import (
	"icednano/nano/design"
	"icednano/nano/geom"
)

// PickHelix returns the helix whose axis passes nearest to screen in a
// width×height 3D view, within radius pixels. The axis is sampled at both
// ends and the middle of the helix extent; ties go to the lower helix index.
func PickHelix(d *design.Design, cam geom.Camera, width, height int, screen geom.Vec2, radius float64) (design.HelixID, bool) {
	var (
		best  design.HelixID
		bestD float64
		found bool
	)
	for _, id := range d.Helices() {
		h, _ := d.Helix(id)
		lo, hi := d.HelixExtent(id)
		for _, pos := range [...]int{lo, (lo + hi) / 2, hi} {
			p, ok := cam.ToScreen(h.AxisPoint(pos), width, height)
			if !ok {
				continue
			}
			dist := p.Dist(screen)
			if dist > radius {
				continue
			}
			if !found || dist < bestD || (dist == bestD && id.Index < best.Index) {
				best, bestD, found = id, dist, true
			}
		}
	}
	return best, found
}
