// Package translate slides a helix, and every helix rigidly linked to it,
// along one axis of its frame: the helix axis or one of the two lattice
// directions of its grid.
//
// A drag in the 3D view grabs the axis whose on-screen direction best
// matches the first few pixels of motion and keeps it until the drag ends,
// like pulling one arrow of a move handle. Moved helices become free of the
// lattice; topology is never touched.
package translate

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"icednano/nano/design"
	"icednano/nano/geom"
	"icednano/nano/mode"
)

var (
	// ErrDisabled is returned when the mode does not allow translation.
	ErrDisabled = errors.New("translate: translation not enabled in this mode")
	// ErrNotActive is returned by Drag when no translation has begun.
	ErrNotActive = errors.New("translate: no active translation")
)

// LockPixels is how far the pointer moves before an axis is chosen.
const LockPixels = 4

// Axis names a direction of the helix frame.
type Axis uint8

const (
	AxisNone Axis = iota
	// AxisHelix runs along the helix.
	AxisHelix
	// AxisU and AxisV are the lattice directions of the helix's grid.
	AxisU
	AxisV
)

var axisNames = [...]string{"none", "helix", "u", "v"}

func (a Axis) String() string {
	if int(a) < len(axisNames) {
		return axisNames[a]
	}
	return fmt.Sprintf("axis(%d)", a)
}

// Engine tracks at most one active translation.
type Engine struct {
	Logger *slog.Logger

	active  bool
	helix   design.HelixID
	group   []design.HelixID
	axis    Axis
	pending geom.Vec2
	offset  geom.Vec3
}

func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Logger: logger}
}

// Active returns the helix being moved.
func (e *Engine) Active() (design.HelixID, bool) { return e.helix, e.active }

// Axis returns the grabbed axis, AxisNone until the drag has chosen one.
func (e *Engine) Axis() Axis { return e.axis }

// Offset returns the displacement accumulated by the active translation.
func (e *Engine) Offset() geom.Vec3 { return e.offset }

// Begin starts moving helix. Beginning on another helix while a translation
// is active commits the current one first.
func (e *Engine) Begin(d *design.Design, m mode.State, helix design.HelixID) error {
	if !m.CanTranslate() {
		return fmt.Errorf("begin on %s in %s: %w", helix, m, ErrDisabled)
	}
	if e.active && e.helix == helix {
		return nil
	}
	group, err := d.RigidGroup(helix)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if e.active {
		e.Commit()
	}
	e.reset()
	e.active = true
	e.helix = helix
	e.group = group
	e.Logger.Debug("translate: begin", "helix", helix.String(), "group", len(group))
	return nil
}

// Direction returns the unit world direction of axis for helix.
func Direction(d *design.Design, helix design.HelixID, axis Axis) (geom.Vec3, error) {
	h, ok := d.Helix(helix)
	if !ok {
		return geom.Vec3{}, fmt.Errorf("axis of %s: %w", helix, design.ErrInvalidReference)
	}
	g, ok := d.Grid(h.Grid)
	if !ok {
		return geom.Vec3{}, fmt.Errorf("grid of %s: %w", helix, design.ErrInvalidReference)
	}
	switch axis {
	case AxisHelix:
		return h.Axis(), nil
	case AxisU:
		return g.U(), nil
	case AxisV:
		return g.V(), nil
	}
	return geom.Vec3{}, fmt.Errorf("axis %s: %w", axis, design.ErrOutOfRange)
}

// Drag moves the group by delta.
func (e *Engine) Drag(d *design.Design, delta geom.Vec3) error {
	if !e.active {
		return ErrNotActive
	}
	if !geom.Finite(delta.X) || !geom.Finite(delta.Y) || !geom.Finite(delta.Z) || delta == (geom.Vec3{}) {
		return nil
	}
	if err := Apply(d, e.group, delta); err != nil {
		return err
	}
	e.offset = e.offset.Add(delta)
	return nil
}

// DragPixels converts a pointer delta in a width×height view of cam into a
// move along the grabbed axis, grabbing one first if needed.
func (e *Engine) DragPixels(d *design.Design, cam geom.Camera, width, height int, dx, dy float64) error {
	if !e.active {
		return ErrNotActive
	}
	drag := geom.V2(dx, dy)
	if e.axis == AxisNone {
		e.pending = e.pending.Add(drag)
		if e.pending.Len() < LockPixels {
			return nil
		}
		drag, e.pending = e.pending, geom.Vec2{}
		axis, err := e.grab(d, cam, width, height, drag)
		if err != nil || axis == AxisNone {
			return err
		}
		e.axis = axis
		e.Logger.Debug("translate: axis", "helix", e.helix.String(), "axis", axis.String())
	}
	dir, px, ok, err := e.screenAxis(d, cam, width, height, e.axis)
	if err != nil || !ok {
		return err
	}
	// px is the screen motion of one world unit along dir.
	dist := (drag.X*px.X + drag.Y*px.Y) / (px.X*px.X + px.Y*px.Y)
	return e.Drag(d, dir.Mul(dist))
}

// grab picks the axis whose screen direction is most aligned with drag.
func (e *Engine) grab(d *design.Design, cam geom.Camera, width, height int, drag geom.Vec2) (Axis, error) {
	best, bestScore := AxisNone, 0.0
	for _, a := range [...]Axis{AxisHelix, AxisU, AxisV} {
		_, px, ok, err := e.screenAxis(d, cam, width, height, a)
		if err != nil {
			return AxisNone, err
		}
		if !ok {
			continue
		}
		score := math.Abs(drag.X*px.X+drag.Y*px.Y) / px.Len()
		if score > bestScore {
			best, bestScore = a, score
		}
	}
	return best, nil
}

// minAxisPixels is the shortest screen image of a unit axis that can be
// dragged; shorter axes point at the camera.
const minAxisPixels = 1e-3

func (e *Engine) screenAxis(d *design.Design, cam geom.Camera, width, height int, a Axis) (geom.Vec3, geom.Vec2, bool, error) {
	dir, err := Direction(d, e.helix, a)
	if err != nil {
		return geom.Vec3{}, geom.Vec2{}, false, err
	}
	h, _ := d.Helix(e.helix)
	p0, ok0 := cam.ToScreen(h.Position, width, height)
	p1, ok1 := cam.ToScreen(h.Position.Add(dir), width, height)
	if !ok0 || !ok1 {
		return dir, geom.Vec2{}, false, nil
	}
	px := p1.Sub(p0)
	if px.Len() < minAxisPixels {
		return dir, px, false, nil
	}
	return dir, px, true, nil
}

// Commit ends the active translation, keeping the new poses. It returns the
// moved helix and the total displacement.
func (e *Engine) Commit() (design.HelixID, geom.Vec3) {
	h, off := e.helix, e.offset
	if e.active {
		e.Logger.Info("translate: commit", "helix", h.String(), "axis", e.axis.String(), "offset", off.Len())
	}
	e.reset()
	return h, off
}

// Cancel moves the group back to where the translation began.
func (e *Engine) Cancel(d *design.Design) error {
	if !e.active {
		return nil
	}
	var err error
	if e.offset != (geom.Vec3{}) {
		err = Apply(d, e.group, e.offset.Mul(-1))
	}
	e.reset()
	return err
}

func (e *Engine) reset() {
	e.active = false
	e.helix = design.HelixID{}
	e.group = nil
	e.axis = AxisNone
	e.pending = geom.Vec2{}
	e.offset = geom.Vec3{}
}

// Apply moves every helix of group by delta. The group is validated before
// any pose changes.
func Apply(d *design.Design, group []design.HelixID, delta geom.Vec3) error {
	helices := make([]design.Helix, len(group))
	for i, id := range group {
		h, ok := d.Helix(id)
		if !ok {
			return fmt.Errorf("translate %s: %w", id, design.ErrInvalidReference)
		}
		helices[i] = h
	}
	for i, id := range group {
		h := helices[i]
		if err := d.SetHelixPose(id, h.Position.Add(delta), h.Orientation); err != nil {
			return err
		}
	}
	return nil
}
