// Package rotate turns a helix, and every helix rigidly linked to it, around
// the selected helix's own axis.
//
// Only helix poses change. Slot and strand positions are derived from the
// pose, and cross-over topology is never touched.
package rotate

import (
	"errors"
	"fmt"
	"log/slog"

	"icednano/nano/design"
	"icednano/nano/geom"
	"icednano/nano/mode"
)

var (
	// ErrDisabled is returned when the mode does not allow rotation.
	ErrDisabled = errors.New("rotate: rotation not enabled in this mode")
	// ErrNotActive is returned by Drag when no rotation has begun.
	ErrNotActive = errors.New("rotate: no active rotation")
)

// DefaultSensitivity is the angle, in radians, for one pixel of drag.
const DefaultSensitivity = 0.01

// Engine tracks at most one active rotation.
type Engine struct {
	Sensitivity float64
	Logger      *slog.Logger

	active bool
	helix  design.HelixID
	group  []design.HelixID
	angle  float64
}

func New(sensitivity float64, logger *slog.Logger) *Engine {
	if sensitivity == 0 || !geom.Finite(sensitivity) {
		sensitivity = DefaultSensitivity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Sensitivity: sensitivity, Logger: logger}
}

// Active returns the helix being rotated.
func (e *Engine) Active() (design.HelixID, bool) { return e.helix, e.active }

// Angle returns the angle accumulated by the active rotation.
func (e *Engine) Angle() float64 { return e.angle }

// Begin starts rotating helix. Beginning on another helix while a rotation
// is active commits the current one first.
func (e *Engine) Begin(d *design.Design, m mode.State, helix design.HelixID) error {
	if !m.CanRotate() {
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
	e.active = true
	e.helix = helix
	e.group = group
	e.angle = 0
	e.Logger.Debug("rotate: begin", "helix", helix.String(), "group", len(group))
	return nil
}

// Drag rotates the group by angle radians.
func (e *Engine) Drag(d *design.Design, angle float64) error {
	if !e.active {
		return ErrNotActive
	}
	if !geom.Finite(angle) || angle == 0 {
		return nil
	}
	if err := Apply(d, e.group, e.helix, angle); err != nil {
		return err
	}
	e.angle += angle
	return nil
}

// DragPixels converts a horizontal drag delta to an angle.
func (e *Engine) DragPixels(d *design.Design, dx float64) error {
	return e.Drag(d, dx*e.Sensitivity)
}

// Commit ends the active rotation, keeping the new poses. It returns the
// rotated helix and the total angle.
func (e *Engine) Commit() (design.HelixID, float64) {
	h, a := e.helix, e.angle
	if e.active {
		e.Logger.Info("rotate: commit", "helix", h.String(), "angle", a)
	}
	e.reset()
	return h, a
}

// Cancel undoes the active rotation.
func (e *Engine) Cancel(d *design.Design) error {
	if !e.active {
		return nil
	}
	err := Apply(d, e.group, e.helix, -e.angle)
	e.reset()
	return err
}

func (e *Engine) reset() {
	e.active = false
	e.helix = design.HelixID{}
	e.group = nil
	e.angle = 0
}

// Apply rotates every helix of group by angle around the axis of pivot,
// through pivot's position. The group is validated before any pose changes.
func Apply(d *design.Design, group []design.HelixID, pivot design.HelixID, angle float64) error {
	p, ok := d.Helix(pivot)
	if !ok {
		return fmt.Errorf("rotate around %s: %w", pivot, design.ErrInvalidReference)
	}
	helices := make([]design.Helix, len(group))
	for i, id := range group {
		h, ok := d.Helix(id)
		if !ok {
			return fmt.Errorf("rotate %s: %w", id, design.ErrInvalidReference)
		}
		helices[i] = h
	}
	q := geom.QuatAxisAngle(p.Axis(), angle)
	for i, id := range group {
		h := helices[i]
		pos := geom.RotateAround(h.Position, p.Position, q)
		if err := d.SetHelixPose(id, pos, q.Mul(h.Orientation)); err != nil {
			return err
		}
	}
	return nil
}
