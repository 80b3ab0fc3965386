// Package xover implements the cross-over gesture: drag from a free strand
// end onto a compatible free end on another helix to join them, or click a
// cross-over extremity to cut it.
//
// The engine only reacts to input coming from the 2D view. It is a plain
// state machine over (model, mode, input); it keeps no model state between
// calls except the drag origin.
package xover

import (
	"fmt"
	"log/slog"

	"icednano/nano/design"
	"icednano/nano/flat"
	"icednano/nano/geom"
	"icednano/nano/mode"
)

// DefaultPickRadius is the pick radius in screen pixels.
const DefaultPickRadius = 12.0

// State is the phase of the drag gesture.
type State uint8

const (
	Idle State = iota
	Dragging
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", s)
	}
}

// Input is one pointer sample.
type Input struct {
	View     mode.View
	Screen   geom.Vec2
	Viewport geom.ViewState
}

// Result reports how a gesture ended.
type Result struct {
	State     State
	CrossOver design.CrossOverID
	Err       error
}

// Engine runs the drag gesture.
type Engine struct {
	PickRadius float64
	Logger     *slog.Logger

	state     State
	origin    design.EndInfo
	candidate design.EndInfo
	hasCand   bool
	pointer   geom.Vec2
}

// New returns an idle engine. A non-positive radius selects DefaultPickRadius.
func New(radius float64, logger *slog.Logger) *Engine {
	if radius <= 0 {
		radius = DefaultPickRadius
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{PickRadius: radius, Logger: logger}
}

func (e *Engine) State() State { return e.state }

// Origin returns the end the current drag started from.
func (e *Engine) Origin() (design.EndInfo, bool) {
	return e.origin, e.state == Dragging
}

// Candidate returns the end currently under the pointer while dragging.
func (e *Engine) Candidate() (design.EndInfo, bool) {
	return e.candidate, e.state == Dragging && e.hasCand
}

// Pointer returns the last pointer position seen during a drag.
func (e *Engine) Pointer() geom.Vec2 { return e.pointer }

// Reset returns to Idle, dropping any drag in progress.
func (e *Engine) Reset() {
	e.state = Idle
	e.hasCand = false
	e.origin = design.EndInfo{}
	e.candidate = design.EndInfo{}
}

// PointerDown starts a drag when the pointer is over a free strand end and
// building is enabled in the input's view. It reports whether a drag started.
func (e *Engine) PointerDown(d *design.Design, m mode.State, in Input) bool {
	if !m.CanBuild(in.View) || e.state == Dragging {
		return false
	}
	if in.Viewport.Validate() != nil {
		return false
	}
	end, ok := e.pick(d, in, func(design.EndInfo) bool { return true })
	if !ok {
		return false
	}
	e.Reset()
	e.state = Dragging
	e.origin = end
	e.pointer = in.Screen
	e.Logger.Debug("xover: drag started", "end", end.End.String(), "helix", end.Helix.String(), "pos", end.Pos)
	return true
}

// PointerMove updates the candidate under the pointer. The model is not
// touched.
func (e *Engine) PointerMove(d *design.Design, m mode.State, in Input) {
	if e.state != Dragging || in.View != mode.View2D {
		return
	}
	e.pointer = in.Screen
	e.candidate, e.hasCand = e.pick(d, in, e.compatible)
}

// PointerUp ends the drag. With a compatible end under the pointer it joins
// the two ends and the engine is Committed; otherwise it is Cancelled and the
// model is unchanged.
func (e *Engine) PointerUp(d *design.Design, m mode.State, in Input) Result {
	if e.state != Dragging {
		return Result{State: e.state}
	}
	if !m.CanBuild(in.View) {
		e.finish(Cancelled)
		return Result{State: Cancelled}
	}
	e.PointerMove(d, m, in)
	if !e.hasCand {
		e.finish(Cancelled)
		return Result{State: Cancelled}
	}
	id, err := d.Join(e.origin.End, e.candidate.End)
	if err != nil {
		e.Logger.Debug("xover: join rejected", "from", e.origin.End.String(), "to", e.candidate.End.String(), "err", err)
		e.finish(Cancelled)
		return Result{State: Cancelled, Err: err}
	}
	e.Logger.Info("xover: joined", "xover", id.String(), "from", e.origin.End.String(), "to", e.candidate.End.String())
	e.finish(Committed)
	return Result{State: Committed, CrossOver: id}
}

func (e *Engine) finish(s State) {
	e.state = s
	e.hasCand = false
}

func (e *Engine) compatible(c design.EndInfo) bool {
	return c.Helix != e.origin.Helix && c.End.Prime != e.origin.End.Prime
}

// pick returns the free end nearest to the pointer within PickRadius that
// passes keep. Ties go to the lower strand index, then the 5' end.
func (e *Engine) pick(d *design.Design, in Input, keep func(design.EndInfo) bool) (design.EndInfo, bool) {
	layout := flat.New(d)
	var (
		best  design.EndInfo
		bestD float64
		found bool
	)
	for _, end := range d.FreeEnds() {
		if !keep(end) {
			continue
		}
		p, ok := layout.End(end)
		if !ok {
			continue
		}
		dist := in.Viewport.ToScreen(p).Dist(in.Screen)
		if dist > e.PickRadius {
			continue
		}
		if !found || dist < bestD || (dist == bestD && lessEnd(end.End, best.End)) {
			best, bestD, found = end, dist, true
		}
	}
	return best, found
}

func lessEnd(a, b design.StrandEnd) bool {
	if a.Strand.Index != b.Strand.Index {
		return a.Strand.Index < b.Strand.Index
	}
	return a.Prime < b.Prime
}

// Cut removes the cross-over whose extremity is nearest to the pointer within
// PickRadius. It reports whether one was removed.
func (e *Engine) Cut(d *design.Design, m mode.State, in Input) (design.CrossOverID, bool, error) {
	if !m.CanCut(in.View) {
		return design.CrossOverID{}, false, nil
	}
	if err := in.Viewport.Validate(); err != nil {
		return design.CrossOverID{}, false, err
	}
	layout := flat.New(d)
	var (
		best  design.CrossOverID
		bestD float64
		found bool
	)
	for _, id := range d.CrossOvers() {
		c, _ := d.CrossOver(id)
		for _, se := range [...]design.StrandEnd{c.From, c.To} {
			info, err := d.End(se)
			if err != nil {
				continue
			}
			p, ok := layout.End(info)
			if !ok {
				continue
			}
			dist := in.Viewport.ToScreen(p).Dist(in.Screen)
			if dist > e.PickRadius {
				continue
			}
			if !found || dist < bestD || (dist == bestD && id.Index < best.Index) {
				best, bestD, found = id, dist, true
			}
		}
	}
	if !found {
		return design.CrossOverID{}, false, nil
	}
	if err := d.RemoveCrossOver(best); err != nil {
		return design.CrossOverID{}, false, err
	}
	e.Logger.Info("xover: cut", "xover", best.String())
	return best, true, nil
}
