package app

import (
	"image"

	"icednano/hal"
	"icednano/nano/geom"
	"icednano/nano/mode"
	"icednano/nano/session"
)

// hudHeight is the status bar height in pixels.
const hudHeight = 12

// layout splits the framebuffer into the 2D view on the left, the 3D view
// on the right and the status bar underneath.
type layout struct {
	w, h  int
	flat  image.Rectangle
	space image.Rectangle
	hud   image.Rectangle
}

func newLayout(w, h int) layout {
	bar := hudHeight
	if h < 4*hudHeight {
		bar = 0
	}
	viewH := h - bar
	split := w / 2
	return layout{
		w:     w,
		h:     h,
		flat:  image.Rect(0, 0, split, viewH),
		space: image.Rect(split, 0, w, viewH),
		hud:   image.Rect(0, viewH, w, h),
	}
}

func (l layout) size(r image.Rectangle) [2]int { return [2]int{r.Dx(), r.Dy()} }

// viewAt returns the view under p and p in that view's coordinates.
func (l layout) viewAt(p image.Point) (mode.View, geom.Vec2, bool) {
	switch {
	case p.In(l.flat):
		return mode.View2D, l.local(mode.View2D, p), true
	case p.In(l.space):
		return mode.View3D, l.local(mode.View3D, p), true
	}
	return 0, geom.Vec2{}, false
}

func (l layout) local(v mode.View, p image.Point) geom.Vec2 {
	r := l.flat
	if v == mode.View3D {
		r = l.space
	}
	q := p.Sub(r.Min)
	return geom.V2(float64(q.X), float64(q.Y))
}

// Key bindings:
//
//	1-5        select, build, rotate, cut, translate
//	g h s x    select grids, helices, strands, cross-overs
//	Tab        next selection mode
//	f          fit both views
//	Esc        cancel the gesture in progress
//	Ctrl+S/O/N save, open, new
//	Ctrl+Z/Y   undo, redo
//	Ctrl+Q     quit
var actionKeys = map[rune]mode.Action{
	'1': mode.ActionSelect,
	'2': mode.ActionBuild,
	'3': mode.ActionRotate,
	'4': mode.ActionCut,
	'5': mode.ActionTranslate,
}

var selectionKeys = map[rune]mode.Selection{
	'g': mode.SelectGrid,
	'h': mode.SelectHelix,
	's': mode.SelectStrand,
	'x': mode.SelectCrossOver,
}

func (a *App) handleKey(ev hal.KeyEvent) error {
	if !ev.Press {
		return nil
	}
	if ev.Ctrl && ev.Rune != 0 {
		switch ev.Rune {
		case 's':
			a.save()
		case 'o':
			a.open()
		case 'n':
			a.newDesign()
		case 'z':
			a.sess.Post(session.Event{Kind: session.EventUndo})
		case 'y':
			a.sess.Post(session.Event{Kind: session.EventRedo})
		case 'q':
			return ErrQuit
		}
		return nil
	}
	switch ev.Code {
	case hal.KeyEscape:
		a.sess.Post(session.Event{Kind: session.EventCancel})
		return nil
	case hal.KeyTab:
		a.sess.Post(session.Event{Kind: session.EventCycleSelection})
		return nil
	}
	if act, ok := actionKeys[ev.Rune]; ok {
		a.sess.Post(session.Event{Kind: session.EventSetAction, Action: act})
		return nil
	}
	if sel, ok := selectionKeys[ev.Rune]; ok {
		a.sess.Post(session.Event{Kind: session.EventSetSelection, Selection: sel})
		return nil
	}
	if ev.Rune == 'f' {
		a.sess.Post(session.Event{Kind: session.EventFit})
	}
	return nil
}

// handlePointer routes pointer input. A press captures the pointer for the
// view it lands in until the matching release, so drags may leave the view.
func (a *App) handlePointer(ev hal.PointerEvent) {
	p := image.Pt(ev.X, ev.Y)
	switch ev.Kind {
	case hal.PointerDown:
		if ev.Button == 1 {
			a.sess.Post(session.Event{Kind: session.EventCancel})
			return
		}
		if ev.Button != 0 || a.captured {
			return
		}
		v, at, ok := a.layout.viewAt(p)
		if !ok {
			return
		}
		a.captured, a.capView = true, v
		a.sess.Post(session.Event{Kind: session.EventPointerDown, View: v, Screen: at})
	case hal.PointerMove:
		if a.captured {
			a.sess.Post(session.Event{Kind: session.EventPointerMove, View: a.capView, Screen: a.layout.local(a.capView, p)})
		}
	case hal.PointerUp:
		if ev.Button != 0 || !a.captured {
			return
		}
		a.captured = false
		a.sess.Post(session.Event{Kind: session.EventPointerUp, View: a.capView, Screen: a.layout.local(a.capView, p)})
	case hal.PointerWheel:
		if v, at, ok := a.layout.viewAt(p); ok {
			a.sess.Post(session.Event{Kind: session.EventWheel, View: v, Screen: at, Delta: geom.V2(0, ev.WheelY)})
		}
	}
}
