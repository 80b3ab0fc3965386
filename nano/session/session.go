// Package session owns the design being edited.
//
// Input events are posted to a bounded mailbox from any goroutine and applied
// one at a time by Step, under the write lock. Rendering and saving work on
// deep copies taken under the read lock, so they never observe a half-applied
// gesture.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"icednano/nano/design"
	"icednano/nano/flat"
	"icednano/nano/geom"
	"icednano/nano/mode"
	"icednano/nano/render"
	"icednano/nano/rotate"
	"icednano/nano/store"
	"icednano/nano/translate"
	"icednano/nano/xover"
)

// ErrNoPath is returned by Save when neither a target nor a previous save
// path is known.
var ErrNoPath = errors.New("session: no save path")

// Observer receives gesture outcomes.
type Observer interface {
	ObserveGesture(kind, outcome string)
}

// Options configures a session. Zero values select defaults.
type Options struct {
	MailboxSlots int
	PickRadius   float64
	Sensitivity  float64
	// FlatSize and SpaceSize are the pixel sizes of the 2D and 3D views.
	FlatSize  [2]int
	SpaceSize [2]int
	Zoom      float64
	// HistoryLimit bounds undo and redo steps.
	HistoryLimit int

	Logger   *slog.Logger
	Observer Observer
	Saver    *store.Saver
	Journal  *store.Journal
}

const (
	defaultViewW = 640
	defaultViewH = 480
	defaultZoom  = 20
	orbitPerPx   = 0.01
	wheelFactor  = 1.1
)

// Session serializes edits to one design.
type Session struct {
	logger   *slog.Logger
	observer Observer
	saver    *store.Saver
	journal  *store.Journal
	box      *mailbox
	scratch  []Event

	mu        sync.RWMutex
	d         *design.Design
	mode      mode.State
	flatView  geom.ViewState
	orbit     geom.Orbit
	cam       geom.Camera
	spaceSize [2]int
	xo        *xover.Engine
	rot       *rotate.Engine
	tr        *translate.Engine
	hist      history

	panning   bool
	orbiting  bool
	lastPtr   geom.Vec2
	revision  uint64
	saved     uint64
	autosaved uint64
	path      string
}

// New starts a session on d. A nil d starts from an empty design.
func New(d *design.Design, opts Options) *Session {
	if d == nil {
		d = design.New("untitled")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FlatSize[0] <= 0 || opts.FlatSize[1] <= 0 {
		opts.FlatSize = [2]int{defaultViewW, defaultViewH}
	}
	if opts.SpaceSize[0] <= 0 || opts.SpaceSize[1] <= 0 {
		opts.SpaceSize = [2]int{defaultViewW, defaultViewH}
	}
	if opts.Zoom <= 0 {
		opts.Zoom = defaultZoom
	}
	s := &Session{
		logger:    opts.Logger,
		observer:  opts.Observer,
		saver:     opts.Saver,
		journal:   opts.Journal,
		box:       newMailbox(opts.MailboxSlots),
		d:         d,
		mode:      mode.Default(),
		flatView:  geom.NewViewState(opts.FlatSize[0], opts.FlatSize[1], opts.Zoom),
		orbit:     geom.Orbit{Radius: 30, MinRadius: 2, MaxRadius: 2000},
		cam:       geom.DefaultCamera(),
		spaceSize: opts.SpaceSize,
		xo:        xover.New(opts.PickRadius, opts.Logger),
		rot:       rotate.New(opts.Sensitivity, opts.Logger),
		tr:        translate.New(opts.Logger),
		hist:      newHistory(d, opts.HistoryLimit),
	}
	s.orbit.Apply(&s.cam)
	return s
}

// Post queues ev. It reports false, dropping the event, when the mailbox is
// full. Gesture ends and design swaps have room of their own.
func (s *Session) Post(ev Event) bool {
	if s.box.push(ev) {
		return true
	}
	s.logger.Warn("session: mailbox full, event dropped", "event", ev.Kind.String())
	s.observe("mailbox", "dropped")
	return false
}

// Pending returns the number of queued events.
func (s *Session) Pending() int { return s.box.len() }

// Step applies every queued event in order and autosaves when the design
// changed. It returns how many events were applied. Step must not be called
// concurrently with itself.
func (s *Session) Step(ctx context.Context) (int, error) {
	s.scratch = s.box.drain(s.scratch[:0])
	if len(s.scratch) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	for _, ev := range s.scratch {
		if err := s.apply(ev); err != nil {
			s.logger.Warn("session: event failed", "event", ev.Kind.String(), "err", err)
		}
	}
	s.checkpoint()
	var snap *design.Design
	if s.journal != nil && s.revision != s.autosaved && !s.gestureActive() {
		snap = s.d.Clone()
	}
	rev := s.revision
	s.mu.Unlock()

	if snap != nil {
		ok, err := s.journal.Autosave(ctx, snap)
		if err != nil {
			return len(s.scratch), fmt.Errorf("autosave: %w", err)
		}
		if ok {
			s.mu.Lock()
			s.autosaved = rev
			s.mu.Unlock()
			s.observe("autosave", "written")
		}
	}
	return len(s.scratch), nil
}

func (s *Session) gestureActive() bool {
	_, rotating := s.rot.Active()
	_, moving := s.tr.Active()
	return rotating || moving || s.xo.State() == xover.Dragging
}

func (s *Session) observe(kind, outcome string) {
	if s.observer != nil {
		s.observer.ObserveGesture(kind, outcome)
	}
}

func (s *Session) apply(ev Event) error {
	switch ev.Kind {
	case EventPointerDown:
		return s.pointerDown(ev)
	case EventPointerMove:
		return s.pointerMove(ev)
	case EventPointerUp:
		return s.pointerUp(ev)
	case EventWheel:
		if ev.View == mode.View2D {
			s.flatView.ZoomAt(math.Pow(wheelFactor, ev.Delta.Y), ev.Screen)
		} else {
			s.orbit.Zoom(-ev.Delta.Y * s.orbit.Radius * 0.1)
			s.orbit.Apply(&s.cam)
		}
	case EventCancel:
		return s.cancel()
	case EventSetSelection:
		return s.setMode(mode.State{Selection: ev.Selection, Action: s.mode.Action})
	case EventCycleSelection:
		return s.setMode(mode.State{Selection: s.mode.Selection.Next(), Action: s.mode.Action})
	case EventSetAction:
		return s.setMode(s.mode.WithAction(ev.Action))
	case EventResize:
		if ev.Size[0] <= 0 || ev.Size[1] <= 0 {
			return fmt.Errorf("resize %v: %w", ev.Size, geom.ErrInvalidView)
		}
		if ev.View == mode.View2D {
			s.flatView.Resize(ev.Size[0], ev.Size[1])
		} else {
			s.spaceSize = ev.Size
		}
	case EventFit:
		s.fit()
	case EventReplace:
		if ev.Design == nil {
			return fmt.Errorf("replace: nil design: %w", design.ErrInvalidReference)
		}
		s.xo.Reset()
		_ = s.rot.Cancel(s.d)
		_ = s.tr.Cancel(s.d)
		s.d = ev.Design
		s.revision++
		if ev.Clean {
			s.path = ev.Path
			s.saved = s.revision
		}
		s.hist.reset(s.d, s.revision)
		s.logger.Info("session: design replaced", "id", s.d.ID, "name", s.d.Name)
	case EventUndo:
		return s.undo()
	case EventRedo:
		return s.redo()
	default:
		return fmt.Errorf("unknown event %d", ev.Kind)
	}
	return nil
}

func (s *Session) input(ev Event) xover.Input {
	return xover.Input{View: ev.View, Screen: ev.Screen, Viewport: s.flatView}
}

func (s *Session) pointerDown(ev Event) error {
	s.lastPtr = ev.Screen
	if ev.View == mode.View2D {
		switch {
		case s.mode.CanCut(ev.View):
			_, ok, err := s.xo.Cut(s.d, s.mode, s.input(ev))
			if err != nil {
				s.observe("cut", "error")
				return err
			}
			if ok {
				s.revision++
				s.observe("cut", "committed")
			}
		case s.xo.PointerDown(s.d, s.mode, s.input(ev)):
		default:
			s.panning = true
		}
		return nil
	}

	if s.mode.CanRotate() || s.mode.CanTranslate() {
		h, ok := rotate.PickHelix(s.d, s.cam, s.spaceSize[0], s.spaceSize[1], ev.Screen, s.xo.PickRadius)
		switch {
		case ok && s.mode.CanRotate():
			return s.rot.Begin(s.d, s.mode, h)
		case ok:
			return s.tr.Begin(s.d, s.mode, h)
		}
	}
	s.orbiting = true
	return nil
}

func (s *Session) pointerMove(ev Event) error {
	delta := ev.Screen.Sub(s.lastPtr)
	s.lastPtr = ev.Screen
	if ev.View == mode.View2D {
		switch {
		case s.xo.State() == xover.Dragging:
			s.xo.PointerMove(s.d, s.mode, s.input(ev))
		case s.panning:
			s.flatView.Pan(delta.X, delta.Y)
		}
		return nil
	}
	if _, ok := s.rot.Active(); ok {
		if err := s.rot.DragPixels(s.d, delta.X); err != nil {
			return err
		}
		if delta.X != 0 {
			s.revision++
		}
		return nil
	}
	if _, ok := s.tr.Active(); ok {
		before := s.tr.Offset()
		if err := s.tr.DragPixels(s.d, s.cam, s.spaceSize[0], s.spaceSize[1], delta.X, delta.Y); err != nil {
			return err
		}
		if s.tr.Offset() != before {
			s.revision++
		}
		return nil
	}
	if s.orbiting {
		s.orbit.Rotate(-delta.X*orbitPerPx, -delta.Y*orbitPerPx)
		s.orbit.Apply(&s.cam)
	}
	return nil
}

func (s *Session) pointerUp(ev Event) error {
	s.lastPtr = ev.Screen
	s.panning = false
	s.orbiting = false
	if s.xo.State() == xover.Dragging {
		res := s.xo.PointerUp(s.d, s.mode, s.input(ev))
		s.observe("xover", res.State.String())
		if res.State == xover.Committed {
			s.revision++
		}
		return res.Err
	}
	if _, ok := s.rot.Active(); ok {
		s.rot.Commit()
		s.observe("rotate", "committed")
	}
	if _, ok := s.tr.Active(); ok {
		s.tr.Commit()
		s.observe("translate", "committed")
	}
	return nil
}

func (s *Session) cancel() error {
	s.panning = false
	s.orbiting = false
	if s.xo.State() == xover.Dragging {
		s.xo.Reset()
		s.observe("xover", xover.Cancelled.String())
	}
	if _, ok := s.rot.Active(); ok {
		angle := s.rot.Angle()
		if err := s.rot.Cancel(s.d); err != nil {
			return err
		}
		if angle != 0 {
			s.revision++
		}
		s.observe("rotate", "cancelled")
	}
	if _, ok := s.tr.Active(); ok {
		moved := s.tr.Offset() != (geom.Vec3{})
		if err := s.tr.Cancel(s.d); err != nil {
			return err
		}
		if moved {
			s.revision++
		}
		s.observe("translate", "cancelled")
	}
	return nil
}

// setMode switches modes, ending gestures the new mode does not allow.
func (s *Session) setMode(m mode.State) error {
	if m == s.mode {
		return nil
	}
	if s.xo.State() == xover.Dragging && !m.CanBuild(mode.View2D) {
		s.xo.Reset()
	}
	if _, ok := s.rot.Active(); ok && !m.CanRotate() {
		s.rot.Commit()
	}
	if _, ok := s.tr.Active(); ok && !m.CanTranslate() {
		s.tr.Commit()
	}
	s.logger.Debug("session: mode", "from", s.mode.String(), "to", m.String())
	s.mode = m
	return nil
}

// fit centers the 2D view on the schematic and the 3D orbit on the helices.
func (s *Session) fit() {
	layout := flat.New(s.d)
	hs := layout.Helices()
	if len(hs) == 0 {
		return
	}
	maxX := 0.0
	var centroid geom.Vec3
	for _, h := range hs {
		lo, hi := s.d.HelixExtent(h)
		maxX = max(maxX, float64(hi+1)*flat.BaseWidth)
		hx, _ := s.d.Helix(h)
		centroid = centroid.Add(hx.AxisPoint((lo + hi) / 2))
	}
	s.flatView.Scroll = geom.V2(maxX/2, flat.RowY(len(hs)-1)/2)
	s.orbit.Target = centroid.Mul(1 / float64(len(hs)))
	s.orbit.Apply(&s.cam)
}

// Snapshot is a consistent copy of everything a frame needs.
type Snapshot struct {
	Design   *design.Design
	Mode     mode.State
	Views    render.Views
	Revision uint64
	Dirty    bool
}

// Snapshot deep-copies the design and view state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Design:   s.d.Clone(),
		Mode:     s.mode,
		Views:    s.views(),
		Revision: s.revision,
		Dirty:    s.revision != s.saved,
	}
}

func (s *Session) views() render.Views {
	v := render.Views{
		Flat:        s.flatView,
		Camera:      s.cam,
		SpaceWidth:  s.spaceSize[0],
		SpaceHeight: s.spaceSize[1],
	}
	if from, ok := s.xo.Origin(); ok {
		v.Overlay.Dragging = true
		v.Overlay.DragFrom = from
		v.Overlay.DragTo = s.xo.Pointer()
		v.Overlay.Highlight = append(v.Overlay.Highlight, from)
		if c, ok := s.xo.Candidate(); ok {
			v.Overlay.Highlight = append(v.Overlay.Highlight, c)
		}
	}
	return v
}

// Frame builds both draw lists from a snapshot taken after every queued
// event has been applied by a prior Step.
func (s *Session) Frame(ctx context.Context, atlas *render.Atlas, rec render.Recorder) (render.Frame, error) {
	snap := s.Snapshot()
	return render.BuildFrame(ctx, snap.Design, snap.Views, atlas, rec)
}

// Status is a cheap summary of the session for status displays.
type Status struct {
	Mode     mode.State
	Name     string
	Path     string
	Revision uint64
	Dirty    bool
	Gesture  bool
	// Undo and Redo count the steps available each way.
	Undo int
	Redo int
}

// Status reports the session state without copying the design.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Mode:     s.mode,
		Name:     s.d.Name,
		Path:     s.path,
		Revision: s.revision,
		Dirty:    s.revision != s.saved,
		Gesture:  s.gestureActive(),
		Undo:     len(s.hist.undo),
		Redo:     len(s.hist.redo),
	}
}

// Mode returns the current interaction mode.
func (s *Session) Mode() mode.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Path returns the file the design was last saved to or loaded from.
func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// SetPath records where the design lives on disk and marks it saved.
func (s *Session) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.saved = s.revision
}

// Save writes a copy of the design to target, or to the last path when
// target is empty. A directory target gets a timestamped file name. The
// write happens on the saver's worker when one is configured.
func (s *Session) Save(ctx context.Context, target string) (<-chan store.SaveResult, error) {
	s.mu.RLock()
	if target == "" {
		target = s.path
	}
	snap := s.d.Clone()
	rev := s.revision
	s.mu.RUnlock()
	if target == "" {
		return nil, ErrNoPath
	}
	path, err := store.ResolveTarget(target, time.Now())
	if err != nil {
		return nil, err
	}

	if s.saver == nil {
		start := time.Now()
		err := store.SaveFile(path, snap)
		res := store.SaveResult{Path: path, Elapsed: time.Since(start), Err: err}
		s.markSaved(path, rev, err)
		ch := make(chan store.SaveResult, 1)
		ch <- res
		return ch, nil
	}

	done, err := s.saver.Save(ctx, path, snap)
	if err != nil {
		return nil, err
	}
	out := make(chan store.SaveResult, 1)
	go func() {
		res := <-done
		s.markSaved(path, rev, res.Err)
		out <- res
	}()
	return out, nil
}

func (s *Session) markSaved(path string, rev uint64, err error) {
	if err != nil {
		s.observe("save", "error")
		return
	}
	s.observe("save", "written")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	if rev > s.saved {
		s.saved = rev
	}
}

// Close saves unsaved changes to the last path, if there is one, and waits
// for every pending save.
func (s *Session) Close(ctx context.Context) error {
	s.mu.RLock()
	dirty := s.revision != s.saved && s.path != ""
	s.mu.RUnlock()

	var err error
	if dirty {
		var done <-chan store.SaveResult
		done, err = s.Save(ctx, "")
		if err == nil {
			select {
			case res := <-done:
				err = res.Err
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
	}
	if s.saver != nil {
		s.saver.Close()
	}
	return err
}
