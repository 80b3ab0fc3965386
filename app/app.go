// Package app wires the host HAL to an editing session: it turns keyboard
// and pointer input into session events, renders both views into the
// framebuffer every step, and keeps the design file in sync with the disk.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"icednano/hal"
	"icednano/internal/metrics"
	"icednano/nano/design"
	"icednano/nano/mode"
	"icednano/nano/nanogl"
	"icednano/nano/render"
	"icednano/nano/session"
	"icednano/nano/store"
)

// ErrQuit is returned by Step when the user asks to quit.
var ErrQuit = errors.New("app: quit")

// Config wires an App.
type Config struct {
	// Design is the design to start with; nil starts from the sample.
	Design *design.Design
	// Path is where Design was loaded from, if anywhere.
	Path    string
	Session session.Options
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Watch reloads the design when its file changes on disk.
	Watch    bool
	Debounce time.Duration
}

// selfSaveWindow is how long file events after our own save are ignored.
const selfSaveWindow = time.Second

// Background colors of the two views.
var (
	FlatBackground  = color.RGBA{R: 0xf4, G: 0xf4, B: 0xf0, A: 0xff}
	SpaceBackground = color.RGBA{R: 0x18, G: 0x1c, B: 0x24, A: 0xff}
)

// App is one editor instance bound to a HAL.
type App struct {
	h       hal.HAL
	fb      hal.Framebuffer
	sess    *session.Session
	atlas   *render.Atlas
	flatR   *nanogl.Renderer
	spaceR  *nanogl.Renderer
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     Config

	ctx    context.Context
	cancel context.CancelFunc

	layout   layout
	captured bool
	capView  mode.View

	// load reads a design file off the render path.
	load  func(path string) (*design.Design, error)
	loads sync.WaitGroup

	mu       sync.Mutex
	status   string
	lastSave time.Time

	closed      bool
	watchCancel context.CancelFunc
	watchPath   string
	watchWG     sync.WaitGroup
}

// New starts an editor on h.
func New(h hal.HAL, cfg Config) (*App, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = store.DefaultDebounce
	}
	if cfg.Design == nil {
		d, err := SampleDesign("untitled")
		if err != nil {
			return nil, fmt.Errorf("sample design: %w", err)
		}
		cfg.Design = d
	}
	disp := h.Display()
	if disp == nil || disp.Framebuffer() == nil {
		return nil, errors.New("app: no framebuffer")
	}
	fb := disp.Framebuffer()
	if fb.Format() != hal.PixelFormatRGB565 {
		return nil, fmt.Errorf("app: unsupported pixel format %d", fb.Format())
	}

	l := newLayout(fb.Width(), fb.Height())
	opts := cfg.Session
	opts.Logger = cfg.Logger
	opts.FlatSize = l.size(l.flat)
	opts.SpaceSize = l.size(l.space)
	if cfg.Metrics != nil && opts.Observer == nil {
		opts.Observer = cfg.Metrics
	}

	a := &App{
		h:       h,
		fb:      fb,
		sess:    session.New(cfg.Design, opts),
		atlas:   render.DefaultAtlas(),
		flatR:   nanogl.NewRenderer(l.flat.Dx(), l.flat.Dy()),
		spaceR:  nanogl.NewRenderer(l.space.Dx(), l.space.Dy()),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		cfg:     cfg,
		layout:  l,
		load:    store.LoadFile,
	}
	a.flatR.ClearColor = FlatBackground
	a.spaceR.ClearColor = SpaceBackground
	a.ctx, a.cancel = context.WithCancel(context.Background())

	if cfg.Path != "" {
		a.sess.SetPath(cfg.Path)
		a.watch(cfg.Path)
	}
	a.sess.Post(session.Event{Kind: session.EventFit})
	a.setStatus("ready")
	return a, nil
}

// Session returns the session the app drives.
func (a *App) Session() *session.Session { return a.sess }

// Step handles pending input, applies it to the session and presents one
// frame.
func (a *App) Step() error {
	a.relayout()
	if err := a.drainInput(); err != nil {
		return err
	}
	if _, err := a.sess.Step(a.ctx); err != nil {
		a.logger.Warn("app: step", "err", err)
		a.setStatus(err.Error())
	}
	return a.draw()
}

func (a *App) relayout() {
	w, h := a.fb.Width(), a.fb.Height()
	if w == a.layout.w && h == a.layout.h {
		return
	}
	a.layout = newLayout(w, h)
	a.sess.Post(session.Event{Kind: session.EventResize, View: mode.View2D, Size: a.layout.size(a.layout.flat)})
	a.sess.Post(session.Event{Kind: session.EventResize, View: mode.View3D, Size: a.layout.size(a.layout.space)})
}

func (a *App) drainInput() error {
	in := a.h.Input()
	if in == nil {
		return nil
	}
	if kbd := in.Keyboard(); kbd != nil {
	keys:
		for {
			select {
			case ev := <-kbd.Events():
				if err := a.handleKey(ev); err != nil {
					return err
				}
			default:
				break keys
			}
		}
	}
	if ptr := in.Pointer(); ptr != nil {
		for {
			select {
			case ev := <-ptr.Events():
				a.handlePointer(ev)
			default:
				return nil
			}
		}
	}
	return nil
}

func (a *App) draw() error {
	var rec render.Recorder
	if a.metrics != nil {
		rec = a.metrics
	}
	frame, err := a.sess.Frame(a.ctx, a.atlas, rec)
	if err != nil {
		a.logger.Warn("app: frame", "err", err)
		a.setStatus(err.Error())
		return nil
	}

	buf := a.fb.Buffer()
	stride := a.fb.StrideBytes()
	if t := subTarget(buf, stride, a.layout.flat); t != nil {
		a.flatR.Render(t, frame.Flat, a.atlas)
	}
	if t := subTarget(buf, stride, a.layout.space); t != nil {
		a.spaceR.Render(t, frame.Space, a.atlas)
	}
	if t := subTarget(buf, stride, a.layout.hud); t != nil {
		drawHUD(t, a.statusLine())
	}
	if err := a.fb.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	if a.metrics != nil {
		a.metrics.FramePresented()
	}
	return nil
}

// subTarget addresses rect of a shared RGB565 buffer.
func subTarget(buf []byte, stride int, r image.Rectangle) *nanogl.RGB565Target {
	if r.Empty() {
		return nil
	}
	off := r.Min.Y*stride + r.Min.X*2
	if off < 0 || off >= len(buf) {
		return nil
	}
	return &nanogl.RGB565Target{Buf: buf[off:], Stride: stride, W: r.Dx(), H: r.Dy()}
}

func (a *App) setStatus(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
}

func (a *App) statusLine() string {
	st := a.sess.Status()
	a.mu.Lock()
	msg := a.status
	a.mu.Unlock()

	name := st.Name
	if st.Dirty {
		name += "*"
	}
	return fmt.Sprintf("%s | %s | %s", st.Mode, name, msg)
}

// save asks the dialog for a target and saves off the render path.
func (a *App) save() {
	target, err := a.h.Dialog().PickSave(a.sess.Path())
	if err != nil {
		a.setStatus("save: " + err.Error())
		return
	}
	a.mu.Lock()
	a.lastSave = time.Now()
	a.mu.Unlock()

	done, err := a.sess.Save(a.ctx, target)
	if err != nil {
		a.logger.Warn("app: save", "target", target, "err", err)
		a.setStatus("save: " + err.Error())
		return
	}
	a.setStatus("saving...")
	go func() {
		res := <-done
		if res.Err != nil {
			a.setStatus("save failed: " + res.Err.Error())
			return
		}
		a.setStatus("saved " + res.Path)
		a.watch(res.Path)
	}()
}

// open loads the design the dialog picks. The file is read in the
// background and swapped in by a later Step.
func (a *App) open() {
	path, err := a.h.Dialog().PickOpen()
	if err != nil {
		a.setStatus("open: " + err.Error())
		return
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.loads.Add(1)
	a.mu.Unlock()
	a.setStatus("opening " + path + "...")
	go func() {
		defer a.loads.Done()
		d, err := a.load(path)
		if err != nil {
			a.logger.Warn("app: open", "path", path, "err", err)
			a.setStatus(err.Error())
			return
		}
		if a.replace(d, path) {
			a.watch(path)
			a.setStatus("opened " + path)
		}
	}()
}

func (a *App) newDesign() {
	d, err := SampleDesign("untitled")
	if err != nil {
		a.setStatus(err.Error())
		return
	}
	if a.replace(d, "") {
		a.stopWatch()
		a.setStatus("new design")
	}
}

// replace queues d as the saved contents of path and fits the views to it.
// A full mailbox leaves the current design in place and says so.
func (a *App) replace(d *design.Design, path string) bool {
	if !a.sess.Post(session.Event{Kind: session.EventReplace, Design: d, Path: path, Clean: true}) {
		name := path
		if name == "" {
			name = d.Name
		}
		a.logger.Warn("app: replace dropped", "path", path)
		a.setStatus("editor busy, " + name + " not loaded")
		return false
	}
	a.sess.Post(session.Event{Kind: session.EventFit})
	return true
}

// watch follows path on disk, replacing the design on external edits.
func (a *App) watch(path string) {
	if !a.cfg.Watch || path == "" {
		return
	}
	a.mu.Lock()
	if a.closed || (a.watchCancel != nil && a.watchPath == path) {
		a.mu.Unlock()
		return
	}
	if a.watchCancel != nil {
		a.watchCancel()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.watchCancel = cancel
	a.watchPath = path
	a.watchWG.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.watchWG.Done()
		err := store.Watch(ctx, path, a.cfg.Debounce, a.logger, func(d *design.Design, err error) {
			if err != nil {
				a.setStatus("reload: " + err.Error())
				return
			}
			a.mu.Lock()
			recent := time.Since(a.lastSave) < selfSaveWindow
			a.mu.Unlock()
			if recent {
				return
			}
			if a.replace(d, path) {
				a.setStatus("reloaded " + path)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("app: watch", "path", path, "err", err)
		}
	}()
}

func (a *App) stopWatch() {
	a.mu.Lock()
	cancel := a.watchCancel
	a.watchCancel = nil
	a.watchPath = ""
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close stops the watcher and saves unsaved changes to the last path.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.stopWatch()
	a.watchWG.Wait()
	a.loads.Wait()
	err := a.sess.Close(ctx)
	a.cancel()
	if err != nil {
		return fmt.Errorf("save before quit: %w", err)
	}
	return nil
}
