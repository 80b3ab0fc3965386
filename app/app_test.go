package app

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icednano/hal"
	"icednano/internal/metrics"
	"icednano/nano/design"
	"icednano/nano/geom"
	"icednano/nano/mode"
	"icednano/nano/nanogl"
	"icednano/nano/session"
	"icednano/nano/store"
)

type fakeFB struct {
	w, h int
	buf  []byte
}

func newFakeFB(w, h int) *fakeFB { return &fakeFB{w: w, h: h, buf: make([]byte, w*h*2)} }

func (f *fakeFB) Width() int              { return f.w }
func (f *fakeFB) Height() int             { return f.h }
func (f *fakeFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *fakeFB) StrideBytes() int        { return f.w * 2 }
func (f *fakeFB) Buffer() []byte          { return f.buf }
func (f *fakeFB) ClearRGB(r, g, b uint8)  {}
func (f *fakeFB) Present() error          { return nil }

func (f *fakeFB) at(x, y int) color.RGBA {
	t := nanogl.RGB565Target{Buf: f.buf, Stride: f.w * 2, W: f.w, H: f.h}
	return t.At(x, y)
}

type fakeKeys chan hal.KeyEvent

func (k fakeKeys) Events() <-chan hal.KeyEvent { return k }

type fakePointer chan hal.PointerEvent

func (p fakePointer) Events() <-chan hal.PointerEvent { return p }

type fakeDialog struct {
	open string
	dir  string
}

func (d *fakeDialog) PickOpen() (string, error) {
	if d.open == "" {
		return "", hal.ErrCancelled
	}
	return d.open, nil
}

func (d *fakeDialog) PickSave(current string) (string, error) {
	if current != "" {
		return current, nil
	}
	return d.dir, nil
}

type fakeHAL struct {
	fb     *fakeFB
	keys   fakeKeys
	ptr    fakePointer
	dialog *fakeDialog
}

func newFakeHAL(t *testing.T) *fakeHAL {
	return &fakeHAL{
		fb:     newFakeFB(200, 120),
		keys:   make(fakeKeys, 16),
		ptr:    make(fakePointer, 16),
		dialog: &fakeDialog{dir: t.TempDir()},
	}
}

func (h *fakeHAL) Logger() hal.Logger   { return nil }
func (h *fakeHAL) Display() hal.Display { return h }
func (h *fakeHAL) Input() hal.Input     { return h }
func (h *fakeHAL) Dialog() hal.Dialog   { return h.dialog }

func (h *fakeHAL) Framebuffer() hal.Framebuffer { return h.fb }
func (h *fakeHAL) Keyboard() hal.Keyboard       { return h.keys }
func (h *fakeHAL) Pointer() hal.Pointer         { return h.ptr }

func (h *fakeHAL) key(r rune) { h.keys <- hal.KeyEvent{Press: true, Rune: r} }

func (h *fakeHAL) ctrl(r rune) { h.keys <- hal.KeyEvent{Press: true, Rune: r, Ctrl: true} }

func newApp(t *testing.T, h *fakeHAL, cfg Config) *App {
	t.Helper()
	a, err := New(h, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestLayout(t *testing.T) {
	l := newLayout(200, 120)
	assert.Equal(t, image.Rect(0, 0, 100, 108), l.flat)
	assert.Equal(t, image.Rect(100, 0, 200, 108), l.space)
	assert.Equal(t, image.Rect(0, 108, 200, 120), l.hud)

	v, at, ok := l.viewAt(image.Pt(150, 10))
	require.True(t, ok)
	assert.Equal(t, mode.View3D, v)
	assert.Equal(t, geom.V2(50, 10), at)

	_, _, ok = l.viewAt(image.Pt(10, 115))
	assert.False(t, ok)

	assert.True(t, newLayout(200, 40).hud.Empty())
}

func TestTakeRunes(t *testing.T) {
	p, rest := takeRunes("héllo", 2)
	assert.Equal(t, "hé", p)
	assert.Equal(t, "llo", rest)
	p, rest = takeRunes("ab", 5)
	assert.Equal(t, "ab", p)
	assert.Empty(t, rest)
}

func countColor(fb *fakeFB, r image.Rectangle, c color.RGBA) int {
	want := nanogl.RGBA565(nanogl.RGB565(c))
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if fb.at(x, y) == want {
				n++
			}
		}
	}
	return n
}

func TestStepRendersBothViews(t *testing.T) {
	h := newFakeHAL(t)
	m := metrics.New()
	a := newApp(t, h, Config{Metrics: m})
	require.NoError(t, a.Step())

	for _, tc := range []struct {
		r  image.Rectangle
		bg color.RGBA
	}{
		{a.layout.flat, FlatBackground},
		{a.layout.space, SpaceBackground},
		{a.layout.hud, hudBackground},
	} {
		n := countColor(h.fb, tc.r, tc.bg)
		total := tc.r.Dx() * tc.r.Dy()
		assert.Positive(t, n)
		assert.Less(t, n, total, "view %v is blank", tc.r)
	}
	assert.Equal(t, 1.0, gathered(t, m, "icednano_render_frames_total"))
	n, err := testutil.GatherAndCount(m.Registry(), "icednano_render_build_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func gathered(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestKeysSwitchModes(t *testing.T) {
	h := newFakeHAL(t)
	a := newApp(t, h, Config{})

	h.key('2')
	require.NoError(t, a.Step())
	assert.Equal(t, mode.State{Selection: mode.SelectStrand, Action: mode.ActionBuild}, a.Session().Mode())

	h.key('h')
	h.keys <- hal.KeyEvent{Code: hal.KeyTab, Press: true}
	require.NoError(t, a.Step())
	assert.Equal(t, mode.SelectStrand, a.Session().Mode().Selection)

	h.key('3')
	require.NoError(t, a.Step())
	assert.Equal(t, mode.State{Selection: mode.SelectHelix, Action: mode.ActionRotate}, a.Session().Mode())

	h.ctrl('q')
	require.ErrorIs(t, a.Step(), ErrQuit)
}

func TestPointerCapturedByPressedView(t *testing.T) {
	h := newFakeHAL(t)
	a := newApp(t, h, Config{})
	require.NoError(t, a.Step())
	before := a.Session().Snapshot().Views

	h.ptr <- hal.PointerEvent{Kind: hal.PointerDown, X: 5, Y: 5}
	h.ptr <- hal.PointerEvent{Kind: hal.PointerMove, X: 150, Y: 5}
	h.ptr <- hal.PointerEvent{Kind: hal.PointerUp, X: 150, Y: 5}
	require.NoError(t, a.Step())

	after := a.Session().Snapshot().Views
	assert.InDelta(t, before.Flat.Scroll.X-145/before.Flat.Zoom, after.Flat.Scroll.X, 1e-9)
	assert.Equal(t, before.Camera, after.Camera)
	assert.False(t, a.captured)

	h.ptr <- hal.PointerEvent{Kind: hal.PointerWheel, X: 150, Y: 50, WheelY: 1}
	require.NoError(t, a.Step())
	assert.NotEqual(t, after.Camera, a.Session().Snapshot().Views.Camera)
}

func TestSaveFromKeyboard(t *testing.T) {
	h := newFakeHAL(t)
	a := newApp(t, h, Config{})

	h.ctrl('s')
	require.NoError(t, a.Step())
	require.Eventually(t, func() bool { return a.Session().Path() != "" }, 5*time.Second, 10*time.Millisecond)

	path := a.Session().Path()
	assert.Equal(t, h.dialog.dir, filepath.Dir(path))
	d, err := store.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "untitled", d.Name)
	assert.False(t, a.Session().Status().Dirty)
}

func TestOpenFromKeyboard(t *testing.T) {
	h := newFakeHAL(t)
	d, err := SampleDesign("other")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "other.json")
	require.NoError(t, store.SaveFile(path, d))
	h.dialog.open = path

	a := newApp(t, h, Config{})
	h.ctrl('o')
	require.Eventually(t, func() bool {
		return a.Step() == nil && a.Session().Status().Name == "other"
	}, 5*time.Second, 10*time.Millisecond)

	st := a.Session().Status()
	assert.Equal(t, path, st.Path)
	assert.False(t, st.Dirty)
}

func TestStepRunsWhileOpening(t *testing.T) {
	h := newFakeHAL(t)
	h.dialog.open = "slow.json"
	a := newApp(t, h, Config{})
	release := make(chan struct{})
	a.load = func(path string) (*design.Design, error) {
		<-release
		return SampleDesign("slow")
	}

	h.ctrl('o')
	done := make(chan error, 1)
	go func() { done <- a.Step() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		close(release)
		t.Fatal("step waited for the load")
	}
	assert.Equal(t, "untitled", a.Session().Status().Name)
	assert.Contains(t, a.statusLine(), "opening slow.json")

	h.key('2')
	require.NoError(t, a.Step())
	assert.Equal(t, mode.ActionBuild, a.Session().Mode().Action, "input is handled during the load")

	close(release)
	require.Eventually(t, func() bool {
		return a.Step() == nil && a.Session().Status().Name == "slow"
	}, 5*time.Second, 10*time.Millisecond)
	st := a.Session().Status()
	assert.Equal(t, "slow.json", st.Path)
	assert.False(t, st.Dirty)
}

func TestOpenFailureKeepsDesign(t *testing.T) {
	h := newFakeHAL(t)
	h.dialog.open = filepath.Join(t.TempDir(), "missing.json")
	a := newApp(t, h, Config{})
	h.ctrl('o')
	require.NoError(t, a.Step())
	a.loads.Wait()
	require.NoError(t, a.Step())
	assert.Equal(t, "untitled", a.Session().Status().Name)
	assert.NotContains(t, a.statusLine(), "opening")
}

func TestBusyReplaceSetsStatus(t *testing.T) {
	h := newFakeHAL(t)
	a := newApp(t, h, Config{Session: session.Options{MailboxSlots: 1}})
	require.True(t, a.Session().Post(session.Event{Kind: session.EventCancel}))

	d, err := SampleDesign("next")
	require.NoError(t, err)
	assert.False(t, a.replace(d, "next.json"))
	assert.Contains(t, a.statusLine(), "editor busy, next.json not loaded")

	require.NoError(t, a.Step())
	assert.Equal(t, "untitled", a.Session().Status().Name)
	assert.True(t, a.replace(d, "next.json"))
	require.NoError(t, a.Step())
	assert.Equal(t, "next", a.Session().Status().Name)
}

type gestures struct {
	mu   sync.Mutex
	seen []string
}

func (g *gestures) ObserveGesture(kind, outcome string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = append(g.seen, kind+":"+outcome)
}

func (g *gestures) list() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.seen...)
}

func TestUndoRedoKeys(t *testing.T) {
	h := newFakeHAL(t)
	obs := &gestures{}
	a := newApp(t, h, Config{Session: session.Options{Observer: obs}})

	h.key('5')
	require.NoError(t, a.Step())
	assert.Equal(t, mode.State{Selection: mode.SelectHelix, Action: mode.ActionTranslate}, a.Session().Mode())

	h.ctrl('z')
	h.ctrl('y')
	require.NoError(t, a.Step())
	assert.Equal(t, []string{"undo:empty", "redo:empty"}, obs.list())
}

func TestCloseSavesBeforeQuit(t *testing.T) {
	h := newFakeHAL(t)
	path := filepath.Join(t.TempDir(), "d.json")
	d, err := SampleDesign("before")
	require.NoError(t, err)
	require.NoError(t, store.SaveFile(path, d))

	a, err := New(h, Config{Design: d, Path: path})
	require.NoError(t, err)
	changed, err := SampleDesign("after")
	require.NoError(t, err)
	require.True(t, a.Session().Post(session.Event{Kind: session.EventReplace, Design: changed}))
	require.NoError(t, a.Step())
	require.True(t, a.Session().Status().Dirty)

	require.NoError(t, a.Close(context.Background()))
	got, err := store.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
}

func TestWatchReloadsExternalEdits(t *testing.T) {
	h := newFakeHAL(t)
	path := filepath.Join(t.TempDir(), "w.json")
	d, err := SampleDesign("original")
	require.NoError(t, err)
	require.NoError(t, store.SaveFile(path, d))

	a := newApp(t, h, Config{Design: d, Path: path, Watch: true, Debounce: 20 * time.Millisecond})
	edited, err := SampleDesign("edited")
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for a.Session().Status().Name != "edited" {
		if time.Now().After(deadline) {
			t.Fatal("no reload")
		}
		require.NoError(t, store.SaveFile(path, edited))
		time.Sleep(100 * time.Millisecond)
		require.NoError(t, a.Step())
	}
	assert.False(t, a.Session().Status().Dirty)
	_, err = os.Stat(path)
	require.NoError(t, err)
}
