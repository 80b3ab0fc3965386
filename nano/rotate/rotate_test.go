package rotate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icednano/nano/design"
	"icednano/nano/geom"
	"icednano/nano/mode"
)

var rotating = mode.State{Selection: mode.SelectHelix, Action: mode.ActionRotate}

func fixture(t *testing.T) (*design.Design, []design.HelixID) {
	t.Helper()
	d := design.New("t")
	g := d.AddGrid(design.GridSpec{Kind: geom.LatticeHoneycomb})
	var hs []design.HelixID
	for _, c := range []geom.Coord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}} {
		h, err := d.AddHelixAt(g, c)
		require.NoError(t, err)
		_, err = d.AddStrandSegment(h, design.Range{Start: 0, End: 20, Forward: true})
		require.NoError(t, err)
		hs = append(hs, h)
	}
	require.NoError(t, d.LinkRigid(hs[0], hs[1]))
	return d, hs
}

func slots(t *testing.T, d *design.Design, hs []design.HelixID) []geom.Vec3 {
	t.Helper()
	var out []geom.Vec3
	for _, h := range hs {
		for pos := 0; pos <= 20; pos++ {
			for _, fwd := range []bool{true, false} {
				p, err := d.SlotPosition(h, pos, fwd)
				require.NoError(t, err)
				out = append(out, p)
			}
		}
	}
	return out
}

func TestRotateThereAndBack(t *testing.T) {
	d, hs := fixture(t)
	before := slots(t, d, hs)
	e := New(0, nil)

	require.NoError(t, e.Begin(d, rotating, hs[0]))
	for _, theta := range []float64{0.3, 1.7, -2.2, math.Pi} {
		require.NoError(t, e.Drag(d, theta))
		require.NoError(t, e.Drag(d, -theta))
	}
	after := slots(t, d, hs)
	for i := range before {
		assert.True(t, before[i].Near(after[i], 1e-9), "slot %d: %v != %v", i, before[i], after[i])
	}
}

func TestRotateMovesGroupOnly(t *testing.T) {
	d, hs := fixture(t)
	h2Before, _ := d.Helix(hs[2])
	h1Before, _ := d.Helix(hs[1])
	p0Before, _ := d.SlotPosition(hs[0], 5, true)
	x0 := d.Stats()

	e := New(0, nil)
	require.NoError(t, e.Begin(d, rotating, hs[0]))
	require.NoError(t, e.Drag(d, math.Pi/2))

	h0, _ := d.Helix(hs[0])
	h1, _ := d.Helix(hs[1])
	h2, _ := d.Helix(hs[2])
	assert.True(t, h0.Free)
	assert.True(t, h1.Free)
	assert.False(t, h2.Free)
	assert.Equal(t, h2Before.Position, h2.Position)

	// The linked helix orbits the pivot axis at constant distance.
	assert.False(t, h1.Position.Near(h1Before.Position, 1e-6))
	assert.InDelta(t, h1Before.Position.Dist(h0.Position), h1.Position.Dist(h0.Position), 1e-9)
	// The pivot axis does not move, slots on it do.
	assert.True(t, h0.Axis().Near(geom.V3(1, 0, 0), 1e-12))
	p0, _ := d.SlotPosition(hs[0], 5, true)
	assert.False(t, p0.Near(p0Before, 1e-6))

	assert.Equal(t, x0, d.Stats())
}

func TestRotateKeepsCrossOvers(t *testing.T) {
	d, hs := fixture(t)
	s0 := d.StrandsOn(hs[0])[0]
	s2 := d.StrandsOn(hs[2])[0]
	_, err := d.SplitStrand(s2, 9)
	require.NoError(t, err)
	x, err := d.Join(design.StrandEnd{Strand: s0, Prime: design.ThreePrime}, design.StrandEnd{Strand: d.StrandsOn(hs[2])[1], Prime: design.FivePrime})
	require.NoError(t, err)

	e := New(0, nil)
	require.NoError(t, e.Begin(d, rotating, hs[0]))
	require.NoError(t, e.DragPixels(d, 120))
	e.Commit()

	c, ok := d.CrossOver(x)
	require.True(t, ok)
	assert.True(t, d.IsJoined(c.From))
	assert.True(t, d.IsJoined(c.To))
	require.NoError(t, d.Validate())
}

func TestBeginRequiresMode(t *testing.T) {
	d, hs := fixture(t)
	e := New(0, nil)
	err := e.Begin(d, mode.State{Selection: mode.SelectStrand, Action: mode.ActionRotate}, hs[0])
	require.ErrorIs(t, err, ErrDisabled)
	require.ErrorIs(t, e.Drag(d, 1), ErrNotActive)

	err = e.Begin(d, rotating, design.HelixID{Index: 42, Gen: 1})
	require.ErrorIs(t, err, design.ErrInvalidReference)
	_, active := e.Active()
	assert.False(t, active)
}

func TestSecondHelixCommitsFirst(t *testing.T) {
	d, hs := fixture(t)
	e := New(0, nil)
	require.NoError(t, e.Begin(d, rotating, hs[0]))
	require.NoError(t, e.Drag(d, 0.5))
	moved, _ := d.Helix(hs[1])

	require.NoError(t, e.Begin(d, rotating, hs[2]))
	h, active := e.Active()
	assert.True(t, active)
	assert.Equal(t, hs[2], h)
	assert.Zero(t, e.Angle())

	// Cancelling the second rotation leaves the committed first one alone.
	require.NoError(t, e.Drag(d, 0.25))
	require.NoError(t, e.Cancel(d))
	kept, _ := d.Helix(hs[1])
	assert.True(t, kept.Position.Near(moved.Position, 1e-12))
}

func TestCancelRestores(t *testing.T) {
	d, hs := fixture(t)
	before := slots(t, d, hs)
	e := New(0.02, nil)
	require.NoError(t, e.Begin(d, rotating, hs[1]))
	require.NoError(t, e.DragPixels(d, 37))
	require.NoError(t, e.DragPixels(d, -5))
	assert.InDelta(t, 32*0.02, e.Angle(), 1e-12)
	require.NoError(t, e.Cancel(d))

	after := slots(t, d, hs)
	for i := range before {
		assert.True(t, before[i].Near(after[i], 1e-9))
	}
}

func TestPickHelix(t *testing.T) {
	d, hs := fixture(t)
	cam := geom.DefaultCamera()
	w, h := 400, 300

	target, _ := d.Helix(hs[1])
	ndc, ok := cam.Project(target.AxisPoint(10), float64(w)/float64(h))
	require.True(t, ok)
	at := geom.V2((ndc.X+1)*0.5*float64(w), (1-ndc.Y)*0.5*float64(h))

	got, ok := PickHelix(d, cam, w, h, at, 8)
	require.True(t, ok)
	assert.Equal(t, hs[1], got)

	_, ok = PickHelix(d, cam, w, h, geom.V2(-500, -500), 8)
	assert.False(t, ok)
	_, ok = PickHelix(d, cam, 0, h, at, 8)
	assert.False(t, ok)
}
