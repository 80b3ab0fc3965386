package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icednano/nano/geom"
)

// twoHelices builds helices at (0,0) and (1,0) with a forward strand 0..10 on
// the first and a backward strand 0..10 on the second.
func twoHelices(t *testing.T) (d *Design, h0, h1 HelixID, s0, s1 StrandID) {
	t.Helper()
	d = New("sample")
	g := d.AddGrid(GridSpec{Kind: geom.LatticeSquare})
	var err error
	h0, err = d.AddHelixAt(g, geom.Coord{X: 0, Y: 0})
	require.NoError(t, err)
	h1, err = d.AddHelixAt(g, geom.Coord{X: 1, Y: 0})
	require.NoError(t, err)
	s0, err = d.AddStrandSegment(h0, Range{Start: 0, End: 10, Forward: true})
	require.NoError(t, err)
	s1, err = d.AddStrandSegment(h1, Range{Start: 0, End: 10, Forward: false})
	require.NoError(t, err)
	return d, h0, h1, s0, s1
}

func TestAddHelixAtOccupied(t *testing.T) {
	d := New("t")
	g := d.AddGrid(GridSpec{Kind: geom.LatticeHoneycomb})
	for _, c := range []geom.Coord{{X: 0, Y: 0}, {X: 3, Y: -2}, {X: -5, Y: 7}} {
		first, err := d.AddHelixAt(g, c)
		require.NoError(t, err)

		_, err = d.AddHelixAt(g, c)
		require.ErrorIs(t, err, ErrOccupiedSlot)

		grid, ok := d.Grid(g)
		require.True(t, ok)
		got, ok := grid.HelixAt(c)
		assert.True(t, ok)
		assert.Equal(t, first, got)
	}
	assert.Equal(t, 3, d.Stats().Helices)
	require.NoError(t, d.Validate())
}

func TestAddHelixAtStaleGrid(t *testing.T) {
	d := New("t")
	_, err := d.AddHelixAt(GridID{Index: 4, Gen: 1}, geom.Coord{})
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestHelixPlacementFollowsLattice(t *testing.T) {
	d := New("t")
	g := d.AddGrid(GridSpec{Kind: geom.LatticeSquare, Origin: geom.V3(1, 2, 3)})
	h, err := d.AddHelixAt(g, geom.Coord{X: 2, Y: 1})
	require.NoError(t, err)
	helix, _ := d.Helix(h)
	want := geom.V3(1, 2+geom.LatticeSpacing, 3+2*geom.LatticeSpacing)
	assert.True(t, helix.Position.Near(want, 1e-9), "position = %v, want %v", helix.Position, want)
}

func TestDetachHelixFreesCell(t *testing.T) {
	d := New("t")
	g := d.AddGrid(GridSpec{})
	h, err := d.AddHelixAt(g, geom.Coord{})
	require.NoError(t, err)
	require.NoError(t, d.DetachHelix(h))

	helix, ok := d.Helix(h)
	require.True(t, ok)
	assert.False(t, helix.Attached)

	_, err = d.AddHelixAt(g, geom.Coord{})
	require.NoError(t, err)
	require.NoError(t, d.Validate())
}

func TestAddStrandSegmentOccupied(t *testing.T) {
	d, h0, _, _, _ := twoHelices(t)

	_, err := d.AddStrandSegment(h0, Range{Start: 10, End: 14, Forward: true})
	require.ErrorIs(t, err, ErrOccupiedSlot)

	// The other side of the helix is free.
	_, err = d.AddStrandSegment(h0, Range{Start: 5, End: 14, Forward: false})
	require.NoError(t, err)

	_, err = d.AddStrandSegment(h0, Range{Start: 20, End: 19, Forward: true})
	require.ErrorIs(t, err, ErrOutOfRange)
	require.NoError(t, d.Validate())
}

func TestJoinScenario(t *testing.T) {
	d, _, _, s0, s1 := twoHelices(t)

	three, ok := d.EndAt(mustHelix(t, d, s0), 10, true)
	require.True(t, ok)
	assert.Equal(t, StrandEnd{s0, ThreePrime}, three)
	five, ok := d.EndAt(mustHelix(t, d, s1), 10, false)
	require.True(t, ok)
	assert.Equal(t, StrandEnd{s1, FivePrime}, five)

	x, err := d.Join(three, five)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Stats().CrossOvers)
	assert.True(t, d.IsJoined(three))
	assert.True(t, d.IsJoined(five))

	c, ok := d.CrossOver(x)
	require.True(t, ok)
	assert.Equal(t, three, c.From)
	assert.Equal(t, five, c.To)

	chain, cyclic, err := d.Chain(s1)
	require.NoError(t, err)
	assert.False(t, cyclic)
	assert.Equal(t, []StrandID{s0, s1}, chain)
}

func mustHelix(t *testing.T, d *Design, s StrandID) HelixID {
	t.Helper()
	st, ok := d.Strand(s)
	require.True(t, ok)
	return st.Helix
}

func TestJoinOnlyOnce(t *testing.T) {
	d, _, _, s0, s1 := twoHelices(t)
	a := StrandEnd{s0, ThreePrime}
	b := StrandEnd{s1, FivePrime}

	// Ends in reverse order are normalized.
	x, err := d.Join(b, a)
	require.NoError(t, err)
	c, _ := d.CrossOver(x)
	assert.Equal(t, a, c.From)

	_, err = d.Join(a, b)
	require.ErrorIs(t, err, ErrIncompatibleEnds)

	s2, err := d.AddStrandSegment(mustHelix(t, d, s1), Range{Start: 20, End: 25, Forward: true})
	require.NoError(t, err)
	_, err = d.Join(a, StrandEnd{s2, FivePrime})
	require.ErrorIs(t, err, ErrIncompatibleEnds)
	assert.Equal(t, 1, d.Stats().CrossOvers)
}

func TestJoinIncompatible(t *testing.T) {
	d, h0, _, s0, s1 := twoHelices(t)
	same, err := d.AddStrandSegment(h0, Range{Start: 0, End: 4, Forward: false})
	require.NoError(t, err)

	tests := []struct {
		name string
		a, b StrandEnd
		want error
	}{
		{"same helix", StrandEnd{s0, ThreePrime}, StrandEnd{same, FivePrime}, ErrIncompatibleEnds},
		{"both 3'", StrandEnd{s0, ThreePrime}, StrandEnd{s1, ThreePrime}, ErrIncompatibleEnds},
		{"both 5'", StrandEnd{s0, FivePrime}, StrandEnd{s1, FivePrime}, ErrIncompatibleEnds},
		{"stale strand", StrandEnd{StrandID{Index: 99, Gen: 1}, FivePrime}, StrandEnd{s0, ThreePrime}, ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Join(tt.a, tt.b)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, d.Stats().CrossOvers)
		})
	}
}

func TestRemoveCrossOverRoundTrip(t *testing.T) {
	d, _, _, s0, s1 := twoHelices(t)
	a := StrandEnd{s0, ThreePrime}
	b := StrandEnd{s1, FivePrime}

	x, err := d.Join(a, b)
	require.NoError(t, err)
	require.NoError(t, d.RemoveCrossOver(x))
	assert.False(t, d.IsJoined(a))
	assert.False(t, d.IsJoined(b))

	err = d.RemoveCrossOver(x)
	require.ErrorIs(t, err, ErrInvalidReference)

	x2, err := d.Join(a, b)
	require.NoError(t, err)
	assert.NotEqual(t, x, x2, "reused slot must carry a new generation")
	require.NoError(t, d.Validate())
}

func TestSplitStrandForward(t *testing.T) {
	d, h0, _, s0, s1 := twoHelices(t)
	require.NoError(t, d.SetSequence(s0, "ACGTACGTACG"))
	x, err := d.Join(StrandEnd{s0, ThreePrime}, StrandEnd{s1, FivePrime})
	require.NoError(t, err)

	tail, err := d.SplitStrand(s0, 4)
	require.NoError(t, err)

	head, _ := d.Strand(s0)
	rest, _ := d.Strand(tail)
	assert.Equal(t, Range{Start: 0, End: 4, Forward: true}, head.Range)
	assert.Equal(t, Range{Start: 5, End: 10, Forward: true}, rest.Range)
	assert.Equal(t, "ACGTA", head.Sequence)
	assert.Equal(t, "CGTACG", rest.Sequence)

	c, _ := d.CrossOver(x)
	assert.Equal(t, StrandEnd{tail, ThreePrime}, c.From)
	assert.False(t, d.IsJoined(StrandEnd{s0, ThreePrime}))

	got, ok := d.StrandAt(h0, 7, true)
	assert.True(t, ok)
	assert.Equal(t, tail, got)
	require.NoError(t, d.Validate())
}

func TestSplitStrandBackward(t *testing.T) {
	d := New("t")
	g := d.AddGrid(GridSpec{})
	h, err := d.AddHelixAt(g, geom.Coord{})
	require.NoError(t, err)
	s, err := d.AddStrandSegment(h, Range{Start: 0, End: 9, Forward: false})
	require.NoError(t, err)

	tail, err := d.SplitStrand(s, 6)
	require.NoError(t, err)
	head, _ := d.Strand(s)
	rest, _ := d.Strand(tail)
	assert.Equal(t, Range{Start: 6, End: 9, Forward: false}, head.Range)
	assert.Equal(t, Range{Start: 0, End: 5, Forward: false}, rest.Range)

	_, err = d.SplitStrand(tail, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = d.SplitStrand(tail, 42)
	require.ErrorIs(t, err, ErrOutOfRange)
	require.NoError(t, d.Validate())
}

func TestRemoveStrandDropsCrossOvers(t *testing.T) {
	d, h0, _, s0, s1 := twoHelices(t)
	_, err := d.Join(StrandEnd{s0, ThreePrime}, StrandEnd{s1, FivePrime})
	require.NoError(t, err)

	require.NoError(t, d.RemoveStrand(s0))
	assert.Zero(t, d.Stats().CrossOvers)
	assert.False(t, d.IsJoined(StrandEnd{s1, FivePrime}))
	_, ok := d.StrandAt(h0, 3, true)
	assert.False(t, ok)
	require.ErrorIs(t, d.RemoveStrand(s0), ErrInvalidReference)
	require.NoError(t, d.Validate())
}

func TestChainCycle(t *testing.T) {
	d, _, _, s0, s1 := twoHelices(t)
	_, err := d.Join(StrandEnd{s0, ThreePrime}, StrandEnd{s1, FivePrime})
	require.NoError(t, err)
	_, err = d.Join(StrandEnd{s1, ThreePrime}, StrandEnd{s0, FivePrime})
	require.NoError(t, err)

	chain, cyclic, err := d.Chain(s0)
	require.NoError(t, err)
	assert.True(t, cyclic)
	assert.Len(t, chain, 2)
	assert.ElementsMatch(t, []StrandID{s0, s1}, chain)
}

func TestSetSequenceLength(t *testing.T) {
	d, _, _, s0, _ := twoHelices(t)
	require.ErrorIs(t, d.SetSequence(s0, "ACGT"), ErrOutOfRange)
	require.NoError(t, d.SetSequence(s0, "AAAAACCCCCG"))
	s, _ := d.Strand(s0)
	assert.Equal(t, byte('G'), s.BaseAt(10))
	assert.Equal(t, byte(0), s.BaseAt(11))
}

func TestBaseAtBackward(t *testing.T) {
	s := Strand{Range: Range{Start: 0, End: 3, Forward: false}, Sequence: "ACGT"}
	// 5' end is position 3.
	assert.Equal(t, byte('A'), s.BaseAt(3))
	assert.Equal(t, byte('T'), s.BaseAt(0))
}

func TestRigidGroup(t *testing.T) {
	d := New("t")
	g := d.AddGrid(GridSpec{})
	var hs []HelixID
	for x := 0; x < 4; x++ {
		h, err := d.AddHelixAt(g, geom.Coord{X: x})
		require.NoError(t, err)
		hs = append(hs, h)
	}
	require.NoError(t, d.LinkRigid(hs[0], hs[1]))
	require.NoError(t, d.LinkRigid(hs[1], hs[2]))

	group, err := d.RigidGroup(hs[2])
	require.NoError(t, err)
	assert.Equal(t, hs[2], group[0])
	assert.ElementsMatch(t, hs[:3], group)

	require.NoError(t, d.UnlinkRigid(hs[1], hs[2]))
	group, err = d.RigidGroup(hs[2])
	require.NoError(t, err)
	assert.Equal(t, []HelixID{hs[2]}, group)
}

func TestCloneIsIndependent(t *testing.T) {
	d, _, _, s0, s1 := twoHelices(t)
	cp := d.Clone()

	_, err := d.Join(StrandEnd{s0, ThreePrime}, StrandEnd{s1, FivePrime})
	require.NoError(t, err)
	assert.Zero(t, cp.Stats().CrossOvers)
	assert.False(t, cp.IsJoined(StrandEnd{s0, ThreePrime}))
	require.NoError(t, cp.Validate())
}

func TestFreeEnds(t *testing.T) {
	d, _, _, s0, s1 := twoHelices(t)
	assert.Len(t, d.FreeEnds(), 4)
	_, err := d.Join(StrandEnd{s0, ThreePrime}, StrandEnd{s1, FivePrime})
	require.NoError(t, err)
	free := d.FreeEnds()
	require.Len(t, free, 2)
	for _, e := range free {
		assert.False(t, d.IsJoined(e.End))
	}
}

func TestSlotPosition(t *testing.T) {
	d, h0, _, _, _ := twoHelices(t)
	p0, err := d.SlotPosition(h0, 0, true)
	require.NoError(t, err)
	back, err := d.SlotPosition(h0, 0, false)
	require.NoError(t, err)
	assert.InDelta(t, 2*geom.HelixRadius, p0.Dist(back), 1e-9)

	p10, _ := d.SlotPosition(h0, 10, true)
	assert.InDelta(t, 10*geom.BaseRise, p10.X-p0.X, 1e-9)

	_, err = d.SlotPosition(HelixID{Index: 7, Gen: 3}, 0, true)
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestHelixExtent(t *testing.T) {
	d, h0, h1, _, _ := twoHelices(t)
	lo, hi := d.HelixExtent(h0)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 10, hi)
	_, err := d.AddStrandSegment(h1, Range{Start: -3, End: 2, Forward: true})
	require.NoError(t, err)
	lo, _ = d.HelixExtent(h1)
	assert.Equal(t, -3, lo)

	g := d.Grids()[0]
	h2, err := d.AddHelixAt(g, geom.Coord{X: 2})
	require.NoError(t, err)
	lo, hi = d.HelixExtent(h2)
	assert.Equal(t, 0, lo)
	assert.Equal(t, DefaultHelixLength-1, hi)
}
