package flat

import (
	"testing"

	"icednano/nano/design"
	"icednano/nano/geom"
)

func sample(t *testing.T) (*design.Design, design.HelixID, design.HelixID) {
	t.Helper()
	d := design.New("t")
	g := d.AddGrid(design.GridSpec{})
	h0, err := d.AddHelixAt(g, geom.Coord{X: 0, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	h1, err := d.AddHelixAt(g, geom.Coord{X: 1, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	return d, h0, h1
}

func TestRowsFollowCreationOrder(t *testing.T) {
	d, h0, h1 := sample(t)
	l := New(d)
	if r, _ := l.Row(h0); r != 0 {
		t.Fatalf("Row(h0) = %d, want 0", r)
	}
	if r, _ := l.Row(h1); r != 1 {
		t.Fatalf("Row(h1) = %d, want 1", r)
	}
	if _, ok := l.Row(design.HelixID{Index: 9, Gen: 1}); ok {
		t.Fatalf("Row(stale) ok = true")
	}
}

func TestSlotSides(t *testing.T) {
	fwd := SlotAt(1, 4, true)
	bwd := SlotAt(1, 4, false)
	if fwd.X != bwd.X {
		t.Fatalf("sides differ in X: %v vs %v", fwd, bwd)
	}
	if fwd.Y >= bwd.Y {
		t.Fatalf("forward side Y = %v, want above backward %v", fwd.Y, bwd.Y)
	}
	if got, want := fwd.X, 4.5*BaseWidth; got != want {
		t.Fatalf("X = %v, want %v", got, want)
	}
}

func TestHitInvertsSlot(t *testing.T) {
	d, _, h1 := sample(t)
	l := New(d)
	for _, pos := range []int{-3, 0, 7} {
		for _, fwd := range []bool{true, false} {
			p, ok := l.Slot(h1, pos, fwd)
			if !ok {
				t.Fatal("Slot() ok = false")
			}
			h, gotPos, gotFwd, ok := l.Hit(p)
			if !ok || h != h1 || gotPos != pos || gotFwd != fwd {
				t.Fatalf("Hit(Slot(%d,%v)) = %v,%d,%v,%v", pos, fwd, h, gotPos, gotFwd, ok)
			}
		}
	}
	if _, _, _, ok := l.Hit(geom.V2(0, 50)); ok {
		t.Fatalf("Hit below last row ok = true")
	}
}
