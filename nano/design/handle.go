package design

import "fmt"

// Handle is an arena index tagged with the generation of the slot.
//
// The zero Handle is never issued.
type Handle struct {
	Index uint32
	Gen   uint32
}

func (h Handle) Valid() bool { return h.Gen != 0 }

type (
	GridID      Handle
	HelixID     Handle
	StrandID    Handle
	CrossOverID Handle
)

func (id GridID) String() string      { return fmt.Sprintf("grid#%d.%d", id.Index, id.Gen) }
func (id HelixID) String() string     { return fmt.Sprintf("helix#%d.%d", id.Index, id.Gen) }
func (id StrandID) String() string    { return fmt.Sprintf("strand#%d.%d", id.Index, id.Gen) }
func (id CrossOverID) String() string { return fmt.Sprintf("xover#%d.%d", id.Index, id.Gen) }

func (id GridID) Valid() bool      { return Handle(id).Valid() }
func (id HelixID) Valid() bool     { return Handle(id).Valid() }
func (id StrandID) Valid() bool    { return Handle(id).Valid() }
func (id CrossOverID) Valid() bool { return Handle(id).Valid() }

type slot[T any] struct {
	gen  uint32
	live bool
	val  T
}

// arena stores values in reusable slots. Reusing a slot bumps its generation.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	n     int
}

func (a *arena[T]) insert(v T) Handle {
	a.n++
	if k := len(a.free); k > 0 {
		idx := a.free[k-1]
		a.free = a.free[:k-1]
		s := &a.slots[idx]
		s.gen++
		s.live = true
		s.val = v
		return Handle{Index: idx, Gen: s.gen}
	}
	a.slots = append(a.slots, slot[T]{gen: 1, live: true, val: v})
	return Handle{Index: uint32(len(a.slots) - 1), Gen: 1}
}

func (a *arena[T]) get(h Handle) (*T, bool) {
	if h.Gen == 0 || int(h.Index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.Index]
	if !s.live || s.gen != h.Gen {
		return nil, false
	}
	return &s.val, true
}

func (a *arena[T]) remove(h Handle) bool {
	if _, ok := a.get(h); !ok {
		return false
	}
	s := &a.slots[h.Index]
	var zero T
	s.live = false
	s.val = zero
	a.free = append(a.free, h.Index)
	a.n--
	return true
}

func (a *arena[T]) len() int { return a.n }

// handles returns live handles in index order.
func (a *arena[T]) handles() []Handle {
	out := make([]Handle, 0, a.n)
	for i := range a.slots {
		if a.slots[i].live {
			out = append(out, Handle{Index: uint32(i), Gen: a.slots[i].gen})
		}
	}
	return out
}

func (a *arena[T]) clone(cp func(T) T) arena[T] {
	out := arena[T]{
		slots: make([]slot[T], len(a.slots)),
		free:  append([]uint32(nil), a.free...),
		n:     a.n,
	}
	for i, s := range a.slots {
		out.slots[i] = slot[T]{gen: s.gen, live: s.live}
		if s.live {
			out.slots[i].val = cp(s.val)
		}
	}
	return out
}
