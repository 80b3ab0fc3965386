package design

import "fmt"

// CrossOver links the 3' end of one strand to the 5' end of a strand on
// another helix.
type CrossOver struct {
	From StrandEnd
	To   StrandEnd
}

// Join creates a cross-over between two strand ends. The ends may be given in
// either order; the stored cross-over always runs from the 3' end.
func (d *Design) Join(a, b StrandEnd) (CrossOverID, error) {
	ea, err := d.End(a)
	if err != nil {
		return CrossOverID{}, fmt.Errorf("join: %w", err)
	}
	eb, err := d.End(b)
	if err != nil {
		return CrossOverID{}, fmt.Errorf("join: %w", err)
	}
	switch {
	case ea.Helix == eb.Helix:
		return CrossOverID{}, fmt.Errorf("join %s-%s: same helix: %w", a, b, ErrIncompatibleEnds)
	case a.Prime == b.Prime:
		return CrossOverID{}, fmt.Errorf("join %s-%s: both %s: %w", a, b, a.Prime, ErrIncompatibleEnds)
	case d.IsJoined(a) || d.IsJoined(b):
		return CrossOverID{}, fmt.Errorf("join %s-%s: end already joined: %w", a, b, ErrIncompatibleEnds)
	}
	if a.Prime == FivePrime {
		a, b = b, a
	}
	id := CrossOverID(d.xovers.insert(CrossOver{From: a, To: b}))
	d.joins[a] = id
	d.joins[b] = id
	return id, nil
}

// RemoveCrossOver deletes a cross-over and frees both of its ends.
func (d *Design) RemoveCrossOver(id CrossOverID) error {
	if _, ok := d.xovers.get(Handle(id)); !ok {
		return fmt.Errorf("remove %s: %w", id, ErrInvalidReference)
	}
	d.dropCrossOver(id)
	return nil
}

func (d *Design) dropCrossOver(id CrossOverID) {
	c, ok := d.xovers.get(Handle(id))
	if !ok {
		return
	}
	delete(d.joins, c.From)
	delete(d.joins, c.To)
	d.xovers.remove(Handle(id))
}

// CrossOver returns a copy of the cross-over.
func (d *Design) CrossOver(id CrossOverID) (CrossOver, bool) {
	c, ok := d.xovers.get(Handle(id))
	if !ok {
		return CrossOver{}, false
	}
	return *c, true
}

// CrossOvers returns all cross-over handles in index order.
func (d *Design) CrossOvers() []CrossOverID {
	hs := d.xovers.handles()
	out := make([]CrossOverID, len(hs))
	for i, h := range hs {
		out[i] = CrossOverID(h)
	}
	return out
}

// IsJoined reports whether the end takes part in a cross-over.
func (d *Design) IsJoined(e StrandEnd) bool {
	_, ok := d.joins[e]
	return ok
}

// CrossOverAt returns the cross-over attached to e.
func (d *Design) CrossOverAt(e StrandEnd) (CrossOverID, bool) {
	id, ok := d.joins[e]
	return id, ok
}

// Chain follows cross-overs from the 5'-most strand reachable from id and
// returns the logical strand in 5' to 3' order. cyclic is true when the
// chain closes on itself.
func (d *Design) Chain(id StrandID) (chain []StrandID, cyclic bool, err error) {
	if _, ok := d.strands.get(Handle(id)); !ok {
		return nil, false, fmt.Errorf("chain of %s: %w", id, ErrInvalidReference)
	}

	start := id
	seen := map[StrandID]bool{id: true}
	for {
		x, ok := d.joins[StrandEnd{start, FivePrime}]
		if !ok {
			break
		}
		c, _ := d.xovers.get(Handle(x))
		prev := c.From.Strand
		if seen[prev] {
			cyclic = true
			break
		}
		seen[prev] = true
		start = prev
	}

	chain = []StrandID{start}
	visited := map[StrandID]bool{start: true}
	cur := start
	for {
		x, ok := d.joins[StrandEnd{cur, ThreePrime}]
		if !ok {
			break
		}
		c, _ := d.xovers.get(Handle(x))
		next := c.To.Strand
		if visited[next] {
			cyclic = true
			break
		}
		visited[next] = true
		chain = append(chain, next)
		cur = next
	}
	return chain, cyclic, nil
}
