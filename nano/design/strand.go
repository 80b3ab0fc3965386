package design

import (
	"fmt"
	"slices"
)

// Range is an inclusive run of base positions on one helix side.
//
// Forward strands read 5' to 3' with increasing positions.
type Range struct {
	Start   int
	End     int
	Forward bool
}

const (
	// MaxStrandLength bounds the bases of one strand.
	MaxStrandLength = 1 << 20
	// MaxPosition bounds base positions on either side of zero.
	MaxPosition = 1 << 30
)

// Valid reports whether r is non-empty, within ±MaxPosition and no longer
// than MaxStrandLength.
func (r Range) Valid() bool {
	return r.Start <= r.End &&
		r.Start >= -MaxPosition && r.End <= MaxPosition &&
		r.End-r.Start < MaxStrandLength
}

// Len returns the number of bases.
func (r Range) Len() int { return r.End - r.Start + 1 }

// Contains reports whether pos is inside the range.
func (r Range) Contains(pos int) bool { return pos >= r.Start && pos <= r.End }

// FivePrime returns the position of the 5' base.
func (r Range) FivePrime() int {
	if r.Forward {
		return r.Start
	}
	return r.End
}

// ThreePrime returns the position of the 3' base.
func (r Range) ThreePrime() int {
	if r.Forward {
		return r.End
	}
	return r.Start
}

func (r Range) String() string {
	dir := "fwd"
	if !r.Forward {
		dir = "bwd"
	}
	return fmt.Sprintf("[%d..%d %s]", r.Start, r.End, dir)
}

// Strand is a contiguous run of bases on a single helix.
type Strand struct {
	Helix HelixID
	Range Range
	// Sequence is read 5' to 3'. Empty means unspecified.
	Sequence string
}

// Prime names one of the two strand ends.
type Prime uint8

const (
	FivePrime Prime = iota + 1
	ThreePrime
)

func (p Prime) String() string {
	switch p {
	case FivePrime:
		return "5'"
	case ThreePrime:
		return "3'"
	default:
		return "?"
	}
}

// StrandEnd identifies one end of a strand.
type StrandEnd struct {
	Strand StrandID
	Prime  Prime
}

func (e StrandEnd) String() string { return fmt.Sprintf("%s%s", e.Strand, e.Prime) }

// EndInfo locates a strand end in the helix frame.
type EndInfo struct {
	End     StrandEnd
	Helix   HelixID
	Pos     int
	Forward bool
}

// AddStrandSegment places a new strand on helix.
func (d *Design) AddStrandSegment(helix HelixID, r Range) (StrandID, error) {
	if _, ok := d.helices.get(Handle(helix)); !ok {
		return StrandID{}, fmt.Errorf("add strand on %s: %w", helix, ErrInvalidReference)
	}
	if !r.Valid() {
		return StrandID{}, fmt.Errorf("add strand %s: %w", r, ErrOutOfRange)
	}
	for p := r.Start; p <= r.End; p++ {
		if s, taken := d.slots[slotKey{helix, p, r.Forward}]; taken {
			return StrandID{}, fmt.Errorf("add strand %s on %s: base %d held by %s: %w", r, helix, p, s, ErrOccupiedSlot)
		}
	}
	id := StrandID(d.strands.insert(Strand{Helix: helix, Range: r}))
	d.claim(id, helix, r)
	return id, nil
}

func (d *Design) claim(id StrandID, helix HelixID, r Range) {
	for p := r.Start; p <= r.End; p++ {
		d.slots[slotKey{helix, p, r.Forward}] = id
	}
}

func (d *Design) release(helix HelixID, r Range) {
	for p := r.Start; p <= r.End; p++ {
		delete(d.slots, slotKey{helix, p, r.Forward})
	}
}

// Strand returns a copy of the strand.
func (d *Design) Strand(id StrandID) (Strand, bool) {
	s, ok := d.strands.get(Handle(id))
	if !ok {
		return Strand{}, false
	}
	return *s, true
}

// Strands returns all strand handles in index order.
func (d *Design) Strands() []StrandID {
	hs := d.strands.handles()
	out := make([]StrandID, len(hs))
	for i, h := range hs {
		out[i] = StrandID(h)
	}
	return out
}

// StrandsOn returns the strands on helix ordered by start position, forward
// side first.
func (d *Design) StrandsOn(helix HelixID) []StrandID {
	var out []StrandID
	for _, id := range d.Strands() {
		s, _ := d.strands.get(Handle(id))
		if s.Helix == helix {
			out = append(out, id)
		}
	}
	slices.SortStableFunc(out, func(a, b StrandID) int {
		sa, _ := d.strands.get(Handle(a))
		sb, _ := d.strands.get(Handle(b))
		if sa.Range.Forward != sb.Range.Forward {
			if sa.Range.Forward {
				return -1
			}
			return 1
		}
		return sa.Range.Start - sb.Range.Start
	})
	return out
}

// StrandAt returns the strand covering a base slot.
func (d *Design) StrandAt(helix HelixID, pos int, forward bool) (StrandID, bool) {
	s, ok := d.slots[slotKey{helix, pos, forward}]
	return s, ok
}

// End resolves a strand end to its helix position.
func (d *Design) End(e StrandEnd) (EndInfo, error) {
	s, ok := d.strands.get(Handle(e.Strand))
	if !ok {
		return EndInfo{}, fmt.Errorf("end %s: %w", e, ErrInvalidReference)
	}
	info := EndInfo{End: e, Helix: s.Helix, Forward: s.Range.Forward}
	switch e.Prime {
	case FivePrime:
		info.Pos = s.Range.FivePrime()
	case ThreePrime:
		info.Pos = s.Range.ThreePrime()
	default:
		return EndInfo{}, fmt.Errorf("end %s: %w", e, ErrInvalidReference)
	}
	return info, nil
}

// EndAt returns the strand end sitting on a base slot, if any.
func (d *Design) EndAt(helix HelixID, pos int, forward bool) (StrandEnd, bool) {
	id, ok := d.slots[slotKey{helix, pos, forward}]
	if !ok {
		return StrandEnd{}, false
	}
	s, _ := d.strands.get(Handle(id))
	switch pos {
	case s.Range.FivePrime():
		return StrandEnd{id, FivePrime}, true
	case s.Range.ThreePrime():
		return StrandEnd{id, ThreePrime}, true
	}
	return StrandEnd{}, false
}

// FreeEnds lists every strand end that is not part of a cross-over, ordered
// by strand index then 5' before 3'. A single-base strand contributes both.
func (d *Design) FreeEnds() []EndInfo {
	var out []EndInfo
	for _, id := range d.Strands() {
		for _, p := range [...]Prime{FivePrime, ThreePrime} {
			e := StrandEnd{id, p}
			if d.IsJoined(e) {
				continue
			}
			info, _ := d.End(e)
			out = append(out, info)
		}
	}
	return out
}

// RemoveStrand deletes a strand together with the cross-overs at its ends.
func (d *Design) RemoveStrand(id StrandID) error {
	s, ok := d.strands.get(Handle(id))
	if !ok {
		return fmt.Errorf("remove %s: %w", id, ErrInvalidReference)
	}
	for _, p := range [...]Prime{FivePrime, ThreePrime} {
		if x, joined := d.joins[StrandEnd{id, p}]; joined {
			d.dropCrossOver(x)
		}
	}
	d.release(s.Helix, s.Range)
	d.strands.remove(Handle(id))
	return nil
}

// SplitStrand cuts a strand after pos, reading 5' to 3'. The original strand
// keeps the 5' part up to and including pos; the returned strand holds the
// rest and inherits the 3' cross-over.
func (d *Design) SplitStrand(id StrandID, pos int) (StrandID, error) {
	s, ok := d.strands.get(Handle(id))
	if !ok {
		return StrandID{}, fmt.Errorf("split %s: %w", id, ErrInvalidReference)
	}
	r := s.Range
	if !r.Contains(pos) || pos == r.ThreePrime() {
		return StrandID{}, fmt.Errorf("split %s %s at %d: %w", id, r, pos, ErrOutOfRange)
	}

	var head, tail Range
	if r.Forward {
		head = Range{Start: r.Start, End: pos, Forward: true}
		tail = Range{Start: pos + 1, End: r.End, Forward: true}
	} else {
		head = Range{Start: pos, End: r.End, Forward: false}
		tail = Range{Start: r.Start, End: pos - 1, Forward: false}
	}
	seqHead, seqTail := splitSequence(s.Sequence, head.Len())

	helix := s.Helix
	s.Range = head
	s.Sequence = seqHead
	tailID := StrandID(d.strands.insert(Strand{Helix: helix, Range: tail, Sequence: seqTail}))
	d.claim(tailID, helix, tail)

	oldEnd := StrandEnd{id, ThreePrime}
	if x, joined := d.joins[oldEnd]; joined {
		delete(d.joins, oldEnd)
		newEnd := StrandEnd{tailID, ThreePrime}
		d.joins[newEnd] = x
		if c, ok := d.xovers.get(Handle(x)); ok {
			c.From = newEnd
		}
	}
	return tailID, nil
}

func splitSequence(seq string, n int) (string, string) {
	if seq == "" {
		return "", ""
	}
	if n >= len(seq) {
		return seq, ""
	}
	return seq[:n], seq[n:]
}

// SetSequence assigns bases to a strand, 5' to 3'. The sequence must be
// empty or exactly as long as the strand.
func (d *Design) SetSequence(id StrandID, seq string) error {
	s, ok := d.strands.get(Handle(id))
	if !ok {
		return fmt.Errorf("set sequence of %s: %w", id, ErrInvalidReference)
	}
	if seq != "" && len(seq) != s.Range.Len() {
		return fmt.Errorf("set sequence of %s: %d bases for %d slots: %w", id, len(seq), s.Range.Len(), ErrOutOfRange)
	}
	s.Sequence = seq
	return nil
}

// BaseAt returns the base letter at pos, or 0 when unspecified.
func (s Strand) BaseAt(pos int) byte {
	if s.Sequence == "" || !s.Range.Contains(pos) {
		return 0
	}
	i := pos - s.Range.Start
	if !s.Range.Forward {
		i = s.Range.End - pos
	}
	if i >= len(s.Sequence) {
		return 0
	}
	return s.Sequence[i]
}
