package session

import "icednano/nano/design"

// DefaultHistory bounds the undo stack.
const DefaultHistory = 64

// history keeps whole-design copies taken between gestures. base is a copy
// of the design as of baseRev; a change is recorded by pushing base once
// the revision has moved on and no gesture is in progress.
type history struct {
	limit   int
	base    *design.Design
	baseRev uint64
	undo    []*design.Design
	redo    []*design.Design
}

func newHistory(d *design.Design, limit int) history {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return history{limit: limit, base: d.Clone()}
}

// reset forgets every recorded change, as after loading another design.
func (h *history) reset(d *design.Design, rev uint64) {
	h.base, h.baseRev = d.Clone(), rev
	h.undo, h.redo = nil, nil
}

func (h *history) push(stack []*design.Design, d *design.Design) []*design.Design {
	stack = append(stack, d)
	if over := len(stack) - h.limit; over > 0 {
		clear(stack[:over])
		stack = stack[over:]
	}
	return stack
}

// checkpoint records the edits made since the last one.
func (s *Session) checkpoint() {
	h := &s.hist
	if s.revision == h.baseRev || s.gestureActive() {
		return
	}
	h.undo = h.push(h.undo, h.base)
	h.redo = nil
	h.base, h.baseRev = s.d.Clone(), s.revision
}

// undo steps back one recorded change. A gesture in progress is cancelled
// first.
func (s *Session) undo() error {
	return s.travel(&s.hist.undo, &s.hist.redo, "undo")
}

func (s *Session) redo() error {
	return s.travel(&s.hist.redo, &s.hist.undo, "redo")
}

func (s *Session) travel(from, to *[]*design.Design, kind string) error {
	if err := s.cancel(); err != nil {
		return err
	}
	s.checkpoint()
	h := &s.hist
	if len(*from) == 0 {
		s.observe(kind, "empty")
		return nil
	}
	n := len(*from) - 1
	prev := (*from)[n]
	(*from)[n] = nil
	*from = (*from)[:n]
	*to = h.push(*to, h.base)

	s.xo.Reset()
	s.d = prev
	s.revision++
	h.base, h.baseRev = prev.Clone(), s.revision
	s.observe(kind, "applied")
	s.logger.Debug("session: "+kind, "undo", len(h.undo), "redo", len(h.redo))
	return nil
}
