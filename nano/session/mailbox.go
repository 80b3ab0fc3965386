package session

import "sync"

// DefaultMailboxSlots bounds the number of pending events.
const DefaultMailboxSlots = 64

// mailbox is a bounded FIFO ring. Producers never block: push fails when
// the ring is full. Consecutive pointer moves in one view collapse into the
// latest, and events that end a gesture or swap the design may use a
// reserve of as many slots again, so a burst of moves cannot crowd them out.
type mailbox struct {
	mu    sync.Mutex
	head  uint64
	tail  uint64
	limit uint64
	slots []Event
}

func newMailbox(n int) *mailbox {
	if n <= 0 {
		n = DefaultMailboxSlots
	}
	return &mailbox{limit: uint64(n), slots: make([]Event, 2*n)}
}

// reserved reports whether k may use the reserve slots.
func (k EventKind) reserved() bool {
	switch k {
	case EventPointerUp, EventCancel, EventReplace, EventResize:
		return true
	}
	return false
}

func (mb *mailbox) push(ev Event) bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	n := uint64(len(mb.slots))
	pending := mb.head - mb.tail
	if ev.Kind == EventPointerMove && pending > 0 {
		last := &mb.slots[(mb.head-1)%n]
		if last.Kind == EventPointerMove && last.View == ev.View {
			*last = ev
			return true
		}
	}
	limit := mb.limit
	if ev.Kind.reserved() {
		limit = n
	}
	if pending >= limit {
		return false
	}
	mb.slots[mb.head%n] = ev
	mb.head++
	return true
}

// drain moves every pending event into dst.
func (mb *mailbox) drain(dst []Event) []Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	n := uint64(len(mb.slots))
	for mb.tail != mb.head {
		i := mb.tail % n
		dst = append(dst, mb.slots[i])
		mb.slots[i] = Event{}
		mb.tail++
	}
	return dst
}

func (mb *mailbox) len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return int(mb.head - mb.tail)
}
