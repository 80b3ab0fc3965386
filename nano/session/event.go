package session

import (
	"icednano/nano/design"
	"icednano/nano/geom"
	"icednano/nano/mode"
)

// EventKind identifies an input event.
type EventKind uint8

const (
	EventPointerDown EventKind = iota
	EventPointerMove
	EventPointerUp
	// EventWheel zooms the view under Screen by Delta.Y notches.
	EventWheel
	// EventCancel aborts the gesture in progress.
	EventCancel
	EventSetSelection
	EventCycleSelection
	EventSetAction
	// EventResize sets the pixel size of View to Size.
	EventResize
	// EventFit centers both views on the design.
	EventFit
	// EventReplace swaps in Design, as after a load or an external edit.
	// With Clean set, Path becomes the design's file and the design counts
	// as saved.
	EventReplace
	EventUndo
	EventRedo
)

var eventNames = [...]string{
	EventPointerDown:    "pointer_down",
	EventPointerMove:    "pointer_move",
	EventPointerUp:      "pointer_up",
	EventWheel:          "wheel",
	EventCancel:         "cancel",
	EventSetSelection:   "set_selection",
	EventCycleSelection: "cycle_selection",
	EventSetAction:      "set_action",
	EventResize:         "resize",
	EventFit:            "fit",
	EventReplace:        "replace",
	EventUndo:           "undo",
	EventRedo:           "redo",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is one queued input. Screen coordinates are local to View.
type Event struct {
	Kind   EventKind
	View   mode.View
	Screen geom.Vec2
	Delta  geom.Vec2

	Selection mode.Selection
	Action    mode.Action
	Size      [2]int
	Design    *design.Design
	Path      string
	Clean     bool
}
